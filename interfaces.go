// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package fairshare

import (
	"context"

	fsengine "github.com/jontk/fairshare/internal/fairshare"
	fsstore "github.com/jontk/fairshare/internal/fairshare/store"
	"github.com/jontk/fairshare/pkg/logging"
)

// Store is the accounting store contract the fairshare engine reads from
// and writes to.
type Store = fsstore.Store

// Loader builds a hierarchy tree from a record set.
type Loader interface {
	Load(ctx context.Context, recs *fsstore.RecordSet, logger logging.Logger) (*fsengine.Tree, error)
}

// Plugin is the subset of the job-priority plugin's surface that a host
// runtime drives through lifecycle callbacks: validate, new, run and
// inactive. Depend, priority and the update/reprioritize/query RPCs are not
// part of it.
type Plugin interface {
	Validate(userID, bank, queue, project string) error
	New(userID, bank, jobID, queue string) error
	Run(userID, bank, jobID string, tRun int64) error
	Inactive(userID, bank, jobID string, usageOf func(userID, bank string) float64) error
}
