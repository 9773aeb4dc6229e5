// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package fairshare

import (
	"context"

	"github.com/jontk/fairshare/internal/fairshare/store"
	"github.com/jontk/fairshare/pkg/logging"
)

// Write persists the fairshare values from results into the store, keyed by
// (username, bank). It touches only the fairshare column of each matching
// association row; every other column, and every bank row, is left alone.
func Write(ctx context.Context, s store.Store, results []LeafResult, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	updates := make([]store.FairshareUpdate, 0, len(results))
	for _, r := range results {
		updates = append(updates, store.FairshareUpdate{
			Username:  r.Username,
			Bank:      r.Bank,
			Fairshare: r.Fairshare,
		})
	}

	if err := s.WriteFairshare(ctx, updates); err != nil {
		logger.Error("fairshare write failed", "error", err, "count", len(updates))
		return err
	}

	logger.Info("fairshare written", "count", len(updates))
	return nil
}
