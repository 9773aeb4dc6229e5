// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package fairshare

import (
	"context"
	"fmt"

	fsengine "github.com/jontk/fairshare/internal/fairshare"
	fsstore "github.com/jontk/fairshare/internal/fairshare/store"
	"github.com/jontk/fairshare/pkg/logging"
)

// Engine runs one fairshare update cycle: load the hierarchy from a store,
// walk it, and write the resulting fairshare values back.
type Engine struct {
	store  fsstore.Store
	logger logging.Logger
}

// NewEngine builds an Engine bound to store. A nil logger discards all log
// output.
func NewEngine(store fsstore.Store, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Engine{store: store, logger: logger}
}

// Run loads the hierarchy, computes fairshare, and persists the result. It
// is the batch-process equivalent of the teacher's update-fshare tool.
func (e *Engine) Run(ctx context.Context) error {
	recs, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load hierarchy: %w", err)
	}

	tree, err := fsengine.Load(ctx, recs, e.logger)
	if err != nil {
		return fmt.Errorf("build hierarchy: %w", err)
	}

	results, err := fsengine.Walk(tree, e.logger)
	if err != nil {
		return fmt.Errorf("walk hierarchy: %w", err)
	}

	if err := fsengine.Write(ctx, e.store, results, e.logger); err != nil {
		return fmt.Errorf("write fairshare: %w", err)
	}

	e.logger.Info("fairshare update cycle complete", "leaves", len(results))
	return nil
}

// Shares returns the walk's leaf results without persisting them, for the
// read-only hierarchy-dump CLI.
func (e *Engine) Shares(ctx context.Context) ([]fsengine.LeafResult, error) {
	recs, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load hierarchy: %w", err)
	}
	tree, err := fsengine.Load(ctx, recs, e.logger)
	if err != nil {
		return nil, fmt.Errorf("build hierarchy: %w", err)
	}
	return fsengine.Walk(tree, e.logger)
}
