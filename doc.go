// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

/*
Package fairshare computes hierarchical fairshare priorities for a
multi-tenant batch workload manager and implements the job-priority plugin
state machine that consumes them.

# Overview

The package has two halves that run in separate processes and share only
the accounting store:

 1. A batch fairshare engine (internal/fairshare) that loads the bank/
    association hierarchy, walks it with a tie-aware weighted ranking
    algorithm, and writes the resulting fairshare values back to the store.
 2. A job-priority plugin (internal/priority, internal/accumulator) that
    keeps an in-memory model of banks, queues, associations and jobs, and
    answers the host runtime's lifecycle callbacks (validate, new, depend,
    priority, run, inactive) plus update/reprioritize/clear/query RPCs.

# Basic Usage

Running one fairshare update cycle against a store:

	ctx := context.Background()
	store, err := store.Open("/var/accounting/accounting.db", 30*time.Second, true)
	if err != nil {
	    log.Fatal(err)
	}
	defer store.Close()

	eng := fairshare.NewEngine(store, logging.NewLogger(nil))
	if err := eng.Run(ctx); err != nil {
	    log.Fatal(err)
	}

Driving the job-priority plugin's model directly:

	model := priority.NewModel(100000, 1, 1, logger)
	if err := model.Update(priority.UpdateData{...}); err != nil {
	    log.Fatal(err)
	}
	if err := model.Validate(userID, bank, queue, project); err != nil {
	    // reject the job
	}

# Error Handling

Errors are returned as *errors.FairshareError, classified into five
categories (configuration, policy rejection, invariant violation, store I/O,
validation) via Code/Category; IsRetryable reports whether the store layer
should retry the operation (SQLITE_BUSY/SQLITE_LOCKED).

# Environment Variables

The CLI commands under cmd/ read their store location and tuning from:

  - ACCOUNTING_DB_DATA_DIR / ACCOUNTS_DATA_DIR / ACCOUNTING_TEST_DB_DIR
  - ACCOUNTING_BUSY_TIMEOUT (a Go duration string, e.g. "30s")
  - ACCOUNTING_DEBUG

# Concurrency

The loader/walk/writer hold no state across runs and are safe to invoke
from a fresh process each cycle. The priority-plugin model is not safe for
concurrent use: the host runtime is assumed to serialize lifecycle calls
for a given job, per spec §5.
*/
package fairshare
