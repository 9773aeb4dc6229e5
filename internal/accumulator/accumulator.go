// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package accumulator implements the compute-hours accumulator: a
// bookkeeping layer parallel to and independent of internal/priority,
// tracking each association's current (in-flight) and total (completed)
// node-hour usage.
package accumulator

import (
	"github.com/jontk/fairshare/pkg/errors"
	"github.com/jontk/fairshare/pkg/logging"
)

// AssociationKey identifies an association by (userid, bank).
type AssociationKey struct {
	UserID string
	Bank   string
}

// job is the accumulator's own job-local record, independent of
// internal/priority's.
type job struct {
	nnodes        int
	expectedUsage float64
	tRun          int64
	ran           bool
}

// entry is one association's running totals.
type entry struct {
	currentUsage float64
	totalUsage   float64
}

// Accumulator tracks current_usage/total_usage per association. Not safe
// for concurrent use; handlers are called single-threaded by the host, same
// as internal/priority.
type Accumulator struct {
	logger logging.Logger

	jobs         map[string]*job
	associations map[AssociationKey]*entry
}

// New creates an empty accumulator.
func New(logger logging.Logger) *Accumulator {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Accumulator{
		logger:       logger,
		jobs:         make(map[string]*job),
		associations: make(map[AssociationKey]*entry),
	}
}

func (acc *Accumulator) entryFor(key AssociationKey) *entry {
	e, ok := acc.associations[key]
	if !ok {
		e = &entry{}
		acc.associations[key] = e
	}
	return e
}

// New implements job.new: allocates the job's local record.
func (acc *Accumulator) New(jobID string) {
	acc.jobs[jobID] = &job{}
}

// Depend implements job.state.depend: records nnodes and the job's expected
// usage (nnodes * duration) ahead of run.
func (acc *Accumulator) Depend(jobID string, nnodes int, duration float64) error {
	j, ok := acc.jobs[jobID]
	if !ok {
		return errors.NewInvariantViolationError(errors.ErrorCodeJobNotBound, "job not bound: "+jobID)
	}
	j.nnodes = nnodes
	j.expectedUsage = float64(nnodes) * duration
	return nil
}

// Run implements job.state.run: records t_run and folds expected_usage into
// the association's current_usage.
func (acc *Accumulator) Run(key AssociationKey, jobID string, tRun int64) error {
	j, ok := acc.jobs[jobID]
	if !ok {
		return errors.NewInvariantViolationError(errors.ErrorCodeJobNotBound, "job not bound: "+jobID)
	}
	j.tRun = tRun
	j.ran = true
	acc.entryFor(key).currentUsage += j.expectedUsage
	return nil
}

// Inactive implements job.state.inactive: if the job never ran, drops it
// silently; otherwise rolls expected_usage out of current_usage and folds
// the actual usage (nnodes * (t_inactive - t_run)) into total_usage.
func (acc *Accumulator) Inactive(key AssociationKey, jobID string, tInactive int64) error {
	j, ok := acc.jobs[jobID]
	if !ok {
		return errors.NewInvariantViolationError(errors.ErrorCodeJobNotBound, "job not bound: "+jobID)
	}
	defer delete(acc.jobs, jobID)

	if !j.ran {
		return nil
	}

	e := acc.entryFor(key)
	e.currentUsage -= j.expectedUsage
	actual := float64(j.nnodes) * float64(tInactive-j.tRun)
	e.totalUsage += actual
	acc.logger.Debug("job usage accumulated", "job", jobID, "actual_usage", actual)
	return nil
}

// CurrentUsage returns the association's current_usage, used by
// internal/priority's ASSOC_MAXHOURS dependency check.
func (acc *Accumulator) CurrentUsage(key AssociationKey) float64 {
	if e, ok := acc.associations[key]; ok {
		return e.currentUsage
	}
	return 0
}

// Clear implements the clear RPC: resets every association's total_usage to
// zero. current_usage (in-flight jobs) is untouched.
func (acc *Accumulator) Clear() {
	for _, e := range acc.associations {
		e.totalUsage = 0
	}
}

// Snapshot is one association's usage totals, as returned by Query.
type Snapshot struct {
	Key          AssociationKey
	CurrentUsage float64
	TotalUsage   float64
}

// Query implements the query RPC: emits the full model snapshot.
func (acc *Accumulator) Query() []Snapshot {
	out := make([]Snapshot, 0, len(acc.associations))
	for k, e := range acc.associations {
		out = append(out, Snapshot{Key: k, CurrentUsage: e.currentUsage, TotalUsage: e.totalUsage})
	}
	return out
}
