// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package jobspec provides the narrow resource-count helper the
// lifecycle engine needs at job.state.depend: turning a job's resource
// request into (nnodes, ncores, nslots). It is not a general job-spec
// parser — per the Non-goals, the host runtime is responsible for
// resolving a full specification down to these counts; this package only
// performs the last, pure-function step of that translation.
package jobspec

import "github.com/jontk/fairshare/pkg/errors"

// ResourceCounts is the host-supplied summary of a job's resource request,
// equivalent to jj_counts in the accounting system this plugin models.
type ResourceCounts struct {
	Nnodes   int
	Nslots   int
	SlotSize int
}

// Resources is the (nnodes, ncores, nslots) triple the lifecycle engine
// binds to a job at depend time.
type Resources struct {
	Nnodes int
	Ncores int
	Nslots int
}

// CountResources derives (nnodes, ncores, nslots) from a resource-count
// summary: ncores is nslots * slot_size, nnodes and nslots pass through.
func CountResources(c ResourceCounts) (Resources, error) {
	if c.Nnodes < 0 || c.Nslots < 0 || c.SlotSize < 0 {
		return Resources{}, errors.NewValidationError(
			errors.ErrorCodeValidationFailed,
			"resource counts must be non-negative",
			"resource_counts", c,
		)
	}
	return Resources{
		Nnodes: c.Nnodes,
		Ncores: c.Nslots * c.SlotSize,
		Nslots: c.Nslots,
	}, nil
}
