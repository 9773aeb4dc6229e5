// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package priority

// Dependency names the lifecycle engine attaches to and removes from a job.
// ASSOC_MAXHOURS is a supplemented addition (see design notes): it is not
// part of the upstream dependency taxonomy but follows the same
// attach-on-violation / detach-on-clear shape as the other four.
const (
	DepAssocMaxRunJobs = "ASSOC_MRJ"
	DepQueueMaxRunJobs = "QUEUE_MRJ"
	DepAssocMaxRes     = "ASSOC_MRES"
	DepQueueMaxRes     = "QUEUE_MRES"
	DepAssocMaxHours   = "ASSOC_MAXHOURS"
)

// predicate evaluates whether a dependency's blocking condition still
// holds for the given association, queue and job.
type predicate func(a *Association, q Queue, haveQueue bool, j *Job, currentUsage float64) bool

var predicates = map[string]predicate{
	DepAssocMaxRunJobs: func(a *Association, _ Queue, _ bool, _ *Job, _ float64) bool {
		return a.MaxRunJobs > 0 && a.CurRunJobs >= a.MaxRunJobs
	},
	DepQueueMaxRunJobs: func(a *Association, q Queue, haveQueue bool, j *Job, _ float64) bool {
		if !haveQueue || q.MaxRunningJobs <= 0 {
			return false
		}
		return a.usageFor(j.Queue).CurRunJobs >= q.MaxRunningJobs
	},
	DepAssocMaxRes: func(a *Association, _ Queue, _ bool, j *Job, _ float64) bool {
		if a.MaxNodes <= 0 && a.MaxCores <= 0 {
			return false
		}
		if a.MaxNodes > 0 && a.CurNodes+j.NNodes > a.MaxNodes {
			return true
		}
		if a.MaxCores > 0 && a.CurCores+j.NCores > a.MaxCores {
			return true
		}
		return false
	},
	DepQueueMaxRes: func(a *Association, q Queue, haveQueue bool, j *Job, _ float64) bool {
		if !haveQueue || q.MaxNodesPerAssoc <= 0 {
			return false
		}
		return a.usageFor(j.Queue).CurNodes+j.NNodes > q.MaxNodesPerAssoc
	},
	DepAssocMaxHours: func(a *Association, _ Queue, _ bool, j *Job, currentUsage float64) bool {
		if a.MaxComputeHours <= 0 {
			return false
		}
		return currentUsage >= a.MaxComputeHours
	},
}

// dependencyOrder is the fixed evaluation order used by depend and by
// release re-evaluation, so that Deps is built and re-checked deterministically.
var dependencyOrder = []string{
	DepAssocMaxRunJobs,
	DepQueueMaxRunJobs,
	DepAssocMaxRes,
	DepQueueMaxRes,
	DepAssocMaxHours,
}

// evaluateDependencies returns the subset of dependencyOrder whose predicate
// currently fires for (a, q, j). currentUsage is the accumulator's
// current_usage for this association, consulted only by ASSOC_MAXHOURS; a
// zero value is safe when the accumulator is not wired in.
func evaluateDependencies(a *Association, q Queue, haveQueue bool, j *Job, currentUsage float64) []string {
	var fired []string
	for _, name := range dependencyOrder {
		if predicates[name](a, q, haveQueue, j, currentUsage) {
			fired = append(fired, name)
		}
	}
	return fired
}
