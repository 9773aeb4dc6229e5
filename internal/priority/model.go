// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package priority implements the job-priority plugin's in-memory model and
// lifecycle engine: the Association/Queue/Bank/Job tables of the accounting
// system and the six event handlers (validate/new/depend/priority/run/
// inactive) plus the update/reprioritize/clear/query RPCs that drive them.
package priority

import "github.com/jontk/fairshare/pkg/logging"

// placeholderBank is the sentinel bank name carried by a fresh Model before
// its first update call; Query reports "not yet loaded" while every
// association still belongs to it.
const placeholderBank = "DNE"

// Bank is a priority-plugin bank entity, keyed by name.
type Bank struct {
	Name     string
	Priority float64
}

// Queue is a priority-plugin queue entity, keyed by name.
type Queue struct {
	Name             string
	Priority         float64
	MaxRunningJobs   int
	MaxNodesPerAssoc int
	MinNodesPerJob   int
	MaxNodesPerJob   int
	MaxTimePerJob    int
}

// QueueUsage tracks an association's per-queue resource consumption.
type QueueUsage struct {
	CurRunJobs int
	CurNodes   int
}

// AssociationKey identifies an association by (userid, bank).
type AssociationKey struct {
	UserID string
	Bank   string
}

// Association is the in-memory priority-plugin record for one (userid,
// bank) pair.
type Association struct {
	UserID string
	Bank   string

	Fairshare float64

	MaxRunJobs int
	CurRunJobs int

	MaxActiveJobs int
	CurActiveJobs int

	MaxNodes int
	MaxCores int
	CurNodes int
	CurCores int

	// MaxComputeHours gates the supplemented ASSOC_MAXHOURS dependency; 0
	// means unlimited.
	MaxComputeHours float64

	Queues      map[string]struct{}
	QueueFactor float64

	Projects   map[string]struct{}
	DefProject string

	Active bool

	HeldJobs []string

	QueueUsage    map[string]*QueueUsage
	QueueHeldJobs map[string][]string
}

// allowsQueue reports whether the association's allowed-queue set is empty
// (any queue permitted) or contains queue.
func (a *Association) allowsQueue(queue string) bool {
	if len(a.Queues) == 0 {
		return true
	}
	_, ok := a.Queues[queue]
	return ok
}

// allowsProject reports whether the association's allowed-project set is
// empty (any project permitted) or contains project.
func (a *Association) allowsProject(project string) bool {
	if project == "" {
		return true
	}
	if len(a.Projects) == 0 {
		return true
	}
	_, ok := a.Projects[project]
	return ok
}

// usageFor returns the per-queue usage bucket for queue, creating it on
// first access.
func (a *Association) usageFor(queue string) *QueueUsage {
	if a.QueueUsage == nil {
		a.QueueUsage = make(map[string]*QueueUsage)
	}
	u, ok := a.QueueUsage[queue]
	if !ok {
		u = &QueueUsage{}
		a.QueueUsage[queue] = u
	}
	return u
}

// Job is the job-local record the lifecycle engine tracks from new through
// inactive.
type Job struct {
	ID     string
	UserID string
	Bank   string
	Queue  string

	NNodes int
	NCores int
	NSlots int

	// Deps is the ordered set of currently attached dependency names.
	Deps []string

	Urgency int

	// TRun is non-zero once the run handler has fired.
	TRun int64
}

// hasDep reports whether name is currently attached to the job.
func (j *Job) hasDep(name string) bool {
	for _, d := range j.Deps {
		if d == name {
			return true
		}
	}
	return false
}

// addDep appends name to the job's dependency set if not already present.
func (j *Job) addDep(name string) {
	if !j.hasDep(name) {
		j.Deps = append(j.Deps, name)
	}
}

// removeDep drops name from the job's dependency set.
func (j *Job) removeDep(name string) {
	out := j.Deps[:0]
	for _, d := range j.Deps {
		if d != name {
			out = append(out, d)
		}
	}
	j.Deps = out
}

// Model is the in-memory Association/Queue/Bank/Job state the lifecycle
// engine mutates. It is not safe for concurrent use; the host runtime is
// assumed to serialize handler calls for a given job.
type Model struct {
	logger logging.Logger

	banks        map[string]Bank
	queues       map[string]Queue
	associations map[AssociationKey]*Association
	defaultBank  map[string]string // userid -> bank_name

	jobs map[string]*Job // job id -> job-local record

	weightFairshare float64
	weightQueue     float64
	weightBank      float64
}

// NewModel builds an empty model carrying only the placeholder association,
// per spec: any query before the first update reports "not yet loaded".
func NewModel(weightFairshare, weightQueue, weightBank float64, logger logging.Logger) *Model {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	m := &Model{
		logger:          logger,
		banks:           make(map[string]Bank),
		queues:          make(map[string]Queue),
		associations:    make(map[AssociationKey]*Association),
		defaultBank:     make(map[string]string),
		jobs:            make(map[string]*Job),
		weightFairshare: weightFairshare,
		weightQueue:     weightQueue,
		weightBank:      weightBank,
	}
	m.associations[AssociationKey{Bank: placeholderBank}] = &Association{Bank: placeholderBank}
	return m
}

// loaded reports whether update has replaced the placeholder entry.
func (m *Model) loaded() bool {
	if len(m.associations) != 1 {
		return true
	}
	for k := range m.associations {
		return k.Bank != placeholderBank
	}
	return true
}

// association looks up an association by key.
func (m *Model) association(key AssociationKey) (*Association, bool) {
	a, ok := m.associations[key]
	return a, ok
}

// bankFactor returns banks[name].Priority, defaulting to 0 if unknown.
func (m *Model) bankFactor(name string) float64 {
	return m.banks[name].Priority
}
