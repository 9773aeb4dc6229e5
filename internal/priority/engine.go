// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package priority

import (
	"math"

	"github.com/jontk/fairshare/pkg/errors"
)

// Urgency mirrors the host runtime's job urgency levels; only HOLD and
// EXPEDITE are special-cased by Priority, everything else feeds the linear
// formula unchanged.
type Urgency int

const (
	UrgencyHold     Urgency = 0
	UrgencyDefault  Urgency = 16
	UrgencyExpedite Urgency = 31
)

const (
	PriorityMin int64 = 0
	PriorityMax int64 = 4294967295 // 2^32 - 1, mirrors the host's priority ceiling
)

// Validate implements job.validate: rejects a job before it is admitted,
// per the dependency taxonomy's preconditions (§4.4).
func (m *Model) Validate(userID, bank, queue, project string) error {
	key := AssociationKey{UserID: userID, Bank: bank}
	a, ok := m.association(key)
	if !ok {
		return errors.NewPolicyRejectionError(
			errors.ErrorCodeUnknownAssociation,
			"unknown association",
			userID, bank, queue,
		)
	}

	q, haveQueue := m.queues[queue]
	if !haveQueue {
		return errors.NewPolicyRejectionError(
			errors.ErrorCodeUnknownQueue,
			"unknown queue",
			userID, bank, queue,
		)
	}
	if !a.allowsQueue(queue) {
		return errors.NewPolicyRejectionError(
			errors.ErrorCodeInvalidQueue,
			"queue not allowed for association",
			userID, bank, queue,
		)
	}
	_ = q // queue existence already checked; fields consulted at depend time

	if !a.allowsProject(project) {
		return errors.NewPolicyRejectionError(
			errors.ErrorCodeInvalidProject,
			"project not allowed for association",
			userID, bank, queue,
		)
	}

	if !a.Active {
		return errors.NewPolicyRejectionError(
			errors.ErrorCodeAssociationInactive,
			"association is inactive",
			userID, bank, queue,
		)
	}

	if a.MaxActiveJobs > 0 && a.CurActiveJobs >= a.MaxActiveJobs {
		return errors.NewPolicyRejectionError(
			errors.ErrorCodeMaxActiveJobs,
			"association at max active jobs",
			userID, bank, queue,
		)
	}

	return nil
}

// New implements job.new: binds the job to its association in job-local
// storage and increments cur_active_jobs.
func (m *Model) New(userID, bank, jobID, queue string) error {
	key := AssociationKey{UserID: userID, Bank: bank}
	a, ok := m.association(key)
	if !ok {
		return errors.NewPolicyRejectionError(
			errors.ErrorCodeUnknownAssociation,
			"unknown association",
			userID, bank, queue,
		)
	}

	j := Job{ID: jobID, UserID: userID, Bank: bank, Queue: queue, Urgency: int(UrgencyDefault)}
	if err := validateJob(j); err != nil {
		return err
	}
	m.jobs[jobID] = &j
	a.CurActiveJobs++
	m.logger.Debug("job bound to association", "job", jobID, "userid", userID, "bank", bank)
	return nil
}

// currentUsageFn optionally supplies the accumulator's current_usage for an
// association, consulted by the ASSOC_MAXHOURS dependency. A nil func is
// treated as always returning 0 (unlimited).
type currentUsageFn func(userID, bank string) float64

// Depend implements job.state.depend: parses resource counts, evaluates the
// dependency taxonomy, and attaches any dependency whose predicate fires.
func (m *Model) Depend(userID, bank, jobID string, nnodes, ncores, nslots int, usageOf currentUsageFn) error {
	j, ok := m.jobs[jobID]
	if !ok {
		return errors.NewInvariantViolationError(errors.ErrorCodeJobNotBound, "job not bound: "+jobID)
	}
	j.NNodes, j.NCores, j.NSlots = nnodes, ncores, nslots

	key := AssociationKey{UserID: userID, Bank: bank}
	a, ok := m.association(key)
	if !ok {
		return errors.NewPolicyRejectionError(errors.ErrorCodeUnknownAssociation, "unknown association", userID, bank, j.Queue)
	}
	q, haveQueue := m.queues[j.Queue]

	var usage float64
	if usageOf != nil {
		usage = usageOf(userID, bank)
	}

	fired := evaluateDependencies(a, q, haveQueue, j, usage)
	for _, name := range fired {
		j.addDep(name)
	}
	if len(fired) > 0 {
		a.HeldJobs = append(a.HeldJobs, jobID)
		if haveQueue {
			a.QueueHeldJobs[j.Queue] = append(a.QueueHeldJobs[j.Queue], jobID)
		}
		m.logger.Info("job held on dependency", "job", jobID, "deps", fired)
	}
	return nil
}

// Priority implements job.state.priority / job.priority.get: computes the
// job's scheduling priority from fairshare, queue factor and bank factor.
// Idempotent: safe to call repeatedly for the same job state.
func (m *Model) Priority(userID, bank, jobID string, fairshare float64) (int64, error) {
	j, ok := m.jobs[jobID]
	if !ok {
		return 0, errors.NewInvariantViolationError(errors.ErrorCodeJobNotBound, "job not bound: "+jobID)
	}

	switch Urgency(j.Urgency) {
	case UrgencyHold:
		return PriorityMin, nil
	case UrgencyExpedite:
		return PriorityMax, nil
	}

	q := m.queues[j.Queue]
	raw := m.weightFairshare*fairshare +
		m.weightQueue*q.Priority +
		m.weightBank*m.bankFactor(bank) +
		float64(j.Urgency-int(UrgencyDefault))

	p := int64(math.Abs(math.Round(raw)))
	if p > PriorityMax {
		p = PriorityMax
	}
	return p, nil
}

// SetUrgency updates a job's urgency ahead of a subsequent Priority call.
func (m *Model) SetUrgency(jobID string, urgency Urgency) error {
	j, ok := m.jobs[jobID]
	if !ok {
		return errors.NewInvariantViolationError(errors.ErrorCodeJobNotBound, "job not bound: "+jobID)
	}
	j.Urgency = int(urgency)
	return nil
}

// Run implements job.state.run: records t_run and increments the
// association's and queue's running-resource counters.
func (m *Model) Run(userID, bank, jobID string, tRun int64) error {
	j, ok := m.jobs[jobID]
	if !ok {
		return errors.NewInvariantViolationError(errors.ErrorCodeJobNotBound, "job not bound: "+jobID)
	}
	key := AssociationKey{UserID: userID, Bank: bank}
	a, ok := m.association(key)
	if !ok {
		return errors.NewPolicyRejectionError(errors.ErrorCodeUnknownAssociation, "unknown association", userID, bank, j.Queue)
	}

	j.TRun = tRun
	a.CurRunJobs++
	a.CurNodes += j.NNodes
	a.CurCores += j.NCores

	u := a.usageFor(j.Queue)
	u.CurRunJobs++
	u.CurNodes += j.NNodes
	return nil
}

// Inactive implements job.state.inactive: decrements cur_active_jobs, rolls
// back the run-time counters if the job reached run, then re-evaluates
// every held job in the association for dependency release.
func (m *Model) Inactive(userID, bank, jobID string, usageOf currentUsageFn) error {
	j, ok := m.jobs[jobID]
	if !ok {
		return errors.NewInvariantViolationError(errors.ErrorCodeJobNotBound, "job not bound: "+jobID)
	}
	key := AssociationKey{UserID: userID, Bank: bank}
	a, ok := m.association(key)
	if !ok {
		return errors.NewPolicyRejectionError(errors.ErrorCodeUnknownAssociation, "unknown association", userID, bank, j.Queue)
	}

	a.CurActiveJobs--
	if j.TRun != 0 {
		a.CurRunJobs--
		a.CurNodes -= j.NNodes
		a.CurCores -= j.NCores
		u := a.usageFor(j.Queue)
		u.CurRunJobs--
		u.CurNodes -= j.NNodes
	}

	delete(m.jobs, jobID)
	removeString(&a.HeldJobs, jobID)
	removeFromQueueHeld(a.QueueHeldJobs, j.Queue, jobID)

	return m.reevaluateHeld(a, usageOf)
}

// reevaluateHeld walks the association's held jobs in FIFO order, clearing
// any dependency whose predicate no longer holds.
func (m *Model) reevaluateHeld(a *Association, usageOf currentUsageFn) error {
	for _, jobID := range append([]string(nil), a.HeldJobs...) {
		hj, ok := m.jobs[jobID]
		if !ok {
			continue
		}
		q, haveQueue := m.queues[hj.Queue]
		var usage float64
		if usageOf != nil {
			usage = usageOf(a.UserID, a.Bank)
		}
		stillBlocked := map[string]bool{}
		for _, name := range evaluateDependencies(a, q, haveQueue, hj, usage) {
			stillBlocked[name] = true
		}
		for _, name := range append([]string(nil), hj.Deps...) {
			if !stillBlocked[name] {
				hj.removeDep(name)
			}
		}
		if len(hj.Deps) == 0 {
			removeString(&a.HeldJobs, jobID)
			removeFromQueueHeld(a.QueueHeldJobs, hj.Queue, jobID)
			m.logger.Info("job released", "job", jobID)
		}
	}
	return nil
}

func removeString(s *[]string, v string) {
	out := (*s)[:0]
	for _, x := range *s {
		if x != v {
			out = append(out, x)
		}
	}
	*s = out
}

func removeFromQueueHeld(m map[string][]string, queue, jobID string) {
	if m == nil {
		return
	}
	list, ok := m[queue]
	if !ok {
		return
	}
	removeString(&list, jobID)
	m[queue] = list
}
