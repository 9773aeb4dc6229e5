// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package priority

// UpdateData is the bulk payload accepted by the update RPC: full
// replacement of the banks, queues and associations tables, plus the
// default-bank lookup.
type UpdateData struct {
	Banks        []Bank
	Queues       []Queue
	Associations []Association
	DefaultBank  map[string]string
}

// Update implements the update RPC: bulk-replaces associations and banks.
// Existing job-local state (m.jobs) is left untouched — jobs in flight keep
// their bindings across an update.
func (m *Model) Update(data UpdateData) error {
	banks := make(map[string]Bank, len(data.Banks))
	for _, b := range data.Banks {
		if err := validateBank(b); err != nil {
			return err
		}
		banks[b.Name] = b
	}

	queues := make(map[string]Queue, len(data.Queues))
	for _, q := range data.Queues {
		if err := validateQueue(q); err != nil {
			return err
		}
		queues[q.Name] = q
	}

	assocs := make(map[AssociationKey]*Association, len(data.Associations))
	for i := range data.Associations {
		a := data.Associations[i]
		if err := validateAssociation(a); err != nil {
			return err
		}
		if a.QueueUsage == nil {
			a.QueueUsage = make(map[string]*QueueUsage)
		}
		if a.QueueHeldJobs == nil {
			a.QueueHeldJobs = make(map[string][]string)
		}
		assocs[AssociationKey{UserID: a.UserID, Bank: a.Bank}] = &a
	}

	defaultBank := make(map[string]string, len(data.DefaultBank))
	for k, v := range data.DefaultBank {
		defaultBank[k] = v
	}

	m.banks = banks
	m.queues = queues
	m.associations = assocs
	m.defaultBank = defaultBank

	m.logger.Info("model updated", "banks", len(banks), "queues", len(queues), "associations", len(assocs))
	return nil
}

// Reprioritize implements the reprioritize RPC: recomputes the priority of
// every job currently bound, for hosts that call it after update.
func (m *Model) Reprioritize() (map[string]int64, error) {
	out := make(map[string]int64, len(m.jobs))
	for id, j := range m.jobs {
		a, ok := m.association(AssociationKey{UserID: j.UserID, Bank: j.Bank})
		if !ok {
			continue
		}
		p, err := m.Priority(j.UserID, j.Bank, id, a.Fairshare)
		if err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, nil
}

// ModelSnapshot is the full state returned by the query RPC.
type ModelSnapshot struct {
	Loaded       bool
	Banks        map[string]Bank
	Queues       map[string]Queue
	Associations map[AssociationKey]Association
}

// Query implements the query RPC: emits a snapshot of the full model. Prior
// to the first Update, Loaded is false and the other fields are empty.
func (m *Model) Query() ModelSnapshot {
	if !m.loaded() {
		return ModelSnapshot{Loaded: false}
	}

	banks := make(map[string]Bank, len(m.banks))
	for k, v := range m.banks {
		banks[k] = v
	}
	queues := make(map[string]Queue, len(m.queues))
	for k, v := range m.queues {
		queues[k] = v
	}
	assocs := make(map[AssociationKey]Association, len(m.associations))
	for k, v := range m.associations {
		assocs[k] = *v
	}

	return ModelSnapshot{Loaded: true, Banks: banks, Queues: queues, Associations: assocs}
}

// SetFairshare installs the walk's output fairshare value onto the matching
// association, called by the batch process that bridges internal/fairshare
// output into the live model between update cycles.
func (m *Model) SetFairshare(userID, bank string, fairshare float64) bool {
	a, ok := m.association(AssociationKey{UserID: userID, Bank: bank})
	if !ok {
		return false
	}
	a.Fairshare = fairshare
	return true
}
