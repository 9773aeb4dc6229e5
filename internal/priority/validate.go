// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package priority

import (
	"fmt"

	"github.com/jontk/fairshare/pkg/errors"
)

// validateNonEmpty rejects a blank identifier field (userid, bank name,
// queue name).
func validateNonEmpty(value, fieldName string) error {
	if value == "" {
		return errors.NewValidationError(
			errors.ErrorCodeValidationFailed,
			fmt.Sprintf("%s is required", fieldName),
			fieldName, value,
		)
	}
	return nil
}

// validateNonNegative rejects a negative numeric field (max_run_jobs,
// max_nodes, ncores, ...).
func validateNonNegative(value int, fieldName string) error {
	if value < 0 {
		return errors.NewValidationError(
			errors.ErrorCodeValidationFailed,
			fmt.Sprintf("%s must be non-negative", fieldName),
			fieldName, value,
		)
	}
	return nil
}

// validateBank checks the fields a Bank record must satisfy before it is
// admitted into the model by update.
func validateBank(b Bank) error {
	if err := validateNonEmpty(b.Name, "bank.name"); err != nil {
		return err
	}
	return nil
}

// validateQueue checks the fields a Queue record must satisfy before it is
// admitted into the model by update.
func validateQueue(q Queue) error {
	if err := validateNonEmpty(q.Name, "queue.name"); err != nil {
		return err
	}
	if err := validateNonNegative(q.MaxRunningJobs, "queue.max_running_jobs"); err != nil {
		return err
	}
	if err := validateNonNegative(q.MaxNodesPerAssoc, "queue.max_nodes_per_assoc"); err != nil {
		return err
	}
	if err := validateNonNegative(q.MinNodesPerJob, "queue.min_nodes_per_job"); err != nil {
		return err
	}
	if err := validateNonNegative(q.MaxNodesPerJob, "queue.max_nodes_per_job"); err != nil {
		return err
	}
	if q.MinNodesPerJob > 0 && q.MaxNodesPerJob > 0 && q.MinNodesPerJob > q.MaxNodesPerJob {
		return errors.NewValidationError(
			errors.ErrorCodeValidationFailed,
			"queue.min_nodes_per_job exceeds queue.max_nodes_per_job",
			"queue.min_nodes_per_job", q.MinNodesPerJob,
		)
	}
	return nil
}

// validateAssociation checks the fields an Association record must satisfy
// before it is admitted into the model by update.
func validateAssociation(a Association) error {
	if err := validateNonEmpty(a.UserID, "association.userid"); err != nil {
		return err
	}
	if err := validateNonEmpty(a.Bank, "association.bank"); err != nil {
		return err
	}
	if err := validateNonNegative(a.MaxRunJobs, "association.max_run_jobs"); err != nil {
		return err
	}
	if err := validateNonNegative(a.MaxActiveJobs, "association.max_active_jobs"); err != nil {
		return err
	}
	if err := validateNonNegative(a.MaxNodes, "association.max_nodes"); err != nil {
		return err
	}
	if err := validateNonNegative(a.MaxCores, "association.max_cores"); err != nil {
		return err
	}
	if err := validateNonNegative(int(a.MaxComputeHours), "association.max_compute_hours"); err != nil {
		return err
	}
	return nil
}

// validateJob checks the fields a Job record must satisfy before New binds
// it into the model.
func validateJob(j Job) error {
	if err := validateNonEmpty(j.ID, "job.id"); err != nil {
		return err
	}
	if err := validateNonEmpty(j.Queue, "job.queue"); err != nil {
		return err
	}
	if err := validateNonNegative(j.NNodes, "job.nnodes"); err != nil {
		return err
	}
	if err := validateNonNegative(j.NCores, "job.ncores"); err != nil {
		return err
	}
	return nil
}
