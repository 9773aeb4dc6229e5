// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package priority

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateBank(t *testing.T) {
	assert.NoError(t, validateBank(Bank{Name: "bank1"}))
	assert.Error(t, validateBank(Bank{Name: ""}))
}

func TestValidateQueue(t *testing.T) {
	assert.NoError(t, validateQueue(Queue{Name: "batch", MinNodesPerJob: 1, MaxNodesPerJob: 4}))
	assert.Error(t, validateQueue(Queue{Name: ""}))
	assert.Error(t, validateQueue(Queue{Name: "batch", MaxRunningJobs: -1}))
	assert.Error(t, validateQueue(Queue{Name: "batch", MinNodesPerJob: 8, MaxNodesPerJob: 4}))
}

func TestValidateAssociation(t *testing.T) {
	assert.NoError(t, validateAssociation(Association{UserID: "alice", Bank: "bank1"}))
	assert.Error(t, validateAssociation(Association{UserID: "", Bank: "bank1"}))
	assert.Error(t, validateAssociation(Association{UserID: "alice", Bank: ""}))
	assert.Error(t, validateAssociation(Association{UserID: "alice", Bank: "bank1", MaxNodes: -1}))
}

func TestValidateJob(t *testing.T) {
	assert.NoError(t, validateJob(Job{ID: "job1", Queue: "batch", NNodes: 1}))
	assert.Error(t, validateJob(Job{ID: "", Queue: "batch"}))
	assert.Error(t, validateJob(Job{ID: "job1", Queue: ""}))
	assert.Error(t, validateJob(Job{ID: "job1", Queue: "batch", NNodes: -1}))
}
