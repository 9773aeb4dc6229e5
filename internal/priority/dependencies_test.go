// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package priority

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateDependencies_AssocMaxRunJobs(t *testing.T) {
	a := &Association{MaxRunJobs: 2, CurRunJobs: 2}
	j := &Job{Queue: "batch"}

	fired := evaluateDependencies(a, Queue{}, false, j, 0)
	assert.Contains(t, fired, DepAssocMaxRunJobs)
}

func TestEvaluateDependencies_QueueMaxRunJobs(t *testing.T) {
	a := &Association{}
	j := &Job{Queue: "batch"}
	a.usageFor("batch").CurRunJobs = 3
	q := Queue{Name: "batch", MaxRunningJobs: 3}

	fired := evaluateDependencies(a, q, true, j, 0)
	assert.Contains(t, fired, DepQueueMaxRunJobs)
}

func TestEvaluateDependencies_AssocMaxRes(t *testing.T) {
	a := &Association{MaxNodes: 4, CurNodes: 3}
	j := &Job{NNodes: 2}

	fired := evaluateDependencies(a, Queue{}, false, j, 0)
	assert.Contains(t, fired, DepAssocMaxRes)
}

func TestEvaluateDependencies_QueueMaxRes(t *testing.T) {
	a := &Association{}
	j := &Job{Queue: "batch", NNodes: 2}
	a.usageFor("batch").CurNodes = 3
	q := Queue{Name: "batch", MaxNodesPerAssoc: 4}

	fired := evaluateDependencies(a, q, true, j, 0)
	assert.Contains(t, fired, DepQueueMaxRes)
}

func TestEvaluateDependencies_AssocMaxHours(t *testing.T) {
	a := &Association{MaxComputeHours: 100}
	j := &Job{}

	assert.NotContains(t, evaluateDependencies(a, Queue{}, false, j, 50), DepAssocMaxHours)
	assert.Contains(t, evaluateDependencies(a, Queue{}, false, j, 100), DepAssocMaxHours)
}

func TestEvaluateDependencies_AssocMaxHoursUnlimitedWhenZero(t *testing.T) {
	a := &Association{MaxComputeHours: 0}
	j := &Job{}
	assert.NotContains(t, evaluateDependencies(a, Queue{}, false, j, 1e9), DepAssocMaxHours)
}

func TestEvaluateDependencies_NoneFireWhenUnderLimits(t *testing.T) {
	a := &Association{MaxRunJobs: 5, MaxNodes: 10, MaxCores: 20}
	j := &Job{NNodes: 1, NCores: 1}

	fired := evaluateDependencies(a, Queue{}, false, j, 0)
	assert.Empty(t, fired)
}
