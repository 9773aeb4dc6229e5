// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package fairshare

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(results []LeafResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Username
	}
	return out
}

// TestWalk_NoTies exercises a tree with three sibling banks of distinct
// weight and no tied leaves anywhere: the walk output is a strict
// descending order by weight, one bank's users after another.
func TestWalk_NoTies(t *testing.T) {
	recs := &RecordSet{
		Banks: []BankRecord{
			{Name: "root", Parent: "", Shares: 1, Active: true},
			{Name: "bank1", Parent: "root", Shares: 1, Active: true},
			{Name: "bank2", Parent: "root", Shares: 2, Active: true},
			{Name: "bank3", Parent: "root", Shares: 4, Active: true},
		},
		Associations: []AssociationRecord{
			{Username: "leaf.1.1", Bank: "bank1", Shares: 1, Usage: 10, Active: true},
			{Username: "leaf.2.1", Bank: "bank2", Shares: 1, Usage: 10, Active: true},
			{Username: "leaf.3.1", Bank: "bank3", Shares: 1, Usage: 10, Active: true},
		},
	}

	tree, err := Load(context.Background(), recs, nil)
	require.NoError(t, err)

	results, err := Walk(tree, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"leaf.3.1", "leaf.2.1", "leaf.1.1"}, names(results))
	for _, r := range results {
		assert.Greater(t, r.Fairshare, 0.0)
		assert.LessOrEqual(t, r.Fairshare, 1.0)
	}
}

// TestWalk_TieAcrossTwoBanks mirrors the "two sibling banks tie" scenario:
// bank3 outweighs the tied pair bank1/bank2, whose children are merged into
// a single virtual bank so their grandchildren compete directly.
func TestWalk_TieAcrossTwoBanks(t *testing.T) {
	recs := &RecordSet{
		Banks: []BankRecord{
			{Name: "root", Parent: "", Shares: 1, Active: true},
			{Name: "bank1", Parent: "root", Shares: 1, Active: true},
			{Name: "bank2", Parent: "root", Shares: 1, Active: true},
			{Name: "bank3", Parent: "root", Shares: 2, Active: true},
		},
		Associations: []AssociationRecord{
			{Username: "leaf.1.1", Bank: "bank1", Shares: 1, Usage: 30, Active: true},
			{Username: "leaf.1.2", Bank: "bank1", Shares: 1, Usage: 20, Active: true},
			{Username: "leaf.1.3", Bank: "bank1", Shares: 1, Usage: 10, Active: true},
			{Username: "leaf.2.1", Bank: "bank2", Shares: 1, Usage: 30, Active: true},
			{Username: "leaf.2.2", Bank: "bank2", Shares: 1, Usage: 20, Active: true},
			{Username: "leaf.2.3", Bank: "bank2", Shares: 1, Usage: 10, Active: true},
			{Username: "leaf.3.1", Bank: "bank3", Shares: 1, Usage: 10, Active: true},
			{Username: "leaf.3.2", Bank: "bank3", Shares: 1, Usage: 20, Active: true},
		},
	}

	tree, err := Load(context.Background(), recs, nil)
	require.NoError(t, err)

	results, err := Walk(tree, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"leaf.3.1", "leaf.3.2",
		"leaf.1.3", "leaf.2.3",
		"leaf.1.2", "leaf.2.2",
		"leaf.1.1", "leaf.2.1",
	}, names(results))

	// Tied leaves share the same fairshare value.
	byName := make(map[string]float64)
	for _, r := range results {
		byName[r.Username] = r.Fairshare
	}
	assert.Equal(t, byName["leaf.1.3"], byName["leaf.2.3"])
	assert.Equal(t, byName["leaf.1.2"], byName["leaf.2.2"])
	assert.Equal(t, byName["leaf.1.1"], byName["leaf.2.1"])
}

// TestWalk_AllSiblingsTied mirrors the "every sibling tied" scenario: three
// banks of equal weight, each with three users whose weights tie pairwise
// across banks at the same tier.
func TestWalk_AllSiblingsTied(t *testing.T) {
	recs := &RecordSet{Banks: []BankRecord{
		{Name: "root", Parent: "", Shares: 1, Active: true},
		{Name: "bank1", Parent: "root", Shares: 1, Active: true},
		{Name: "bank2", Parent: "root", Shares: 1, Active: true},
		{Name: "bank3", Parent: "root", Shares: 1, Active: true},
	}}
	for _, bank := range []string{"bank1", "bank2", "bank3"} {
		n := bank[len(bank)-1:]
		recs.Associations = append(recs.Associations,
			AssociationRecord{Username: "leaf." + n + ".1", Bank: bank, Shares: 1, Usage: 30, Active: true},
			AssociationRecord{Username: "leaf." + n + ".2", Bank: bank, Shares: 1, Usage: 20, Active: true},
			AssociationRecord{Username: "leaf." + n + ".3", Bank: bank, Shares: 1, Usage: 10, Active: true},
		)
	}

	tree, err := Load(context.Background(), recs, nil)
	require.NoError(t, err)

	results, err := Walk(tree, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"leaf.1.3", "leaf.2.3", "leaf.3.3",
		"leaf.1.2", "leaf.2.2", "leaf.3.2",
		"leaf.1.1", "leaf.2.1", "leaf.3.1",
	}, names(results))
}

func TestWalk_ZeroSharesEverywhereTie(t *testing.T) {
	recs := &RecordSet{
		Banks: []BankRecord{
			{Name: "root", Parent: "", Shares: 1, Active: true},
			{Name: "bank1", Parent: "root", Shares: 1, Active: true},
		},
		Associations: []AssociationRecord{
			{Username: "a", Bank: "bank1", Shares: 0, Usage: 10, Active: true},
			{Username: "b", Bank: "bank1", Shares: 0, Usage: 20, Active: true},
		},
	}

	tree, err := Load(context.Background(), recs, nil)
	require.NoError(t, err)

	results, err := Walk(tree, nil)
	require.NoError(t, err)

	// Zero shares ties; stable sort preserves insertion (username) order.
	assert.Equal(t, []string{"a", "b"}, names(results))
	assert.Equal(t, results[0].Fairshare, results[1].Fairshare)
}

func TestWalk_ZeroUsageWinsMaxWeight(t *testing.T) {
	recs := &RecordSet{
		Banks: []BankRecord{
			{Name: "root", Parent: "", Shares: 1, Active: true},
			{Name: "bank1", Parent: "root", Shares: 1, Active: true},
		},
		Associations: []AssociationRecord{
			{Username: "busy", Bank: "bank1", Shares: 1, Usage: 1000, Active: true},
			{Username: "idle", Bank: "bank1", Shares: 1, Usage: 0, Active: true},
		},
	}

	tree, err := Load(context.Background(), recs, nil)
	require.NoError(t, err)

	results, err := Walk(tree, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"idle", "busy"}, names(results))
}

func TestWalk_EmptyTreeRootOnly(t *testing.T) {
	recs := &RecordSet{Banks: []BankRecord{
		{Name: "root", Parent: "", Shares: 1, Active: true},
	}}

	tree, err := Load(context.Background(), recs, nil)
	require.NoError(t, err)

	results, err := Walk(tree, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestWalk_ScaleInvariance(t *testing.T) {
	base := func(scale uint64) *RecordSet {
		return &RecordSet{
			Banks: []BankRecord{
				{Name: "root", Parent: "", Shares: 1, Active: true},
				{Name: "bank1", Parent: "root", Shares: 1, Active: true},
			},
			Associations: []AssociationRecord{
				{Username: "a", Bank: "bank1", Shares: 2 * scale, Usage: 10 * scale, Active: true},
				{Username: "b", Bank: "bank1", Shares: 3 * scale, Usage: 5 * scale, Active: true},
			},
		}
	}

	tree1, err := Load(context.Background(), base(1), nil)
	require.NoError(t, err)
	results1, err := Walk(tree1, nil)
	require.NoError(t, err)

	tree2, err := Load(context.Background(), base(10), nil)
	require.NoError(t, err)
	results2, err := Walk(tree2, nil)
	require.NoError(t, err)

	assert.Equal(t, names(results1), names(results2))
}

func TestWeightsEqual(t *testing.T) {
	assert.True(t, weightsEqual(1.0, 1.0))
	assert.True(t, weightsEqual(0.0, 0.0))
	assert.False(t, weightsEqual(1.0, 1.1))
	assert.True(t, weightsEqual(maxWeight, maxWeight))
}
