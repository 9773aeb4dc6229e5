// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package fairshare

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jontk/fairshare/pkg/errors"
)

func TestLoad_SimpleHierarchy(t *testing.T) {
	recs := &RecordSet{
		Banks: []BankRecord{
			{Name: "root", Parent: "", Shares: 1, Active: true},
			{Name: "bankA", Parent: "root", Shares: 1, Active: true},
			{Name: "bankB", Parent: "root", Shares: 1, Active: true},
		},
		Associations: []AssociationRecord{
			{Username: "alice", Bank: "bankA", Shares: 1, Usage: 10, Active: true},
			{Username: "bob", Bank: "bankB", Shares: 1, Usage: 20, Active: true},
		},
	}

	tree, err := Load(context.Background(), recs, nil)
	require.NoError(t, err)
	require.NotNil(t, tree)

	root := tree.Node(tree.Root())
	assert.Equal(t, "root", root.Name)
	assert.Equal(t, uint64(30), root.Usage)
	assert.Equal(t, 5, tree.Len())
	assert.Equal(t, 5, tree.SubtreeSize(tree.Root()))
	assert.Equal(t, 2, tree.SubtreeLeafSize(tree.Root()))
}

func TestLoad_NoRootFails(t *testing.T) {
	recs := &RecordSet{
		Banks: []BankRecord{
			{Name: "bankA", Parent: "bankB", Shares: 1, Active: true},
		},
	}

	_, err := Load(context.Background(), recs, nil)
	require.Error(t, err)
	var fsErr *errors.FairshareError
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, errors.ErrorCodeRootMissing, fsErr.Code)
}

func TestLoad_DuplicateRootFails(t *testing.T) {
	recs := &RecordSet{
		Banks: []BankRecord{
			{Name: "root1", Parent: "", Shares: 1, Active: true},
			{Name: "root2", Parent: "", Shares: 1, Active: true},
		},
	}

	_, err := Load(context.Background(), recs, nil)
	require.Error(t, err)
	var fsErr *errors.FairshareError
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, errors.ErrorCodeRootMissing, fsErr.Code)
}

func TestLoad_InactiveBanksAndAssociationsExcluded(t *testing.T) {
	recs := &RecordSet{
		Banks: []BankRecord{
			{Name: "root", Parent: "", Shares: 1, Active: true},
			{Name: "bankA", Parent: "root", Shares: 1, Active: true},
			{Name: "bankB", Parent: "root", Shares: 1, Active: false},
		},
		Associations: []AssociationRecord{
			{Username: "alice", Bank: "bankA", Shares: 1, Usage: 5, Active: true},
			{Username: "carol", Bank: "bankA", Shares: 1, Usage: 99, Active: false},
		},
	}

	tree, err := Load(context.Background(), recs, nil)
	require.NoError(t, err)

	root := tree.Node(tree.Root())
	assert.Equal(t, uint64(5), root.Usage)
	assert.Equal(t, 1, tree.SubtreeLeafSize(tree.Root()))
}

func TestLoad_UsagePropagatesToAllAncestors(t *testing.T) {
	recs := &RecordSet{
		Banks: []BankRecord{
			{Name: "root", Parent: "", Shares: 1, Active: true},
			{Name: "mid", Parent: "root", Shares: 1, Active: true},
			{Name: "leafBank", Parent: "mid", Shares: 1, Active: true},
		},
		Associations: []AssociationRecord{
			{Username: "alice", Bank: "leafBank", Shares: 1, Usage: 7, Active: true},
		},
	}

	tree, err := Load(context.Background(), recs, nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(7), tree.Node(tree.Root()).Usage)

	midIdx := tree.Children(tree.Root())[0]
	assert.Equal(t, uint64(7), tree.Node(midIdx).Usage)

	leafBankIdx := tree.Children(midIdx)[0]
	assert.Equal(t, uint64(7), tree.Node(leafBankIdx).Usage)
}

func TestLoad_EmptyTreeRootOnly(t *testing.T) {
	recs := &RecordSet{
		Banks: []BankRecord{
			{Name: "root", Parent: "", Shares: 1, Active: true},
		},
	}

	tree, err := Load(context.Background(), recs, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Len())
	assert.Equal(t, 0, tree.SubtreeLeafSize(tree.Root()))
}
