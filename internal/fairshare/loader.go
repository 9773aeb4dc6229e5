// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package fairshare

import (
	"context"
	"fmt"
	"sort"

	"github.com/jontk/fairshare/internal/fairshare/store"
	"github.com/jontk/fairshare/pkg/errors"
	"github.com/jontk/fairshare/pkg/logging"
)

// BankRecord is one row of the bank_table: a named node with a parent bank
// (empty for the root), a share allocation, and an active flag.
type BankRecord = store.BankRecord

// AssociationRecord is one row of the association_table: a (username, bank)
// leaf with shares, accumulated usage, and an active flag.
type AssociationRecord = store.AssociationRecord

// RecordSet is the typed record set the Loader reads from the accounting
// store: every bank and every association, regardless of hierarchy.
type RecordSet = store.RecordSet

// Load builds a Tree from recs, rooted at the unique bank whose Parent is
// empty. It fails with ErrorCodeRootMissing if there is zero or more than
// one such bank, and with ErrorCodeMissingParent if a bank or association
// references a parent that is not present (or not active) in recs.
//
// The walk is depth-first from the root: a bank's children are its active
// child banks in lexical order if any exist, otherwise its active
// associations ordered by username. After descending a subtree, its
// accumulated usage is added to every proper ancestor, so a leaf's usage
// contributes to every ancestor bank exactly once.
func Load(ctx context.Context, recs *RecordSet, logger logging.Logger) (*Tree, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	rootName, err := findRoot(recs.Banks)
	if err != nil {
		logger.Error("hierarchy load failed", "error", err)
		return nil, err
	}

	childBanks := make(map[string][]BankRecord)
	bankByName := make(map[string]BankRecord)
	for _, b := range recs.Banks {
		if !b.Active {
			continue
		}
		bankByName[b.Name] = b
		if b.Name == rootName {
			continue
		}
		childBanks[b.Parent] = append(childBanks[b.Parent], b)
	}
	for _, b := range recs.Banks {
		if _, ok := bankByName[b.Parent]; b.Active && b.Name != rootName && !ok {
			err := errors.NewConfigError(errors.ErrorCodeMissingParent, fmt.Sprintf("bank %q references parent %q, which is absent or inactive", b.Name, b.Parent), nil)
			logger.Error("hierarchy load failed", "error", err)
			return nil, err
		}
	}
	for _, a := range recs.Associations {
		if _, ok := bankByName[a.Bank]; a.Active && !ok {
			err := errors.NewConfigError(errors.ErrorCodeMissingParent, fmt.Sprintf("association %q references bank %q, which is absent or inactive", a.Username, a.Bank), nil)
			logger.Error("hierarchy load failed", "error", err)
			return nil, err
		}
	}
	for parent := range childBanks {
		sort.Slice(childBanks[parent], func(i, j int) bool {
			return childBanks[parent][i].Name < childBanks[parent][j].Name
		})
	}

	assocByBank := make(map[string][]AssociationRecord)
	for _, a := range recs.Associations {
		if !a.Active {
			continue
		}
		assocByBank[a.Bank] = append(assocByBank[a.Bank], a)
	}
	for bank := range assocByBank {
		sort.Slice(assocByBank[bank], func(i, j int) bool {
			return assocByBank[bank][i].Username < assocByBank[bank][j].Username
		})
	}

	tree := NewTree()
	root, ok := bankByName[rootName]
	if !ok {
		err := errors.NewConfigError(errors.ErrorCodeRootMissing,
			fmt.Sprintf("root bank %q is not active", rootName), nil)
		logger.Error("hierarchy load failed", "error", err)
		return nil, err
	}
	rootIdx := tree.AddNode(noParent, &Node{Name: root.Name, IsUser: false, Shares: root.Shares})

	if err := loadSubtree(tree, rootIdx, root.Name, childBanks, assocByBank); err != nil {
		logger.Error("hierarchy load failed", "error", err)
		return nil, err
	}

	tree.RecomputeSizes()
	logger.Info("hierarchy loaded",
		"nodes", tree.Len(),
		"associations", tree.SubtreeLeafSize(tree.Root()))
	return tree, nil
}

// loadSubtree populates idx's children, recursively for bank children or
// directly for association leaves. Each leaf propagates its own usage to
// every proper ancestor as it is added, so a leaf's usage contributes to
// every ancestor bank exactly once regardless of tree depth.
func loadSubtree(tree *Tree, idx int, bankName string, childBanks map[string][]BankRecord, assocByBank map[string][]AssociationRecord) error {
	if kids := childBanks[bankName]; len(kids) > 0 {
		for _, b := range kids {
			childIdx := tree.AddNode(idx, &Node{Name: b.Name, IsUser: false, Shares: b.Shares})
			if err := loadSubtree(tree, childIdx, b.Name, childBanks, assocByBank); err != nil {
				return err
			}
		}
		return nil
	}

	for _, a := range assocByBank[bankName] {
		leafIdx := tree.AddNode(idx, &Node{
			Name:      a.Username,
			IsUser:    true,
			Shares:    a.Shares,
			Usage:     a.Usage,
			Fairshare: a.Fairshare,
		})
		tree.PropagateUsage(leafIdx, a.Usage)
	}
	return nil
}

// findRoot returns the name of the unique active bank whose Parent is
// empty, failing if there is zero or more than one.
func findRoot(banks []BankRecord) (string, error) {
	var root string
	count := 0
	for _, b := range banks {
		if b.Active && b.Parent == "" {
			root = b.Name
			count++
		}
	}
	if count == 0 {
		return "", errors.NewConfigError(errors.ErrorCodeRootMissing, "no root bank found (expected exactly one bank with an empty parent)", nil)
	}
	if count > 1 {
		return "", errors.NewConfigError(errors.ErrorCodeRootMissing, fmt.Sprintf("found %d root banks, expected exactly one", count), nil)
	}
	return root, nil
}
