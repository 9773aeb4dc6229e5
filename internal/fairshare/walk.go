// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package fairshare

import (
	"math"
	"sort"

	"github.com/jontk/fairshare/pkg/errors"
	"github.com/jontk/fairshare/pkg/logging"
)

// epsilon is the smallest representable increment above 1.0, used as the
// relative tolerance for weight-equality comparisons.
var epsilon = math.Nextafter(1, 2) - 1

// weightsEqual reports whether a and b are equal within the combined
// relative/absolute tolerance |a-b| < eps*max(|a|,|b|,1).
func weightsEqual(a, b float64) bool {
	diff := math.Abs(a - b)
	scale := math.Max(math.Max(math.Abs(a), math.Abs(b)), 1)
	return diff < epsilon*scale
}

// LeafResult is one entry of the walk's output: an association's identity
// and its final fairshare value.
type LeafResult struct {
	Username  string
	Bank      string
	Fairshare float64
}

// Walk computes sibling-relative weights across the whole tree, performs a
// tie-aware post-order traversal, and assigns each leaf association a
// fairshare value in (0,1]. It mutates tree (Node.weight, Node.rank,
// Node.Fairshare, Node.children order) and returns the leaves in
// fairshare-descending order.
func Walk(tree *Tree, logger logging.Logger) ([]LeafResult, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	root := tree.Root()
	leafCount := tree.SubtreeLeafSize(root)
	if leafCount == 0 {
		logger.Info("weighted walk produced an empty user list", "nodes", tree.Len())
		return nil, nil
	}

	computeWeights(tree, root)

	w := &walker{tree: tree, rank: uint64(leafCount), leafCount: leafCount}
	if err := w.visit(root); err != nil {
		logger.Error("weighted walk failed", "error", err)
		return nil, err
	}

	sort.SliceStable(w.results, func(i, j int) bool {
		return w.results[i].Fairshare > w.results[j].Fairshare
	})

	logger.Info("weighted walk completed", "leaves", len(w.results))
	return w.results, nil
}

// computeWeights sets Node.weight for every descendant of idx, recursively,
// using the sibling totals at idx's own level of children.
func computeWeights(tree *Tree, idx int) {
	children := tree.Children(idx)
	if len(children) == 0 {
		return
	}

	var sumShares, sumUsage uint64
	for _, c := range children {
		n := tree.Node(c)
		sumShares += n.Shares
		sumUsage += n.Usage
	}

	for _, c := range children {
		n := tree.Node(c)
		n.weight = nodeWeight(n.Shares, n.Usage, sumShares, sumUsage)
		computeWeights(tree, c)
	}
}

// nodeWeight implements the per-node weight formula of the walk: zero shares
// always lose, zero usage saturates to "infinite" priority, otherwise the
// ratio of the node's share of S to its share of U.
func nodeWeight(shares, usage, sumShares, sumUsage uint64) float64 {
	if shares == 0 {
		return 0
	}
	if usage == 0 {
		return maxWeight
	}
	shareFrac := float64(shares) / float64(sumShares)
	usageFrac := float64(usage) / float64(sumUsage)
	return shareFrac / usageFrac
}

// walker carries the post-order rank cursor and accumulated leaf results
// across the recursive tie-aware traversal.
type walker struct {
	tree      *Tree
	rank      uint64
	strideLen uint64
	leafCount int
	results   []LeafResult
}

// visit descends idx's tie-aware children sequence left to right, recursing
// into bank children and emitting user leaves in order.
func (w *walker) visit(idx int) error {
	seq := w.tieAwareChildren(idx)
	w.tree.Node(idx).children = seq
	for _, c := range seq {
		n := w.tree.Node(c)
		if n.IsUser {
			if err := w.emitLeaf(c); err != nil {
				return err
			}
			continue
		}
		if err := w.visit(c); err != nil {
			return err
		}
	}
	return nil
}

// emitLeaf assigns fairshare to the user leaf at idx and advances the rank
// cursor per the walk's stride rules.
func (w *walker) emitLeaf(idx int) error {
	n := w.tree.Node(idx)

	if w.rank == 0 {
		return errors.NewInvariantViolationError(errors.ErrorCodeRankExhausted,
			"weighted walk exhausted available ranks before emitting all leaves")
	}

	n.rank = w.rank
	n.Fairshare = float64(w.rank) / float64(w.leafCount)
	w.results = append(w.results, LeafResult{Username: n.Name, Bank: w.bankOf(idx), Fairshare: n.Fairshare})

	if n.tieWithNext {
		w.strideLen++
	} else {
		w.rank -= 1 + w.strideLen
		w.strideLen = 0
	}
	return nil
}

// bankOf returns the name of idx's parent bank.
func (w *walker) bankOf(idx int) string {
	p := w.tree.Parent(idx)
	if p == noParent {
		return ""
	}
	return w.tree.Node(p).Name
}

// tieAwareChildren returns idx's children sorted by weight descending (ties
// broken user-before-bank, stably), with maximal equal-weight bank runs
// flattened into a single virtual bank whose children are the concatenation
// of the run's direct children, re-sorted by weight.
func (w *walker) tieAwareChildren(idx int) []int {
	children := append([]int(nil), w.tree.Children(idx)...)
	w.sortByWeight(children)

	var out []int
	i := 0
	for i < len(children) {
		j := i
		for j+1 < len(children) && weightsEqual(w.tree.Node(children[j+1]).weight, w.tree.Node(children[i]).weight) {
			j++
		}

		// A stride needs at least the run-head to be a bank and more than
		// one member; otherwise the run passes through unchanged.
		if j > i && !w.tree.Node(children[i]).IsUser {
			out = append(out, w.mergeStride(children[i:j+1]))
		} else {
			for k := i; k <= j; k++ {
				if k < j && w.tree.Node(children[k]).IsUser && w.tree.Node(children[k+1]).IsUser &&
					weightsEqual(w.tree.Node(children[k]).weight, w.tree.Node(children[k+1]).weight) {
					w.tree.Node(children[k]).tieWithNext = true
				}
				out = append(out, children[k])
			}
		}
		i = j + 1
	}
	return out
}

// mergeStride flattens a run of equal-weight sibling banks into a single
// virtual bank node appended to the arena, whose children are the run's
// banks' direct children concatenated and re-sorted by weight. Users
// inside the run are never present here: the caller only invokes
// mergeStride on bank-headed runs, and bank/user weight ties are split
// before reaching this point (see tieAwareChildren).
func (w *walker) mergeStride(run []int) int {
	v := &Node{Name: "<virtual>", IsUser: false, weight: w.tree.Node(run[0]).weight}
	vIdx := len(w.tree.nodes)
	w.tree.nodes = append(w.tree.nodes, v)

	var merged []int
	for _, bankIdx := range run {
		for _, c := range w.tree.Children(bankIdx) {
			merged = append(merged, c)
		}
	}
	w.sortByWeight(merged)
	v.children = merged
	v.parent = w.tree.Parent(run[0])

	leafSize := 0
	for _, c := range merged {
		leafSize += w.tree.SubtreeLeafSize(c)
	}
	v.subtreeLeafSize = leafSize
	v.subtreeSize = 1 + len(merged)

	return vIdx
}

// sortByWeight sorts node indices by weight descending, stably, breaking
// ties by preferring users over banks.
func (w *walker) sortByWeight(idxs []int) {
	sort.SliceStable(idxs, func(i, j int) bool {
		a, b := w.tree.Node(idxs[i]), w.tree.Node(idxs[j])
		if weightsEqual(a.weight, b.weight) {
			if a.IsUser != b.IsUser {
				return a.IsUser
			}
			return false
		}
		return a.weight > b.weight
	})
}
