// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package fairshare builds weighted hierarchies of banks and associations
// and computes per-association fairshare values from accumulated usage.
package fairshare

import "math"

// noParent marks the root node in the arena.
const noParent = -1

// maxWeight is the saturating weight assigned to a zero-usage, non-zero-shares
// node: effectively "infinite" priority among siblings.
const maxWeight = float64(math.MaxUint64) + 1.0

// Node is one element of the weighted tree: a bank (internal) or an
// association (leaf). Nodes live in a Tree's arena and refer to each other
// by index, not pointer, so the tree has no cycles by construction.
type Node struct {
	Name   string
	IsUser bool // true for an association leaf; false for a bank

	Shares     uint64
	Usage      uint64
	Fairshare  float64 // (0,1] once the walk has run; 0 otherwise

	parent   int   // index into Tree.nodes; noParent for the root
	children []int // populated by the loader in load order, reordered by the walk

	weight       float64 // derived by the walk, not persisted
	rank         uint64  // derived by the walk, not persisted
	tieWithNext  bool    // transient, set during the walk's tie-aware pass

	subtreeSize     int // 1 + sum of children's subtreeSize
	subtreeLeafSize int // count of is_user descendants (self if leaf)
}

// Tree is an arena of Nodes rooted at index 0. The arena owns all nodes;
// a Node's parent/children fields are indices into Tree.nodes.
type Tree struct {
	nodes []*Node
}

// NewTree creates an empty tree; the caller adds the root with
// AddNode(noParent, ...).
func NewTree() *Tree {
	return &Tree{nodes: make([]*Node, 0, 64)}
}

// AddNode appends a node to the arena with the given parent index (noParent
// for the root) and returns its index. The parent's children slice is
// updated to include the new node.
func (t *Tree) AddNode(parent int, n *Node) int {
	n.parent = parent
	idx := len(t.nodes)
	t.nodes = append(t.nodes, n)
	if parent >= 0 {
		t.nodes[parent].children = append(t.nodes[parent].children, idx)
	}
	return idx
}

// Root returns the root node's index. A freshly constructed tree is empty
// until the loader adds the root via AddNode(noParent, ...).
func (t *Tree) Root() int { return 0 }

// Node returns the node at the given index.
func (t *Tree) Node(idx int) *Node { return t.nodes[idx] }

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int { return len(t.nodes) }

// Children returns the child indices of the node at idx.
func (t *Tree) Children(idx int) []int { return t.nodes[idx].children }

// Parent returns the parent index of the node at idx, or noParent for the
// root.
func (t *Tree) Parent(idx int) int { return t.nodes[idx].parent }

// AddUsage adds delta to the usage of the node at idx.
func (t *Tree) AddUsage(idx int, delta uint64) { t.nodes[idx].Usage += delta }

// PropagateUsage walks from idx to the root, adding delta to every proper
// ancestor's usage. It does not touch idx itself: callers add the leaf's
// own usage separately, then propagate from the leaf's parent.
func (t *Tree) PropagateUsage(idx int, delta uint64) {
	for p := t.nodes[idx].parent; p != noParent; p = t.nodes[p].parent {
		t.nodes[p].Usage += delta
	}
}

// RecomputeSizes fills in subtreeSize and subtreeLeafSize for every node in
// the arena via a single bottom-up pass. The arena is built depth-first so a
// simple reverse scan visits every node after all of its children.
func (t *Tree) RecomputeSizes() {
	for i := len(t.nodes) - 1; i >= 0; i-- {
		n := t.nodes[i]
		size := 1
		leafSize := 0
		if n.IsUser {
			leafSize = 1
		}
		for _, c := range n.children {
			size += t.nodes[c].subtreeSize
			leafSize += t.nodes[c].subtreeLeafSize
		}
		n.subtreeSize = size
		n.subtreeLeafSize = leafSize
	}
}

// SubtreeSize returns 1 + the sum of all descendants' SubtreeSize.
func (t *Tree) SubtreeSize(idx int) int { return t.nodes[idx].subtreeSize }

// SubtreeLeafSize returns the count of is_user descendants (self if idx is a
// leaf).
func (t *Tree) SubtreeLeafSize(idx int) int { return t.nodes[idx].subtreeLeafSize }
