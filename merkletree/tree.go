// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package merkletree implements the append-only binary Merkle tree used
// for both the note commitment tree and the nullifier tree (spec §4.2).
// It is parameterized over <Element, Hasher> the way the spec's design
// note §9 asks generic value encoders to become Go interfaces/generics.
package merkletree

import (
	"errors"
	"fmt"

	"github.com/iron-fish/go-ironfish/chainhash"
)

// ErrTreeFull is returned by Append once the tree has reached its
// configured depth's leaf capacity (spec §8 boundary behavior).
var ErrTreeFull = errors.New("merkletree: tree is full")

// Hasher computes leaf and interior node hashes for a tree of elements of
// type E. Leaf/Combine/Empty are delegated to the CryptoProvider in
// production (spec §3, §6); this package only orchestrates the shape.
type Hasher[E any] interface {
	HashLeaf(e E) chainhash.Hash
	Combine(depth int, left, right chainhash.Hash) chainhash.Hash
	Empty(depth int) chainhash.Hash
}

// NodeStore persists a tree's materialized nodes and its current size,
// the seam package storage's Transaction is adapted to from package
// blockchain so that tree appends are atomic with the rest of a block's
// connect (spec §4.2, §5).
type NodeStore interface {
	GetNode(depth int, index uint64) (chainhash.Hash, bool, error)
	PutNode(depth int, index uint64, h chainhash.Hash) error
	DeleteNode(depth int, index uint64) error
	GetSize() (uint64, error)
	SetSize(size uint64) error
}

// AuthPath is the authentication path proving a leaf's inclusion at a
// specific tree size (spec §4.2 "witness", glossary "Witness /
// Authentication path").
type AuthPath struct {
	Siblings []chainhash.Hash
	Root     chainhash.Hash
	TreeSize uint64
}

// Tree is a depth-D append-only binary Merkle tree over elements of type
// E, backed by a NodeStore. Depth is fixed per instance; production trees
// use depth 32 (spec §4.2).
type Tree[E any] struct {
	depth  int
	hasher Hasher[E]
	store  NodeStore
}

// New constructs a Tree. depth must be at least 1; production callers
// pass 32.
func New[E any](depth int, hasher Hasher[E], store NodeStore) (*Tree[E], error) {
	if depth < 1 {
		return nil, fmt.Errorf("merkletree: depth must be >= 1, got %d", depth)
	}
	return &Tree[E]{depth: depth, hasher: hasher, store: store}, nil
}

// capacity is the maximum number of leaves a depth-D tree can hold.
func (t *Tree[E]) capacity() uint64 {
	if t.depth >= 63 {
		return ^uint64(0)
	}
	return uint64(1) << uint(t.depth)
}

// Size returns the current number of appended leaves.
func (t *Tree[E]) Size() (uint64, error) {
	return t.store.GetSize()
}

// Append computes leaf = hasher.HashLeaf(element), writes the new leaf
// node, and recomputes the dirty right spine up to the root (spec §4.2).
// It returns the index the element was appended at.
func (t *Tree[E]) Append(element E) (uint64, error) {
	size, err := t.store.GetSize()
	if err != nil {
		return 0, err
	}
	if size >= t.capacity() {
		return 0, ErrTreeFull
	}

	index := size
	leaf := t.hasher.HashLeaf(element)
	if err := t.store.PutNode(0, index, leaf); err != nil {
		return 0, err
	}

	// Recompute every dirty interior node along the path from the new
	// leaf to the root. A node at (depth, idx) is dirty whenever its left
	// child is the new leaf's ancestor; its right child may be absent, in
	// which case we substitute the depth-indexed empty hash (spec §4.2).
	childIndex := index
	childHash := leaf
	for depth := 1; depth <= t.depth; depth++ {
		parentIndex := childIndex / 2
		var left, right chainhash.Hash
		if childIndex%2 == 0 {
			left = childHash
			sibling, ok, err := t.store.GetNode(depth-1, childIndex+1)
			if err != nil {
				return 0, err
			}
			if ok {
				right = sibling
			} else {
				right = t.hasher.Empty(depth - 1)
			}
		} else {
			sibling, ok, err := t.store.GetNode(depth-1, childIndex-1)
			if err != nil {
				return 0, err
			}
			if !ok {
				return 0, fmt.Errorf("merkletree: missing left sibling at depth %d index %d", depth-1, childIndex-1)
			}
			left = sibling
			right = childHash
		}
		parentHash := t.hasher.Combine(depth, left, right)
		if err := t.store.PutNode(depth, parentIndex, parentHash); err != nil {
			return 0, err
		}
		childIndex = parentIndex
		childHash = parentHash
	}

	if err := t.store.SetSize(size + 1); err != nil {
		return 0, err
	}
	return index, nil
}

// Truncate removes every leaf with index >= size and garbage-collects the
// interior nodes that only ever summarized them. It is idempotent: calling
// Truncate with a size at or above the current size is a no-op (spec
// §4.2).
func (t *Tree[E]) Truncate(size uint64) error {
	current, err := t.store.GetSize()
	if err != nil {
		return err
	}
	if size >= current {
		return nil
	}

	// At each depth, any node index >= ceil(size / 2^depth) is orphaned:
	// it was only ever needed to summarize leaves beyond the new size.
	for depth := 0; depth <= t.depth; depth++ {
		firstOrphan := ceilDiv(size, uint64(1)<<uint(depth))
		lastNeeded := ceilDiv(current, uint64(1)<<uint(depth))
		for idx := firstOrphan; idx < lastNeeded; idx++ {
			if _, ok, err := t.store.GetNode(depth, idx); err != nil {
				return err
			} else if ok {
				if err := t.store.DeleteNode(depth, idx); err != nil {
					return err
				}
			}
		}
	}

	// Recompute the spine above the new rightmost leaf so root/witness
	// calculations at the truncated size stay internally consistent.
	if size > 0 {
		childIndex := size - 1
		for depth := 1; depth <= t.depth; depth++ {
			parentIndex := childIndex / 2
			left, leftOK, err := t.store.GetNode(depth-1, parentIndex*2)
			if err != nil {
				return err
			}
			var leftHash chainhash.Hash
			if leftOK {
				leftHash = left
			} else {
				leftHash = t.hasher.Empty(depth - 1)
			}
			right, rightOK, err := t.store.GetNode(depth-1, parentIndex*2+1)
			if err != nil {
				return err
			}
			var rightHash chainhash.Hash
			if rightOK {
				rightHash = right
			} else {
				rightHash = t.hasher.Empty(depth - 1)
			}
			parentHash := t.hasher.Combine(depth, leftHash, rightHash)
			if err := t.store.PutNode(depth, parentIndex, parentHash); err != nil {
				return err
			}
			childIndex = parentIndex
		}
	}

	return t.store.SetSize(size)
}

func ceilDiv(a, b uint64) uint64 {
	if a == 0 {
		return 0
	}
	return (a-1)/b + 1
}

// RootHash returns the root at the given tree size, or the current size
// if size is nil. A size other than the tree's current size is
// reconstructed from stored nodes rather than read off (depth, 0)
// directly: Append only ever rewrites nodes on the path from the newest
// leaf to the root, so a node whose whole leaf range already lies behind
// the requested size is immutable and can be read straight from the
// store, while a node straddling the requested size is recombined from
// its children (spec §4.2's rootHash(size?) contract).
func (t *Tree[E]) RootHash(size *uint64) (chainhash.Hash, error) {
	target, err := t.resolveSize(size)
	if err != nil {
		return chainhash.Hash{}, err
	}
	if target == 0 {
		return t.hasher.Empty(t.depth), nil
	}
	current, err := t.store.GetSize()
	if err != nil {
		return chainhash.Hash{}, err
	}
	if target > current {
		return chainhash.Hash{}, fmt.Errorf("merkletree: requested size %d exceeds current tree size %d", target, current)
	}
	if target == current {
		return t.nodeOrEmpty(t.depth, 0)
	}
	return t.historicalNode(t.depth, 0, target)
}

// historicalNode returns the hash of the node at (depth, index) as of a
// tree that had only ever seen `target` leaves appended. A node's leaf
// range [index*2^depth, (index+1)*2^depth) lying entirely below target
// is complete and stable, so it is read directly; a range lying entirely
// at or above target has never been written and is the depth-indexed
// empty hash; a range straddling target is recombined from its two
// children, recursing only along the single straddling branch at each
// level.
func (t *Tree[E]) historicalNode(depth int, index uint64, target uint64) (chainhash.Hash, error) {
	span := uint64(1) << uint(depth)
	start := index * span
	if start >= target {
		return t.hasher.Empty(depth), nil
	}
	if start+span <= target {
		return t.nodeOrEmpty(depth, index)
	}

	left, err := t.historicalNode(depth-1, index*2, target)
	if err != nil {
		return chainhash.Hash{}, err
	}
	right, err := t.historicalNode(depth-1, index*2+1, target)
	if err != nil {
		return chainhash.Hash{}, err
	}
	return t.hasher.Combine(depth, left, right), nil
}

func (t *Tree[E]) resolveSize(size *uint64) (uint64, error) {
	if size != nil {
		return *size, nil
	}
	return t.store.GetSize()
}

func (t *Tree[E]) nodeOrEmpty(depth int, index uint64) (chainhash.Hash, error) {
	h, ok, err := t.store.GetNode(depth, index)
	if err != nil {
		return chainhash.Hash{}, err
	}
	if ok {
		return h, nil
	}
	return t.hasher.Empty(depth), nil
}

// Witness returns the authentication path for the leaf at index, computed
// against the tree's current materialized state. Per spec §4.2, the
// witness stays verifiable against (rootHash, treeSize) even after the
// tree has since grown, because the left subtree containing index is
// immutable once written.
func (t *Tree[E]) Witness(index uint64) (*AuthPath, error) {
	size, err := t.store.GetSize()
	if err != nil {
		return nil, err
	}
	if index >= size {
		return nil, fmt.Errorf("merkletree: index %d out of range for tree of size %d", index, size)
	}

	siblings := make([]chainhash.Hash, 0, t.depth)
	idx := index
	for depth := 0; depth < t.depth; depth++ {
		siblingIndex := idx ^ 1
		sibling, err := t.nodeOrEmpty(depth, siblingIndex)
		if err != nil {
			return nil, err
		}
		siblings = append(siblings, sibling)
		idx /= 2
	}

	root, err := t.nodeOrEmpty(t.depth, 0)
	if err != nil {
		return nil, err
	}

	return &AuthPath{Siblings: siblings, Root: root, TreeSize: size}, nil
}

// Verify checks that element, appended at leafIndex, is consistent with
// path — the quantified Merkle witness verification law of spec §8
// property 6. leafIndex must be derivable by the caller (it is recorded
// alongside the note/nullifier index in the owning store).
func Verify[E any](hasher Hasher[E], leafIndex uint64, element E, path *AuthPath) bool {
	current := hasher.HashLeaf(element)
	idx := leafIndex
	for depth := 0; depth < len(path.Siblings); depth++ {
		sibling := path.Siblings[depth]
		if idx%2 == 0 {
			current = hasher.Combine(depth+1, current, sibling)
		} else {
			current = hasher.Combine(depth+1, sibling, current)
		}
		idx /= 2
	}
	return current == path.Root
}
