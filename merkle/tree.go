// Package merkle maintains a binary hash tree over an ordered sequence of
// leaf digests, exposing a single root digest and incremental single-leaf
// updates.
package merkle

import "fmt"

var (
	ErrEmptyTree  = fmt.Errorf("empty tree")
	ErrOutOfRange = fmt.Errorf("out of range")
)

// Hasher digests raw leaf values and pairs of child digests. Leaf receives
// an already canonicalized value. Nodes digests left || right in that order;
// it is not commutative. Implementations must be deterministic and stateless.
type Hasher interface {
	Leaf(value []byte) []byte
	Nodes(left, right []byte) []byte
}

// Tree is a layered merkle binary tree. Layer 0 holds the leaf digests and
// every following layer pairs the one below, duplicating a trailing unpaired
// node, until a single root digest remains. The tree owns all of its nodes;
// accessors hand out copies.
//
// A Tree is not safe for concurrent use. Callers that share one instance
// must serialize access themselves.
type Tree struct {
	hasher Hasher
	layers [][][]byte
}

// New returns an empty tree digesting with hasher.
func New(hasher Hasher) *Tree {
	return &Tree{hasher: hasher}
}

// Build populates the tree from pre-computed leaf digests, replacing any
// prior state. An empty slice leaves the tree empty; a single leaf becomes
// the root itself without any hashing.
func (t *Tree) Build(leaves [][]byte) {
	if len(leaves) == 0 {
		t.layers = nil
		return
	}

	layer := make([][]byte, len(leaves))
	for i, leaf := range leaves {
		layer[i] = append([]byte(nil), leaf...)
	}
	t.layers = [][][]byte{layer}

	for len(layer) > 1 {
		next := make([][]byte, 0, (len(layer)+1)/2)

		for i := 0; i < len(layer); i += 2 {
			if i+1 < len(layer) {
				next = append(next, t.hasher.Nodes(layer[i], layer[i+1]))
			} else {
				// odd length, the trailing node pairs with itself
				next = append(next, t.hasher.Nodes(layer[i], layer[i]))
			}
		}

		t.layers = append(t.layers, next)
		layer = next
	}
}

// Root returns the digest at the top of the tree.
func (t *Tree) Root() ([]byte, error) {
	if len(t.layers) == 0 {
		return nil, ErrEmptyTree
	}

	top := t.layers[len(t.layers)-1]
	return append([]byte(nil), top[0]...), nil
}

// Leaf returns the digest stored for the leaf at index.
func (t *Tree) Leaf(index int) ([]byte, error) {
	if len(t.layers) == 0 || index < 0 || index >= len(t.layers[0]) {
		return nil, fmt.Errorf("%w: leaf %d", ErrOutOfRange, index)
	}

	return append([]byte(nil), t.layers[0][index]...), nil
}

// LeafCount returns the number of leaves the tree was built from.
func (t *Tree) LeafCount() int {
	if len(t.layers) == 0 {
		return 0
	}

	return len(t.layers[0])
}

// Depth returns the number of layers.
func (t *Tree) Depth() int {
	return len(t.layers)
}

// Update re-digests the leaf at index from the canonicalized raw value and
// recomputes every ancestor on its path to the root, leaving all other nodes
// untouched. The bounds check runs before any mutation, so a failed update
// leaves the tree exactly as it was.
func (t *Tree) Update(index int, value []byte) error {
	if len(t.layers) == 0 || index < 0 || index >= len(t.layers[0]) {
		return fmt.Errorf("%w: leaf %d", ErrOutOfRange, index)
	}

	t.layers[0][index] = t.hasher.Leaf(value)

	for i := 1; i < len(t.layers); i++ {
		node := index >> uint(i)
		left := node * 2
		right := left + 1
		below := t.layers[i-1]

		// The only branch that matters is whether the right child exists
		// in the layer below; the ancestor's own parity never changes the
		// pair it is derived from.
		if right >= len(below) {
			t.layers[i][node] = t.hasher.Nodes(below[left], below[left])
		} else {
			t.layers[i][node] = t.hasher.Nodes(below[left], below[right])
		}
	}

	return nil
}
