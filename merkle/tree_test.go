package merkle

import (
	"encoding/hex"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/frankonly/uptree/crypto"
)

// leafDigests canonicalizes and digests raw string values the way API
// callers are expected to before calling Build.
func leafDigests(t *testing.T, values ...string) [][]byte {
	t.Helper()

	leaves := make([][]byte, len(values))
	for i, value := range values {
		canonical, err := crypto.Canonical(value)
		require.NoError(t, err)
		leaves[i] = crypto.Hash(canonical)
	}

	return leaves
}

func canonical(t *testing.T, value string) []byte {
	t.Helper()

	encoded, err := crypto.Canonical(value)
	require.NoError(t, err)
	return encoded
}

func randomDigests(n int) [][]byte {
	leaves := make([][]byte, n)
	for i := range leaves {
		leaves[i] = make([]byte, crypto.DigestSize)
		rand.Read(leaves[i])
	}

	return leaves
}

func TestBuildDeterminism(t *testing.T) {
	r := require.New(t)

	leaves := randomDigests(12)

	first := New(crypto.SHA256{})
	first.Build(leaves)
	second := New(crypto.SHA256{})
	second.Build(leaves)

	rootFirst, err := first.Root()
	r.NoError(err)
	rootSecond, err := second.Root()
	r.NoError(err)
	r.Equal(rootFirst, rootSecond)

	// rebuilding replaces prior state and lands on the same root
	first.Build(leaves)
	rootAgain, err := first.Root()
	r.NoError(err)
	r.Equal(rootFirst, rootAgain)
}

func TestEmptyTree(t *testing.T) {
	r := require.New(t)

	tree := New(crypto.SHA256{})

	_, err := tree.Root()
	r.ErrorIs(err, ErrEmptyTree)
	r.Zero(tree.LeafCount())
	r.Zero(tree.Depth())

	err = tree.Update(0, []byte(`"value"`))
	r.ErrorIs(err, ErrOutOfRange)

	// building from zero leaves resets to the empty state
	tree.Build(randomDigests(4))
	tree.Build(nil)
	_, err = tree.Root()
	r.ErrorIs(err, ErrEmptyTree)
}

func TestSingleLeaf(t *testing.T) {
	r := require.New(t)

	leaf := crypto.Hash([]byte(`"data1"`))

	tree := New(crypto.SHA256{})
	tree.Build([][]byte{leaf})

	root, err := tree.Root()
	r.NoError(err)
	r.Equal(leaf, root)
	r.Equal(1, tree.Depth())
	r.Equal(1, tree.LeafCount())
}

func TestOddLayerDuplication(t *testing.T) {
	r := require.New(t)

	leaves := leafDigests(t, "data1", "data2", "data3")

	tree := New(crypto.SHA256{})
	tree.Build(leaves)
	r.Equal(2, tree.Depth())

	expected := crypto.HashNodes(
		crypto.HashNodes(leaves[0], leaves[1]),
		crypto.HashNodes(leaves[2], leaves[2]),
	)

	root, err := tree.Root()
	r.NoError(err)
	r.Equal(expected, root)
	r.Equal("0bce7969b2b3633097e04568ff7d8212708d8ec793cf6faf39958f6e02d3a44f",
		hex.EncodeToString(root))
}

func TestConsecutiveOddLayers(t *testing.T) {
	r := require.New(t)

	// 5 leaves layer out as 5 -> 3 -> 2 -> 1, with self-pairing at two
	// consecutive derivations.
	leaves := leafDigests(t, "data1", "data2", "data3", "data4", "data5")

	tree := New(crypto.SHA256{})
	tree.Build(leaves)
	r.Equal(4, tree.Depth())

	n1 := crypto.HashNodes(leaves[0], leaves[1])
	n2 := crypto.HashNodes(leaves[2], leaves[3])
	n3 := crypto.HashNodes(leaves[4], leaves[4])
	expected := crypto.HashNodes(crypto.HashNodes(n1, n2), crypto.HashNodes(n3, n3))

	root, err := tree.Root()
	r.NoError(err)
	r.Equal(expected, root)
	r.Equal("01c4c1219f57762d310716631fcd1e399204c9e3d1ff19e3131e2767f7510100",
		hex.EncodeToString(root))
}

func TestUpdateSensitivityAndReversibility(t *testing.T) {
	r := require.New(t)

	tree := New(crypto.SHA256{})
	tree.Build(leafDigests(t, "data1", "data2", "data3", "data4"))

	original, err := tree.Root()
	r.NoError(err)
	r.Equal("eb8dfc27d5d5be47104c7a47cc7815f2be8a2ac7b0e2d0736b25cc66d6dfae42",
		hex.EncodeToString(original))

	r.NoError(tree.Update(0, canonical(t, "new_data1")))
	updated, err := tree.Root()
	r.NoError(err)
	r.NotEqual(original, updated)
	r.Equal("b1c600e60d813a606ad73caa4366f9c2a8d515e1c4b1f23f832ef3789cdc1b87",
		hex.EncodeToString(updated))

	r.NoError(tree.Update(0, canonical(t, "data1")))
	reverted, err := tree.Root()
	r.NoError(err)
	r.Equal(original, reverted)
}

// TestUpdateMatchesRebuild checks that updating any single leaf lands on the
// exact root a full rebuild with the modified leaf set produces, across tree
// shapes with unpaired trailing nodes on several layers. In particular the
// 5-leaf shape at index 2 pins that an odd, non-last ancestor is derived
// from the same pair as an even one.
func TestUpdateMatchesRebuild(t *testing.T) {
	r := require.New(t)

	hasher := crypto.SHA256{}

	for _, size := range []int{1, 2, 3, 4, 5, 6, 7, 11} {
		values := make([][]byte, size)
		leaves := make([][]byte, size)
		for i := range values {
			values[i] = []byte(fmt.Sprintf("value-%d-%d", size, i))
			leaves[i] = hasher.Leaf(values[i])
		}

		for index := 0; index < size; index++ {
			updated := New(hasher)
			updated.Build(leaves)

			newValue := []byte(fmt.Sprintf("changed-%d-%d", size, index))
			r.NoError(updated.Update(index, newValue))

			rebuilt := New(hasher)
			modified := make([][]byte, size)
			copy(modified, leaves)
			modified[index] = hasher.Leaf(newValue)
			rebuilt.Build(modified)

			updatedRoot, err := updated.Root()
			r.NoError(err)
			rebuiltRoot, err := rebuilt.Root()
			r.NoError(err)
			r.Equal(rebuiltRoot, updatedRoot, "size %d index %d", size, index)
		}
	}
}

func TestUpdateOutOfRange(t *testing.T) {
	r := require.New(t)

	tree := New(crypto.SHA256{})
	tree.Build(leafDigests(t, "data1", "data2", "data3", "data4"))

	before, err := tree.Root()
	r.NoError(err)

	r.ErrorIs(tree.Update(-1, canonical(t, "x")), ErrOutOfRange)
	r.ErrorIs(tree.Update(4, canonical(t, "x")), ErrOutOfRange)

	after, err := tree.Root()
	r.NoError(err)
	r.Equal(before, after)

	for i := 0; i < 4; i++ {
		leaf, err := tree.Leaf(i)
		r.NoError(err)
		r.Equal(leafDigests(t, "data1", "data2", "data3", "data4")[i], leaf)
	}
}

func TestLeafOwnership(t *testing.T) {
	r := require.New(t)

	leaves := leafDigests(t, "data1", "data2")

	tree := New(crypto.SHA256{})
	tree.Build(leaves)

	before, err := tree.Root()
	r.NoError(err)

	// mutating the caller's slice or a returned copy never reaches the tree
	leaves[0][0] ^= 0xff
	leaf, err := tree.Leaf(0)
	r.NoError(err)
	leaf[0] ^= 0xff

	after, err := tree.Root()
	r.NoError(err)
	r.Equal(before, after)

	_, err = tree.Leaf(2)
	r.ErrorIs(err, ErrOutOfRange)
	_, err = tree.Leaf(-1)
	r.ErrorIs(err, ErrOutOfRange)
}
