package chain

import (
	"testing"

	"github.com/dmills/btcnode/internal/bchash"
	"github.com/stretchr/testify/require"
)

func TestMerkleRootSingleLeaf(t *testing.T) {
	leaf := [32]byte{1, 2, 3}
	require.Equal(t, leaf, MerkleRoot([][32]byte{leaf}))
}

func TestMerkleRootEmpty(t *testing.T) {
	require.Equal(t, [32]byte{}, MerkleRoot(nil))
}

func TestMerkleRootTwoLeaves(t *testing.T) {
	a, b := [32]byte{1}, [32]byte{2}
	var buf [64]byte
	copy(buf[:32], a[:])
	copy(buf[32:], b[:])
	want := bchash.DoubleSHA256(buf[:])

	require.Equal(t, want, MerkleRoot([][32]byte{a, b}))
}

func TestMerkleRootOddCountDuplicatesTrailingLeaf(t *testing.T) {
	a, b, c := [32]byte{1}, [32]byte{2}, [32]byte{3}
	// Three leaves: level 1 pairs (a,b) and (c,c); level 2 pairs the two results.
	var ab, cc [64]byte
	copy(ab[:32], a[:])
	copy(ab[32:], b[:])
	copy(cc[:32], c[:])
	copy(cc[32:], c[:])
	hab := bchash.DoubleSHA256(ab[:])
	hcc := bchash.DoubleSHA256(cc[:])

	var top [64]byte
	copy(top[:32], hab[:])
	copy(top[32:], hcc[:])
	want := bchash.DoubleSHA256(top[:])

	require.Equal(t, want, MerkleRoot([][32]byte{a, b, c}))
}

func TestMerkleRootDeterministicAndOrderSensitive(t *testing.T) {
	a, b, c := [32]byte{1}, [32]byte{2}, [32]byte{3}
	r1 := MerkleRoot([][32]byte{a, b, c})
	r2 := MerkleRoot([][32]byte{a, b, c})
	r3 := MerkleRoot([][32]byte{b, a, c})

	require.Equal(t, r1, r2)
	require.NotEqual(t, r1, r3)
}
