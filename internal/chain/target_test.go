package chain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandTargetKnownCompact(t *testing.T) {
	// 0x1d00ffff is the mainnet genesis/difficulty-1 target:
	// 0x00ffff * 2^(8*(0x1d-3)) = 0xffff << 208.
	got := ExpandTarget(0x1d00ffff)
	want := new(big.Int).Lsh(big.NewInt(0xffff), 208)
	require.Equal(t, 0, got.Cmp(want))
}

func TestExpandTargetSmallExponent(t *testing.T) {
	// compact 0x02008000: mantissa 0x8000, exponent 2 -> right-shift by
	// 8*(3-2)=8 instead of left-shifting.
	got := ExpandTarget(0x02008000)
	want := new(big.Int).Rsh(big.NewInt(0x8000), 8)
	require.Equal(t, 0, got.Cmp(want))
}

func TestHashSatisfiesTargetBoundary(t *testing.T) {
	const compact = 0x1d00ffff
	target := ExpandTarget(compact)

	atTarget := reverse32(bigIntToFixed32(target))
	require.True(t, HashSatisfiesTarget(atTarget, compact))

	above := atTarget
	above[0]++ // least-significant byte of the big-endian value
	require.False(t, HashSatisfiesTarget(above, compact))

	// The target's low bytes are zero, so target-1 is built from the big
	// integer rather than by decrementing a single byte.
	below := reverse32(bigIntToFixed32(new(big.Int).Sub(target, big.NewInt(1))))
	require.True(t, HashSatisfiesTarget(below, compact))
}

func bigIntToFixed32(n *big.Int) [32]byte {
	raw := n.Bytes()
	var out [32]byte
	copy(out[32-len(raw):], raw)
	return out
}
