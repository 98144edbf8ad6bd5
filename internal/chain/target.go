package chain

import "math/big"

// ExpandTarget decodes a 32-bit compact ("bits") target into its full
// 256-bit form: mantissa = t & 0x007FFFFF, exponent = t >> 24, target =
// mantissa << (8 * (exponent - 3)).
func ExpandTarget(compact uint32) *big.Int {
	mantissa := int64(compact & 0x007FFFFF)
	exponent := int(compact >> 24)

	target := big.NewInt(mantissa)
	shift := 8 * (exponent - 3)
	switch {
	case shift > 0:
		target.Lsh(target, uint(shift))
	case shift < 0:
		target.Rsh(target, uint(-shift))
	}
	return target
}

// HashSatisfiesTarget reports whether a wire-order (little-endian) block
// hash satisfies the compact target: the hash, read as a big-endian
// integer after reversal, must be <= the expanded target.
func HashSatisfiesTarget(hash [32]byte, compact uint32) bool {
	reversed := reverse32(hash)
	hashInt := new(big.Int).SetBytes(reversed[:])
	return hashInt.Cmp(ExpandTarget(compact)) <= 0
}

func reverse32(h [32]byte) [32]byte {
	var out [32]byte
	for i := 0; i < 32; i++ {
		out[i] = h[31-i]
	}
	return out
}
