package chain

import "github.com/dmills/btcnode/internal/bchash"

// MerkleRoot computes the Merkle root over a block's (non-witness)
// transaction ids: a bottom-up binary fold where an odd trailing element
// at any level is paired with itself before hashing up.
func MerkleRoot(txids [][32]byte) [32]byte {
	if len(txids) == 0 {
		return [32]byte{}
	}
	level := make([][32]byte, len(txids))
	copy(level, txids)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([][32]byte, len(level)/2)
		for j := range next {
			var buf [64]byte
			copy(buf[:32], level[2*j][:])
			copy(buf[32:], level[2*j+1][:])
			next[j] = bchash.DoubleSHA256(buf[:])
		}
		level = next
	}
	return level[0]
}
