// Package bchash wraps the cryptographic primitives the node treats as
// opaque: double-SHA-256 hashing and the SHA-256-then-RIPEMD-160 pubkey
// hash. Signature verification is the SignatureVerifier contract, with a
// fail-closed UnimplementedVerifier and a secp256k1 ECDSA Secp256k1Verifier.
package bchash

import (
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160"
)

// Size is the length in bytes of a double-SHA-256 digest.
const Size = sha256.Size

// DoubleSHA256 returns SHA-256(SHA-256(b)), used throughout the wire
// protocol for checksums, transaction ids, and block hashes.
func DoubleSHA256(b []byte) [32]byte {
	first := sha256.Sum256(b)
	return sha256.Sum256(first[:])
}

// DoubleSHA256Checksum returns the first four bytes of DoubleSHA256(b), the
// message-header checksum field.
func DoubleSHA256Checksum(b []byte) [4]byte {
	h := DoubleSHA256(b)
	var out [4]byte
	copy(out[:], h[:4])
	return out
}

// Hash160 returns RIPEMD160(SHA256(b)), the "sharipe" pubkey/script hash
// used in addresses.
func Hash160(b []byte) [20]byte {
	sh := sha256.Sum256(b)
	r := ripemd160.New()
	r.Write(sh[:])
	var out [20]byte
	copy(out[:], r.Sum(nil))
	return out
}

// SignatureVerifier is the contract transaction legality checks depend on.
// Script execution itself (what digest gets checked against what pubkey,
// in what order) is out of scope; this interface is the boundary a real
// interpreter would call across.
type SignatureVerifier interface {
	Verify(pubkey, sig, digest []byte) bool
}

// UnimplementedVerifier fails closed: every signature is rejected. This
// keeps transaction-legality code exercisable in tests that have no
// interest in exercising real curve math.
type UnimplementedVerifier struct{}

func (UnimplementedVerifier) Verify(pubkey, sig, digest []byte) bool { return false }
