package bchash

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// Secp256k1Verifier is the production SignatureVerifier: pubkey is a
// compressed or uncompressed SEC1-encoded secp256k1 public key, sig is a
// DER-encoded ECDSA signature, and digest is the 32-byte sighash already
// produced by the (out-of-scope) script interpreter.
type Secp256k1Verifier struct{}

func (Secp256k1Verifier) Verify(pubkey, sig, digest []byte) bool {
	pub, err := btcec.ParsePubKey(pubkey)
	if err != nil {
		return false
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	return parsed.Verify(digest, pub)
}
