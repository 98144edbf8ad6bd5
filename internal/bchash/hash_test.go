package bchash

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDoubleSHA256EmptyInput(t *testing.T) {
	got := DoubleSHA256(nil)
	require.Equal(t, "5df6e0e2761359d30a8275058e299fcc0381534545f55cf43e41983f5d4c9456", hex.EncodeToString(got[:]))
}

func TestDoubleSHA256ChecksumIsFirstFourBytes(t *testing.T) {
	full := DoubleSHA256([]byte("hello"))
	cksum := DoubleSHA256Checksum([]byte("hello"))
	require.Equal(t, full[:4], cksum[:])
}

func TestHash160KnownVector(t *testing.T) {
	got := Hash160([]byte("hello"))
	require.Equal(t, "b6a9c8c230722b7c748331a8b450f05566dc7d0f", hex.EncodeToString(got[:]))
}

func TestUnimplementedVerifierAlwaysFails(t *testing.T) {
	var v SignatureVerifier = UnimplementedVerifier{}
	require.False(t, v.Verify(nil, nil, nil))
}
