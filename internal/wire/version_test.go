package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionPayloadRoundTrip(t *testing.T) {
	v := VersionPayload{
		Version:     70015,
		Services:    1,
		Timestamp:   1700000000,
		AddrRecv:    NetworkAddress{Port: 8333},
		AddrFrom:    NetworkAddress{Port: 8333},
		Nonce:       0x1122334455667788,
		UserAgent:   "/btcnode:0.1.0/",
		StartHeight: 800000,
		Relay:       true,
	}
	got, err := DecodeVersionPayload(v.Encode())
	require.NoError(t, err)
	require.Equal(t, v, got)
}

func TestVersionPayloadRelayDefaultsTrueBelow70001(t *testing.T) {
	v := VersionPayload{Version: 60002, UserAgent: "/old/", Relay: false}
	encoded := v.Encode()

	got, err := DecodeVersionPayload(encoded)
	require.NoError(t, err)
	require.True(t, got.Relay, "relay must default to true when the field is absent")
}

func TestVersionPayloadOmitsRelayByteBelow70001(t *testing.T) {
	v := VersionPayload{Version: 60002, UserAgent: "/old/"}
	withRelayField := VersionPayload{Version: 70015, UserAgent: "/old/"}
	require.Less(t, len(v.Encode()), len(withRelayField.Encode()))
}
