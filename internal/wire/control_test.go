package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPingPongRoundTrip(t *testing.T) {
	p := PingPongPayload{Nonce: 0xDEADBEEFCAFE}

	ping, err := DecodePing(EncodePing(p))
	require.NoError(t, err)
	require.Equal(t, p, ping)

	pong, err := DecodePong(EncodePong(p))
	require.NoError(t, err)
	require.Equal(t, p, pong)
}

func TestRejectRoundTripWithData(t *testing.T) {
	r := RejectPayload{
		Message: CmdBlock,
		Code:    RejectInvalid,
		Reason:  "bad-merkle-root",
		Data:    []byte{1, 2, 3, 4},
	}
	got, err := DecodeReject(EncodeReject(r))
	require.NoError(t, err)
	require.Equal(t, r, got)
}

func TestRejectRoundTripWithoutData(t *testing.T) {
	r := RejectPayload{Message: CmdTx, Code: RejectDuplicate, Reason: "already in pool"}
	got, err := DecodeReject(EncodeReject(r))
	require.NoError(t, err)
	require.Empty(t, got.Data)
	require.Equal(t, r.Reason, got.Reason)
}
