package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInvRoundTrip(t *testing.T) {
	items := []InventoryVector{
		{Type: InvMsgTx, Hash: [32]byte{1}},
		{Type: InvMsgBlock, Hash: [32]byte{2}},
	}
	got, err := DecodeInv(EncodeInv(items))
	require.NoError(t, err)
	require.Equal(t, items, got)
}

func TestGetDataAndNotFoundShareInvShape(t *testing.T) {
	items := []InventoryVector{{Type: InvMsgBlock, Hash: [32]byte{9}}}
	encoded := EncodeGetData(items)

	gd, err := DecodeGetData(encoded)
	require.NoError(t, err)
	require.Equal(t, items, gd)

	nf, err := DecodeNotFound(encoded)
	require.NoError(t, err)
	require.Equal(t, items, nf)
}

func TestInvRejectsOversizeCount(t *testing.T) {
	w := NewWriter()
	w.WriteVarInt(maxInvCount + 1)
	_, err := DecodeInv(w.Bytes())
	require.Error(t, err)
}

func TestAddrRoundTrip(t *testing.T) {
	records := []AddressRecord{
		{Timestamp: 1, Addr: NetworkAddress{Services: 1, Port: 8333}},
		{Timestamp: 2, Addr: NetworkAddress{Services: 0, Port: 18333}},
	}
	got, err := DecodeAddr(EncodeAddr(records))
	require.NoError(t, err)
	require.Equal(t, records, got)
}

func TestAddrRejectsOversizeCount(t *testing.T) {
	w := NewWriter()
	w.WriteVarInt(maxAddrCount + 1)
	_, err := DecodeAddr(w.Bytes())
	require.Error(t, err)
}
