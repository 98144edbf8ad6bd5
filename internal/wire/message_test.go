package wire

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
)

const testMagic = 0xD9B4BEF9

func TestWriteReadMessageRoundTrip(t *testing.T) {
	msg := Message{Command: CmdPing, Ping: &PingPongPayload{Nonce: 42}}

	frame, err := WriteMessage(msg, testMagic)
	require.NoError(t, err)
	require.Len(t, frame, HeaderSize+8)

	got, err := ReadMessage(frame, testMagic, 0)
	require.NoError(t, err)
	require.Equal(t, msg, got)
}

func TestReadMessageRejectsBadMagic(t *testing.T) {
	msg := Message{Command: CmdVerack, Verack: true}
	frame, err := WriteMessage(msg, testMagic)
	require.NoError(t, err)

	_, err = ReadMessage(frame, 0x0B110907, 0)
	require.Error(t, err)
	var badMagic *ErrBadMagic
	require.ErrorAs(t, err, &badMagic)
}

func TestReadMessageRejectsBadChecksum(t *testing.T) {
	msg := Message{Command: CmdGetAddr, GetAddr: true}
	msg.Ping = &PingPongPayload{Nonce: 1} // forces a non-empty payload below
	msg.Command = CmdPing
	frame, err := WriteMessage(msg, testMagic)
	require.NoError(t, err)

	frame[len(frame)-1] ^= 0xFF // corrupt the last payload byte
	_, err = ReadMessage(frame, testMagic, 0)
	require.Error(t, err)
	var badChecksum *ErrBadChecksum
	require.ErrorAs(t, err, &badChecksum)
}

func TestReadMessageRejectsOversizeDeclaredLength(t *testing.T) {
	h := Header{Magic: testMagic, Command: CmdPing, Length: DefaultMaxMessageLength + 1}
	w := NewWriter()
	require.NoError(t, h.Write(w))

	_, err := ReadMessage(w.Bytes(), testMagic, 0)
	require.Error(t, err)
	var oversize *ErrOversizeMessage
	require.ErrorAs(t, err, &oversize)
}

func TestParseMessageUnknownCommand(t *testing.T) {
	_, err := ParseMessage("notacommand", nil)
	require.Error(t, err)
	var unknown *ErrUnknownCommand
	require.ErrorAs(t, err, &unknown)
}

func TestSerializeMessageEveryKnownCommand(t *testing.T) {
	// Slices are non-empty and the tx has inputs: decoders return empty,
	// non-nil slices, and a zero input count reads as the segwit marker.
	tx := legacyTx()
	messages := []Message{
		{Command: CmdVersion, Version: &VersionPayload{Version: 70015, UserAgent: "/x/"}},
		{Command: CmdVerack, Verack: true},
		{Command: CmdGetAddr, GetAddr: true},
		{Command: CmdAddr, Addr: []AddressRecord{{Timestamp: 1, Addr: NetworkAddress{Port: 1}}}},
		{Command: CmdInv, Inv: []InventoryVector{{Type: InvMsgTx, Hash: [32]byte{1}}}},
		{Command: CmdGetData, GetData: []InventoryVector{{Type: InvMsgBlock, Hash: [32]byte{2}}}},
		{Command: CmdNotFound, NotFound: []InventoryVector{{Type: InvMsgTx, Hash: [32]byte{3}}}},
		{Command: CmdBlock, Block: &Block{Header: sampleHeader(), Txs: []Transaction{legacyTx()}}},
		{Command: CmdTx, Tx: &tx},
		{Command: CmdGetHeaders, GetHeaders: &GetHeadersPayload{Version: 70015, Locator: [][32]byte{{4}}}},
		{Command: CmdGetBlocks, GetBlocks: &GetHeadersPayload{Version: 70015, Locator: [][32]byte{{4}}}},
		{Command: CmdHeaders, Headers: []BlockHeader{sampleHeader()}},
		{Command: CmdPing, Ping: &PingPongPayload{Nonce: 1}},
		{Command: CmdPong, Pong: &PingPongPayload{Nonce: 1}},
		{Command: CmdReject, Reject: &RejectPayload{Message: CmdTx, Code: RejectInvalid, Reason: "x"}},
	}

	for _, msg := range messages {
		frame, err := WriteMessage(msg, testMagic)
		require.NoError(t, err, msg.Command)

		got, err := ReadMessage(frame, testMagic, 0)
		require.NoError(t, err, msg.Command)
		require.Equal(t, msg, got, "%s: got %s want %s", msg.Command, spew.Sdump(got), spew.Sdump(msg))
	}
}
