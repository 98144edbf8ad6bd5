package control

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dmills/btcnode/internal/chain"
	"github.com/dmills/btcnode/internal/config"
	"github.com/dmills/btcnode/internal/wire"
	"github.com/stretchr/testify/require"
)

func testNode(t *testing.T) *Node {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Network = "regtest"
	n, err := New(cfg)
	require.NoError(t, err)
	return n
}

func coinbase(scriptLen int) wire.Transaction {
	return wire.Transaction{
		Version: 1,
		Inputs: []wire.TxIn{{
			PreviousOutput: wire.OutPoint{Index: 0xFFFFFFFF},
			Script:         make([]byte, scriptLen),
			Sequence:       0xFFFFFFFF,
		}},
		Outputs: []wire.TxOut{{Value: 5_000_000_000, PkScript: []byte{0x51}}},
	}
}

func legalBlock(t *testing.T) wire.Block {
	t.Helper()
	cb := coinbase(4)
	h := wire.BlockHeader{
		Timestamp:  uint32(time.Now().Unix()),
		Target:     0x207fffff,
		MerkleRoot: chain.MerkleRoot([][32]byte{cb.TxID()}),
	}
	// About half of all hashes meet 0x207fffff; bump the nonce until one does.
	for !chain.HashSatisfiesTarget(h.Hash(), h.Target) {
		h.Nonce++
	}
	return wire.Block{Header: h, Txs: []wire.Transaction{cb}}
}

func TestNewCreatesEmptyStore(t *testing.T) {
	n := testNode(t)
	require.Equal(t, 0, n.blocks.Len())
	require.Equal(t, 0, n.utxos.Len())
}

func TestHandleBlockAcceptsLegalBlockAndUpdatesHeight(t *testing.T) {
	n := testNode(t)
	b := legalBlock(t)

	n.handleBlock(nil, b)

	idx, ok := n.blocks.Get(b.Hash())
	require.True(t, ok)
	require.Equal(t, uint32(0), idx.Height)
	require.Equal(t, 1, n.utxos.Len())
}

func TestHandleBlockRejectsInvalidBlock(t *testing.T) {
	n := testNode(t)
	b := wire.Block{Header: wire.BlockHeader{Timestamp: uint32(time.Now().Unix()), Target: 0x207fffff}} // no txs

	n.handleBlock(nil, b)

	_, ok := n.blocks.Get(b.Hash())
	require.False(t, ok)
}

func TestSeenTxsDeduplicatesRepeatedHash(t *testing.T) {
	n := testNode(t)

	first := n.seenTxs.MarkSeen([32]byte{8})
	require.True(t, first)
	second := n.seenTxs.MarkSeen([32]byte{8})
	require.False(t, second)
}

func TestBlockIndexDistinguishesKnownAndUnknownHeaders(t *testing.T) {
	n := testNode(t)
	b := legalBlock(t)
	n.handleBlock(nil, b)

	known := b.Header
	unknown := wire.BlockHeader{Timestamp: uint32(time.Now().Unix()), Target: 0x207fffff, PrevBlock: b.Hash(), Nonce: 1}

	require.True(t, n.blocks.HasHeader(known.Hash()))
	require.False(t, n.blocks.HasHeader(unknown.Hash()))
}

func TestPersistRoundTripsBlockIndexAndPeers(t *testing.T) {
	n := testNode(t)
	n.addrBook.Add(wire.NetworkAddress{Port: 8333}, uint32(time.Now().Unix()))
	b := legalBlock(t)
	n.handleBlock(nil, b)

	require.NoError(t, n.persist())

	reloaded, err := reopenNode(n.cfg.DataDir, n.cfg.Network)
	require.NoError(t, err)
	require.True(t, reloaded.blocks.HasHeader(b.Hash()))

	require.FileExists(t, filepath.Join(n.cfg.DataDir, "peers.dat"))
	require.FileExists(t, filepath.Join(n.cfg.DataDir, "peers.csv"))
}

// reopenNode mirrors control.New's load-from-disk path for re-reading a
// Node's persisted state in a test.
func reopenNode(dataDir, network string) (*Node, error) {
	cfg := config.Default()
	cfg.DataDir = dataDir
	cfg.Network = network
	return New(cfg)
}

func TestSavePeersBinaryRoundTrip(t *testing.T) {
	n := testNode(t)
	n.addrBook.Add(wire.NetworkAddress{Port: 8333, Services: 1}, 12345)

	path := filepath.Join(n.cfg.DataDir, "peers.dat")
	require.NoError(t, n.savePeersBinary(path))

	records, err := loadPeersBinary(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, uint16(8333), records[0].Addr.Port)
	require.Equal(t, uint32(12345), records[0].Timestamp)
}
