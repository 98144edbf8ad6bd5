package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleHeader() BlockHeader {
	return BlockHeader{
		Version:    1,
		PrevBlock:  [32]byte{0xAA},
		MerkleRoot: [32]byte{0xBB},
		Timestamp:  1231006505,
		Target:     0x1d00ffff,
		Nonce:      2083236893,
	}
}

func TestBlockHeaderRoundTrip(t *testing.T) {
	h := sampleHeader()
	require.Len(t, h.Bytes(), BlockHeaderSize)

	got, err := ReadBlockHeader(NewReader(h.Bytes()))
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestBlockRoundTrip(t *testing.T) {
	b := Block{
		Header: sampleHeader(),
		Txs:    []Transaction{legacyTx(), legacyTx()},
	}
	got, err := ReadBlock(NewReader(b.Bytes()))
	require.NoError(t, err)
	require.Equal(t, b, got)
}

func TestBlockHashMatchesHeaderHash(t *testing.T) {
	b := Block{Header: sampleHeader(), Txs: []Transaction{legacyTx()}}
	require.Equal(t, b.Header.Hash(), b.Hash())
}

func TestHeaderHashChangesWithNonce(t *testing.T) {
	h1 := sampleHeader()
	h2 := sampleHeader()
	h2.Nonce++
	require.NotEqual(t, h1.Hash(), h2.Hash())
}
