package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func legacyTx() Transaction {
	return Transaction{
		Version: 1,
		Inputs: []TxIn{{
			PreviousOutput: OutPoint{Hash: [32]byte{1}, Index: 0},
			Script:         []byte{0x01, 0x02},
			Sequence:       0xFFFFFFFF,
		}},
		Outputs: []TxOut{{
			Value:    5_000_000_000,
			PkScript: []byte{0x76, 0xa9},
		}},
		LockTime: 0,
	}
}

func TestLegacyTransactionRoundTrip(t *testing.T) {
	tx := legacyTx()
	got, err := ReadTransaction(NewReader(tx.Bytes()))
	require.NoError(t, err)
	require.Equal(t, tx, got)
}

func TestWitnessTransactionRoundTrip(t *testing.T) {
	tx := legacyTx()
	tx.HasWitness = true
	tx.Witness = []TxWitness{{Stack: [][]byte{{0xde, 0xad}, {0xbe, 0xef}}}}

	raw := tx.Bytes()
	// marker/flag immediately follow the 4-byte version field.
	require.Equal(t, byte(0x00), raw[4])
	require.Equal(t, byte(0x01), raw[5])

	got, err := ReadTransaction(NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, tx, got)
}

func TestTxIDIgnoresWitnessData(t *testing.T) {
	legacy := legacyTx()
	withWitness := legacy
	withWitness.HasWitness = true
	withWitness.Witness = []TxWitness{{Stack: [][]byte{{0x01}}}}

	require.Equal(t, legacy.TxID(), withWitness.TxID())
	require.NotEqual(t, legacy.Bytes(), withWitness.Bytes())
}

func TestOutPointIsCoinbase(t *testing.T) {
	require.True(t, OutPoint{Hash: [32]byte{}, Index: 0xFFFFFFFF}.IsCoinbase())
	require.False(t, OutPoint{Hash: [32]byte{1}, Index: 0xFFFFFFFF}.IsCoinbase())
	require.False(t, OutPoint{Hash: [32]byte{}, Index: 0}.IsCoinbase())
}

func TestTransactionIsCoinbase(t *testing.T) {
	cb := Transaction{Inputs: []TxIn{{PreviousOutput: OutPoint{Index: 0xFFFFFFFF}}}}
	require.True(t, cb.IsCoinbase())

	notCb := legacyTx()
	require.False(t, notCb.IsCoinbase())
}
