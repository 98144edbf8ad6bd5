package chain

import (
	"errors"
	"testing"
	"time"

	"github.com/dmills/btcnode/internal/wire"
	"github.com/stretchr/testify/require"
)

// trivialTarget is the regtest-style compact target (exponent 0x20,
// mantissa 0x7fffff). It expands to just under 2^255, so about half of all
// hashes satisfy it; tests pass headers that must meet it through solve.
const trivialTarget = 0x207fffff

// solve increments h.Nonce until h's hash satisfies h.Target. With
// trivialTarget this takes a couple of tries on average.
func solve(h wire.BlockHeader) wire.BlockHeader {
	for !HashSatisfiesTarget(h.Hash(), h.Target) {
		h.Nonce++
	}
	return h
}

type fakeResolver struct{ known map[[32]byte]bool }

func (f *fakeResolver) HasHeader(hash [32]byte) bool { return f.known[hash] }

type fakeUTXOSource struct{ outputs map[wire.OutPoint]wire.TxOut }

func (f *fakeUTXOSource) GetOutput(op wire.OutPoint) (wire.TxOut, bool) {
	out, ok := f.outputs[op]
	return out, ok
}

func coinbaseTx(scriptLen int) wire.Transaction {
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

func testValidator() *Validator {
	v := NewValidator(DefaultParams(), &fakeResolver{known: map[[32]byte]bool{}}, &fakeUTXOSource{outputs: map[wire.OutPoint]wire.TxOut{}})
	v.Now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return v
}

func TestCheckHeaderRejectsForwardTimestamp(t *testing.T) {
	v := testValidator()
	h := wire.BlockHeader{Timestamp: uint32(v.Now().Add(3 * time.Hour).Unix()), Target: trivialTarget}

	err := v.CheckHeader(h)
	var invalid *InvalidBlockError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, ReasonTimestampTooFar, invalid.Reason)
}

func TestCheckHeaderRejectsHashAboveTarget(t *testing.T) {
	v := testValidator()
	// The narrowest possible target (mantissa 0, any exponent) essentially
	// nothing will satisfy by chance.
	h := wire.BlockHeader{Timestamp: uint32(v.Now().Unix()), Target: 0x03000000}

	err := v.CheckHeader(h)
	var invalid *InvalidBlockError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, ReasonHashAboveTarget, invalid.Reason)
}

func TestCheckHeaderGenesisSkipsResolver(t *testing.T) {
	v := testValidator()
	h := solve(wire.BlockHeader{Timestamp: uint32(v.Now().Unix()), Target: trivialTarget, PrevBlock: [32]byte{}})
	require.NoError(t, v.CheckHeader(h))
}

func TestCheckHeaderReturnsOrphanForUnresolvedAncestor(t *testing.T) {
	v := testValidator()
	h := solve(wire.BlockHeader{
		Timestamp: uint32(v.Now().Unix()),
		Target:    trivialTarget,
		PrevBlock: [32]byte{0xAB}, // never registered with the resolver
	})
	err := v.CheckHeader(h)
	require.ErrorIs(t, err, ErrOrphan)

	var invalid *InvalidBlockError
	require.False(t, errors.As(err, &invalid), "an orphan must not be reported as InvalidBlockError")
}

func TestCheckHeaderAcceptsResolvedAncestor(t *testing.T) {
	prev := [32]byte{0xAB}
	v := NewValidator(DefaultParams(), &fakeResolver{known: map[[32]byte]bool{prev: true}}, &fakeUTXOSource{outputs: map[wire.OutPoint]wire.TxOut{}})
	v.Now = func() time.Time { return time.Unix(1_700_000_000, 0) }

	h := solve(wire.BlockHeader{Timestamp: uint32(v.Now().Unix()), Target: trivialTarget, PrevBlock: prev})
	require.NoError(t, v.CheckHeader(h))
}

func TestCheckBlockRejectsEmpty(t *testing.T) {
	v := testValidator()
	b := wire.Block{Header: solve(wire.BlockHeader{Timestamp: uint32(v.Now().Unix()), Target: trivialTarget})}
	err := v.CheckBlock(b)
	var invalid *InvalidBlockError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, ReasonEmpty, invalid.Reason)
}

func TestCheckBlockRejectsMissingCoinbase(t *testing.T) {
	v := testValidator()
	tx := wire.Transaction{Version: 1, Inputs: []wire.TxIn{{PreviousOutput: wire.OutPoint{Hash: [32]byte{1}}}}}
	b := wire.Block{
		Header: solve(wire.BlockHeader{Timestamp: uint32(v.Now().Unix()), Target: trivialTarget, MerkleRoot: MerkleRoot([][32]byte{tx.TxID()})}),
		Txs:    []wire.Transaction{tx},
	}
	err := v.CheckBlock(b)
	var invalid *InvalidBlockError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, ReasonNoCoinbase, invalid.Reason)
}

func TestCheckBlockRejectsMultipleCoinbase(t *testing.T) {
	v := testValidator()
	cb1, cb2 := coinbaseTx(4), coinbaseTx(4)
	b := wire.Block{
		Header: solve(wire.BlockHeader{
			Timestamp:  uint32(v.Now().Unix()),
			Target:     trivialTarget,
			MerkleRoot: MerkleRoot([][32]byte{cb1.TxID(), cb2.TxID()}),
		}),
		Txs: []wire.Transaction{cb1, cb2},
	}
	err := v.CheckBlock(b)
	var invalid *InvalidBlockError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, ReasonMultipleCoinbase, invalid.Reason)
}

func TestCheckBlockRejectsBadMerkleRoot(t *testing.T) {
	v := testValidator()
	cb := coinbaseTx(4)
	b := wire.Block{
		Header: solve(wire.BlockHeader{Timestamp: uint32(v.Now().Unix()), Target: trivialTarget, MerkleRoot: [32]byte{0xFF}}),
		Txs:    []wire.Transaction{cb},
	}
	err := v.CheckBlock(b)
	var invalid *InvalidBlockError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, ReasonBadMerkle, invalid.Reason)
}

func TestCheckBlockRejectsCoinbaseScriptOutOfBounds(t *testing.T) {
	v := testValidator()
	cb := coinbaseTx(1) // below ScriptSigSizeLower (2)
	b := wire.Block{
		Header: solve(wire.BlockHeader{Timestamp: uint32(v.Now().Unix()), Target: trivialTarget, MerkleRoot: MerkleRoot([][32]byte{cb.TxID()})}),
		Txs:    []wire.Transaction{cb},
	}
	err := v.CheckBlock(b)
	var invalid *InvalidBlockError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, ReasonBadTx, invalid.Reason)
	require.Equal(t, 0, invalid.TxIndex)
}

func TestCheckBlockAcceptsLegalSingleCoinbaseBlock(t *testing.T) {
	v := testValidator()
	cb := coinbaseTx(4)
	b := wire.Block{
		Header: solve(wire.BlockHeader{Timestamp: uint32(v.Now().Unix()), Target: trivialTarget, MerkleRoot: MerkleRoot([][32]byte{cb.TxID()})}),
		Txs:    []wire.Transaction{cb},
	}
	require.NoError(t, v.CheckBlock(b))
}

func TestCheckBlockRejectsInputsBelowOutputs(t *testing.T) {
	spent := wire.OutPoint{Hash: [32]byte{9}, Index: 0}
	v := NewValidator(DefaultParams(), &fakeResolver{known: map[[32]byte]bool{}}, &fakeUTXOSource{
		outputs: map[wire.OutPoint]wire.TxOut{spent: {Value: 100, PkScript: []byte{0x51}}},
	})
	v.Now = func() time.Time { return time.Unix(1_700_000_000, 0) }

	cb := coinbaseTx(4)
	spender := wire.Transaction{
		Version: 1,
		Inputs:  []wire.TxIn{{PreviousOutput: spent, Script: []byte{0x51}}},
		Outputs: []wire.TxOut{{Value: 1000, PkScript: []byte{0x51}}}, // exceeds the 100 available
	}
	b := wire.Block{
		Header: solve(wire.BlockHeader{
			Timestamp:  uint32(v.Now().Unix()),
			Target:     trivialTarget,
			MerkleRoot: MerkleRoot([][32]byte{cb.TxID(), spender.TxID()}),
		}),
		Txs: []wire.Transaction{cb, spender},
	}
	err := v.CheckBlock(b)
	var invalid *InvalidBlockError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, ReasonBadTx, invalid.Reason)
	require.Equal(t, 1, invalid.TxIndex)
}
