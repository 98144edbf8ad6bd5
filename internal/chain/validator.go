package chain

import (
	"fmt"
	"time"

	"github.com/dmills/btcnode/internal/bchash"
	"github.com/dmills/btcnode/internal/script"
	"github.com/dmills/btcnode/internal/wire"
)

// Reason enumerates why a block failed validation.
type Reason int

const (
	ReasonEmpty Reason = iota
	ReasonTimestampTooFar
	ReasonNoCoinbase
	ReasonMultipleCoinbase
	ReasonBadMerkle
	ReasonHashAboveTarget
	ReasonBadTx
)

func (r Reason) String() string {
	switch r {
	case ReasonEmpty:
		return "Empty"
	case ReasonTimestampTooFar:
		return "TimestampTooFar"
	case ReasonNoCoinbase:
		return "NoCoinbase"
	case ReasonMultipleCoinbase:
		return "MultipleCoinbase"
	case ReasonBadMerkle:
		return "BadMerkle"
	case ReasonHashAboveTarget:
		return "HashAboveTarget"
	case ReasonBadTx:
		return "BadTx"
	default:
		return "Unknown"
	}
}

// InvalidBlockError is the failure value every validation entry point
// returns: InvalidBlock(reason) from spec §4.6.
type InvalidBlockError struct {
	Reason  Reason
	TxIndex int   // meaningful when Reason == ReasonBadTx
	Cause   error // wrapped per-transaction reason when Reason == ReasonBadTx
}

func (e *InvalidBlockError) Error() string {
	if e.Reason == ReasonBadTx {
		return fmt.Sprintf("invalid block: bad tx at index %d: %v", e.TxIndex, e.Cause)
	}
	return fmt.Sprintf("invalid block: %s", e.Reason)
}

func (e *InvalidBlockError) Unwrap() error { return e.Cause }

// ErrOrphan indicates header.prev_block does not yet resolve in the
// block index. This is not a legality failure — the block may become
// connectable once its ancestor arrives — so it is distinct from
// InvalidBlockError and callers should hold the block for later retry
// rather than reject it outright.
var ErrOrphan = fmt.Errorf("chain: prev_block not yet known")

// HeaderResolver answers whether a hash is already known to the block
// index, letting the validator check header.prev_block without owning
// storage itself.
type HeaderResolver interface {
	HasHeader(hash [32]byte) bool
}

// UTXOSource resolves a previous transaction output by outpoint.
type UTXOSource interface {
	GetOutput(op wire.OutPoint) (wire.TxOut, bool)
}

// Params holds the tunables the validator checks against (subset of the
// node's overall Config relevant to block/tx legality).
type Params struct {
	MaxForwardTimestamp time.Duration
	ScriptSigSizeLower  int
	ScriptSigSizeUpper  int
	AcceptedTxVersions  map[int32]bool
	GenesisHash         [32]byte
}

// DefaultParams returns the spec's stated defaults.
func DefaultParams() Params {
	return Params{
		MaxForwardTimestamp: 2 * time.Hour,
		ScriptSigSizeLower:  2,
		ScriptSigSizeUpper:  100,
		AcceptedTxVersions:  map[int32]bool{1: true, 2: true},
	}
}

// Validator checks block-header, block, and transaction legality per
// spec §4.6. It delegates signature checking and script execution to the
// contracts in bchash and script rather than implementing either.
type Validator struct {
	Params   Params
	Resolver HeaderResolver
	UTXOs    UTXOSource
	Verifier bchash.SignatureVerifier
	Engine   script.Engine
	Now      func() time.Time
}

// NewValidator builds a Validator with the given collaborators, using
// script.NullEngine and bchash.UnimplementedVerifier unless overridden.
func NewValidator(params Params, resolver HeaderResolver, utxos UTXOSource) *Validator {
	return &Validator{
		Params:   params,
		Resolver: resolver,
		UTXOs:    utxos,
		Verifier: bchash.UnimplementedVerifier{},
		Engine:   script.NullEngine{},
		Now:      time.Now,
	}
}

// CheckHeader validates header legality: forward-timestamp bound, proof
// of work, and that prev_block resolves (or is the zero predecessor of
// genesis).
func (v *Validator) CheckHeader(header wire.BlockHeader) error {
	now := v.Now()
	if int64(header.Timestamp) > now.Add(v.Params.MaxForwardTimestamp).Unix() {
		return &InvalidBlockError{Reason: ReasonTimestampTooFar}
	}
	if !HashSatisfiesTarget(header.Hash(), header.Target) {
		return &InvalidBlockError{Reason: ReasonHashAboveTarget}
	}
	isGenesis := header.PrevBlock == [32]byte{}
	if !isGenesis && v.Resolver != nil && !v.Resolver.HasHeader(header.PrevBlock) {
		return ErrOrphan
	}
	return nil
}

// CheckBlock validates full block legality on top of header legality:
// non-empty, exactly one coinbase at index 0, every transaction legal,
// and a matching Merkle root.
func (v *Validator) CheckBlock(block wire.Block) error {
	if err := v.CheckHeader(block.Header); err != nil {
		return err
	}
	if len(block.Txs) == 0 {
		return &InvalidBlockError{Reason: ReasonEmpty}
	}
	if !block.Txs[0].IsCoinbase() {
		return &InvalidBlockError{Reason: ReasonNoCoinbase}
	}
	for i := 1; i < len(block.Txs); i++ {
		if block.Txs[i].IsCoinbase() {
			return &InvalidBlockError{Reason: ReasonMultipleCoinbase}
		}
	}

	txids := make([][32]byte, len(block.Txs))
	for i, tx := range block.Txs {
		txids[i] = tx.TxID()
		isCoinbase := i == 0
		if err := v.checkTransaction(tx, isCoinbase); err != nil {
			return &InvalidBlockError{Reason: ReasonBadTx, TxIndex: i, Cause: err}
		}
	}
	if MerkleRoot(txids) != block.Header.MerkleRoot {
		return &InvalidBlockError{Reason: ReasonBadMerkle}
	}
	return nil
}

// checkTransaction is the transaction-legality contract: accepted
// version, unspent inputs that pass script execution, inputs covering
// outputs, and (for coinbase) a script length within bounds.
func (v *Validator) checkTransaction(tx wire.Transaction, isCoinbase bool) error {
	if v.Params.AcceptedTxVersions != nil && !v.Params.AcceptedTxVersions[tx.Version] {
		return fmt.Errorf("unsupported tx version %d", tx.Version)
	}

	if isCoinbase {
		n := len(tx.Inputs[0].Script)
		if n < v.Params.ScriptSigSizeLower || n > v.Params.ScriptSigSizeUpper {
			return fmt.Errorf("coinbase script length %d outside [%d,%d]", n, v.Params.ScriptSigSizeLower, v.Params.ScriptSigSizeUpper)
		}
		return nil
	}

	sigHash := tx.TxID() // sighash computation proper belongs to the script interpreter; TxID stands in as the opaque digest for this boundary.
	var totalIn, totalOut int64

	for i, in := range tx.Inputs {
		out, ok := v.UTXOs.GetOutput(in.PreviousOutput)
		if !ok {
			return fmt.Errorf("input %d references unknown or spent output", i)
		}
		totalIn += out.Value
		ok2, err := v.Engine.Execute(in.Script, out.PkScript, sigHash[:])
		if err != nil {
			return fmt.Errorf("input %d script execution: %w", i, err)
		}
		if !ok2 {
			return fmt.Errorf("input %d script left a falsy result", i)
		}
	}
	for _, out := range tx.Outputs {
		totalOut += out.Value
	}
	if totalIn < totalOut {
		return fmt.Errorf("outputs (%d) exceed inputs (%d)", totalOut, totalIn)
	}
	return nil
}
