package store

import (
	"sync"

	"github.com/dmills/btcnode/internal/wire"
)

// UTXOSet tracks unspent transaction outputs so the validator can resolve
// an input's previous output and its value. It satisfies
// chain.UTXOSource.
type UTXOSet struct {
	mu      sync.RWMutex
	outputs map[wire.OutPoint]wire.TxOut
}

// NewUTXOSet creates an empty set.
func NewUTXOSet() *UTXOSet {
	return &UTXOSet{outputs: make(map[wire.OutPoint]wire.TxOut)}
}

// GetOutput satisfies chain.UTXOSource.
func (u *UTXOSet) GetOutput(op wire.OutPoint) (wire.TxOut, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out, ok := u.outputs[op]
	return out, ok
}

// ApplyBlock marks every output a block's transactions create as unspent
// and every output its non-coinbase inputs reference as spent, in a
// single pass over the block's transactions in order.
func (u *UTXOSet) ApplyBlock(block wire.Block) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, tx := range block.Txs {
		txid := tx.TxID()
		if !tx.IsCoinbase() {
			for _, in := range tx.Inputs {
				delete(u.outputs, in.PreviousOutput)
			}
		}
		for i, out := range tx.Outputs {
			u.outputs[wire.OutPoint{Hash: txid, Index: uint32(i)}] = out
		}
	}
}

// Len returns the number of tracked unspent outputs.
func (u *UTXOSet) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.outputs)
}
