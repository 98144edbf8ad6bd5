package wire

import "github.com/dmills/btcnode/internal/bchash"

// witnessMarker and witnessFlag mark the optional segregated-witness
// section of a transaction so legacy deserializers that don't understand
// them still parse the non-witness fields correctly.
const (
	witnessMarker = 0x00
	witnessFlag   = 0x01
)

// OutPoint identifies a previous transaction output being spent.
type OutPoint struct {
	Hash  [32]byte
	Index uint32
}

// IsCoinbase reports whether this outpoint is the null outpoint a
// coinbase input's PreviousOutput must reference.
func (o OutPoint) IsCoinbase() bool {
	return o.Hash == [32]byte{} && o.Index == 0xFFFFFFFF
}

// TxIn is one transaction input.
type TxIn struct {
	PreviousOutput OutPoint
	Script         []byte
	Sequence       uint32
}

// IsCoinbase reports whether this input is a coinbase input.
func (in TxIn) IsCoinbase() bool { return in.PreviousOutput.IsCoinbase() }

// TxOut is one transaction output.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// TxWitness holds the witness stack for a single input: a varint item
// count followed by that many varint-length byte strings.
type TxWitness struct {
	Stack [][]byte
}

// Transaction is a fully parsed Bitcoin transaction, including optional
// witness data.
type Transaction struct {
	Version  int32
	HasWitness bool
	Inputs   []TxIn
	Outputs  []TxOut
	Witness  []TxWitness // len(Witness) == len(Inputs) iff HasWitness
	LockTime uint32
}

const (
	maxScriptLen      = 10_000
	maxWitnessItemLen = 10_000
)

func readOutPoint(r *Reader) (OutPoint, error) {
	var op OutPoint
	hash, err := r.ReadHash32()
	if err != nil {
		return op, err
	}
	idx, err := r.ReadU32LE()
	if err != nil {
		return op, err
	}
	op.Hash = hash
	op.Index = idx
	return op, nil
}

func (op OutPoint) write(w *Writer) {
	w.WriteBytes(op.Hash[:])
	w.WriteU32LE(op.Index)
}

func readTxIn(r *Reader) (TxIn, error) {
	var in TxIn
	op, err := readOutPoint(r)
	if err != nil {
		return in, err
	}
	script, err := r.ReadVarBytes(maxScriptLen)
	if err != nil {
		return in, err
	}
	seq, err := r.ReadU32LE()
	if err != nil {
		return in, err
	}
	in.PreviousOutput = op
	in.Script = script
	in.Sequence = seq
	return in, nil
}

func (in TxIn) write(w *Writer) {
	in.PreviousOutput.write(w)
	w.WriteVarBytes(in.Script)
	w.WriteU32LE(in.Sequence)
}

func readTxOut(r *Reader) (TxOut, error) {
	var out TxOut
	val, err := r.ReadI64LE()
	if err != nil {
		return out, err
	}
	script, err := r.ReadVarBytes(maxScriptLen)
	if err != nil {
		return out, err
	}
	out.Value = val
	out.PkScript = script
	return out, nil
}

func (out TxOut) write(w *Writer) {
	w.WriteI64LE(out.Value)
	w.WriteVarBytes(out.PkScript)
}

func readTxWitness(r *Reader) (TxWitness, error) {
	var wt TxWitness
	count, err := r.ReadVarInt()
	if err != nil {
		return wt, err
	}
	stack := make([][]byte, 0, count)
	for i := uint64(0); i < count; i++ {
		item, err := r.ReadVarBytes(maxWitnessItemLen)
		if err != nil {
			return wt, err
		}
		stack = append(stack, item)
	}
	wt.Stack = stack
	return wt, nil
}

func (wt TxWitness) write(w *Writer) {
	w.WriteVarInt(uint64(len(wt.Stack)))
	for _, item := range wt.Stack {
		w.WriteVarBytes(item)
	}
}

// ReadTransaction parses one transaction, detecting the segwit
// marker/flag pair (0x00, 0x01) immediately after the version field.
func ReadTransaction(r *Reader) (Transaction, error) {
	var tx Transaction
	version, err := r.ReadI32LE()
	if err != nil {
		return tx, err
	}
	tx.Version = version

	inputCount, err := r.ReadVarInt()
	if err != nil {
		return tx, err
	}

	if inputCount == witnessMarker {
		// Marker byte consumed as a zero input count: peek the flag.
		flag, err := r.ReadU8()
		if err != nil {
			return tx, err
		}
		if flag != witnessFlag {
			return tx, &ErrTruncated{Field: "witness flag", Need: 1, Have: 0}
		}
		tx.HasWitness = true
		inputCount, err = r.ReadVarInt()
		if err != nil {
			return tx, err
		}
	}

	inputs := make([]TxIn, 0, inputCount)
	for i := uint64(0); i < inputCount; i++ {
		in, err := readTxIn(r)
		if err != nil {
			return tx, err
		}
		inputs = append(inputs, in)
	}
	tx.Inputs = inputs

	outputCount, err := r.ReadVarInt()
	if err != nil {
		return tx, err
	}
	outputs := make([]TxOut, 0, outputCount)
	for i := uint64(0); i < outputCount; i++ {
		out, err := readTxOut(r)
		if err != nil {
			return tx, err
		}
		outputs = append(outputs, out)
	}
	tx.Outputs = outputs

	if tx.HasWitness {
		witness := make([]TxWitness, 0, inputCount)
		for i := uint64(0); i < inputCount; i++ {
			wt, err := readTxWitness(r)
			if err != nil {
				return tx, err
			}
			witness = append(witness, wt)
		}
		tx.Witness = witness
	}

	lockTime, err := r.ReadU32LE()
	if err != nil {
		return tx, err
	}
	tx.LockTime = lockTime

	return tx, nil
}

// Write serializes the transaction, including witness data when present.
func (tx Transaction) Write(w *Writer) {
	w.WriteI32LE(tx.Version)
	if tx.HasWitness {
		w.WriteU8(witnessMarker)
		w.WriteU8(witnessFlag)
	}
	w.WriteVarInt(uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		in.write(w)
	}
	w.WriteVarInt(uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		out.write(w)
	}
	if tx.HasWitness {
		for _, wt := range tx.Witness {
			wt.write(w)
		}
	}
	w.WriteU32LE(tx.LockTime)
}

// Bytes serializes the transaction to a standalone byte slice.
func (tx Transaction) Bytes() []byte {
	w := NewWriter()
	tx.Write(w)
	return w.Bytes()
}

// LegacyBytes serializes the transaction without any witness data,
// matching the pre-segwit encoding used for txid computation.
func (tx Transaction) LegacyBytes() []byte {
	w := NewWriter()
	w.WriteI32LE(tx.Version)
	w.WriteVarInt(uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		in.write(w)
	}
	w.WriteVarInt(uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		out.write(w)
	}
	w.WriteU32LE(tx.LockTime)
	return w.Bytes()
}

// TxID returns the double-SHA-256 of the transaction's non-witness
// serialization, the canonical transaction identifier.
func (tx Transaction) TxID() [32]byte {
	return bchash.DoubleSHA256(tx.LegacyBytes())
}

// IsCoinbase reports whether this transaction's first input is a
// coinbase input (callers must also check it is tx index 0 in the block).
func (tx Transaction) IsCoinbase() bool {
	return len(tx.Inputs) > 0 && tx.Inputs[0].IsCoinbase()
}
