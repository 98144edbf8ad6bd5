package wire

import "github.com/dmills/btcnode/internal/bchash"

// BlockHeaderSize is the fixed 80-byte wire size of a block header.
const BlockHeaderSize = 80

// BlockHeader is the 80-byte block header: version, previous block hash,
// Merkle root, timestamp, compact target ("bits"), and nonce.
type BlockHeader struct {
	Version    int32
	PrevBlock  [32]byte
	MerkleRoot [32]byte
	Timestamp  uint32
	Target     uint32
	Nonce      uint32
}

// ReadBlockHeader parses an 80-byte block header.
func ReadBlockHeader(r *Reader) (BlockHeader, error) {
	var h BlockHeader
	var err error
	if h.Version, err = r.ReadI32LE(); err != nil {
		return h, err
	}
	if h.PrevBlock, err = r.ReadHash32(); err != nil {
		return h, err
	}
	if h.MerkleRoot, err = r.ReadHash32(); err != nil {
		return h, err
	}
	if h.Timestamp, err = r.ReadU32LE(); err != nil {
		return h, err
	}
	if h.Target, err = r.ReadU32LE(); err != nil {
		return h, err
	}
	if h.Nonce, err = r.ReadU32LE(); err != nil {
		return h, err
	}
	return h, nil
}

// Write serializes the 80-byte block header.
func (h BlockHeader) Write(w *Writer) {
	w.WriteI32LE(h.Version)
	w.WriteBytes(h.PrevBlock[:])
	w.WriteBytes(h.MerkleRoot[:])
	w.WriteU32LE(h.Timestamp)
	w.WriteU32LE(h.Target)
	w.WriteU32LE(h.Nonce)
}

// Bytes serializes the header to a standalone 80-byte slice.
func (h BlockHeader) Bytes() []byte {
	w := NewWriter()
	h.Write(w)
	return w.Bytes()
}

// Hash returns the double-SHA-256 of the serialized header (wire byte
// order; reverse for the conventional big-endian display form).
func (h BlockHeader) Hash() [32]byte {
	return bchash.DoubleSHA256(h.Bytes())
}

// Block is a full block: header followed by its transactions.
type Block struct {
	Header BlockHeader
	Txs    []Transaction
}

// ReadBlock parses a full block payload.
func ReadBlock(r *Reader) (Block, error) {
	var b Block
	header, err := ReadBlockHeader(r)
	if err != nil {
		return b, err
	}
	b.Header = header

	count, err := r.ReadVarInt()
	if err != nil {
		return b, err
	}
	txs := make([]Transaction, 0, count)
	for i := uint64(0); i < count; i++ {
		tx, err := ReadTransaction(r)
		if err != nil {
			return b, err
		}
		txs = append(txs, tx)
	}
	b.Txs = txs
	return b, nil
}

// Write serializes the full block.
func (b Block) Write(w *Writer) {
	b.Header.Write(w)
	w.WriteVarInt(uint64(len(b.Txs)))
	for _, tx := range b.Txs {
		tx.Write(w)
	}
}

// Bytes serializes the block to a standalone byte slice.
func (b Block) Bytes() []byte {
	w := NewWriter()
	b.Write(w)
	return w.Bytes()
}

// Hash returns the block's header hash.
func (b Block) Hash() [32]byte {
	return b.Header.Hash()
}
