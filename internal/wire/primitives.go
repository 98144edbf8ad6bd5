// Package wire implements the binary message codec for the Bitcoin
// mainnet-compatible P2P protocol: fixed-width integers, variable-length
// integers and strings, network addresses, transactions, blocks, and the
// full message set (C1/C2 of the node's protocol core).
package wire

import (
	"encoding/binary"
	"fmt"
)

// ErrTruncated is returned (wrapped) whenever a reader runs out of bytes
// before a field is fully consumed.
type ErrTruncated struct {
	Field string
	Need  int
	Have  int
}

func (e *ErrTruncated) Error() string {
	return fmt.Sprintf("wire: truncated reading %s: need %d bytes, have %d", e.Field, e.Need, e.Have)
}

// ErrOversizeString is returned by varstr readers when the encoded length
// exceeds the caller-supplied maximum.
type ErrOversizeString struct {
	Len int
	Max int
}

func (e *ErrOversizeString) Error() string {
	return fmt.Sprintf("wire: string length %d exceeds max %d", e.Len, e.Max)
}

// Reader is a cursor over an in-memory byte slice. All multi-byte integers
// on the wire are little-endian except NetworkAddress.Port, which is
// big-endian; Reader's fixed helpers spell out endianness at each call site
// so that is never ambiguous at the point of use.
type Reader struct {
	b   []byte
	pos int
}

// NewReader creates a Reader positioned at the start of b.
func NewReader(b []byte) *Reader {
	return &Reader{b: b}
}

// Len returns the number of unread bytes remaining.
func (r *Reader) Len() int {
	if r.pos >= len(r.b) {
		return 0
	}
	return len(r.b) - r.pos
}

// Pos returns the current read offset.
func (r *Reader) Pos() int { return r.pos }

func (r *Reader) take(n int, field string) ([]byte, error) {
	if n < 0 || r.Len() < n {
		return nil, &ErrTruncated{Field: field, Need: n, Have: r.Len()}
	}
	start := r.pos
	r.pos += n
	return r.b[start:r.pos], nil
}

// ReadU8 reads one byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.take(1, "u8")
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16LE reads a 2-byte little-endian unsigned integer.
func (r *Reader) ReadU16LE() (uint16, error) {
	b, err := r.take(2, "u16le")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU16BE reads a 2-byte big-endian unsigned integer (used for NetworkAddress.Port).
func (r *Reader) ReadU16BE() (uint16, error) {
	b, err := r.take(2, "u16be")
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadU32LE reads a 4-byte little-endian unsigned integer.
func (r *Reader) ReadU32LE() (uint32, error) {
	b, err := r.take(4, "u32le")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadI32LE reads a 4-byte little-endian signed integer.
func (r *Reader) ReadI32LE() (int32, error) {
	v, err := r.ReadU32LE()
	return int32(v), err
}

// ReadU64LE reads an 8-byte little-endian unsigned integer.
func (r *Reader) ReadU64LE() (uint64, error) {
	b, err := r.take(8, "u64le")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadI64LE reads an 8-byte little-endian signed integer.
func (r *Reader) ReadI64LE() (int64, error) {
	v, err := r.ReadU64LE()
	return int64(v), err
}

// ReadBytes reads exactly n raw bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.take(n, "bytes")
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadHash32 reads a fixed 32-byte hash.
func (r *Reader) ReadHash32() ([32]byte, error) {
	var out [32]byte
	b, err := r.take(32, "hash32")
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// ReadVarInt reads a Bitcoin-style CompactSize varint: one tag byte, then
// 0/2/4/8 little-endian bytes depending on the tag. Readers accept any
// encoding, including non-minimal ones (spec: "readers accept any").
func (r *Reader) ReadVarInt() (uint64, error) {
	tag, err := r.ReadU8()
	if err != nil {
		return 0, err
	}
	switch {
	case tag < 0xFD:
		return uint64(tag), nil
	case tag == 0xFD:
		v, err := r.ReadU16LE()
		return uint64(v), err
	case tag == 0xFE:
		v, err := r.ReadU32LE()
		return uint64(v), err
	default: // 0xFF
		return r.ReadU64LE()
	}
}

// ReadVarString reads a varint length prefix followed by that many raw
// bytes, rejecting lengths above max with ErrOversizeString.
func (r *Reader) ReadVarString(max int) (string, error) {
	n, err := r.ReadVarInt()
	if err != nil {
		return "", err
	}
	if max >= 0 && n > uint64(max) {
		return "", &ErrOversizeString{Len: int(n), Max: max}
	}
	b, err := r.take(int(n), "varstring")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadVarBytes reads a varint length prefix followed by that many raw
// bytes, returning them as a byte slice (used for scripts and witness
// stack items rather than text).
func (r *Reader) ReadVarBytes(max int) ([]byte, error) {
	n, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if max >= 0 && n > uint64(max) {
		return nil, &ErrOversizeString{Len: int(n), Max: max}
	}
	return r.ReadBytes(int(n))
}

// Writer accumulates a serialized message into a growable buffer bounded
// only by the caller (the message codec enforces max_message_length, not
// this type).
type Writer struct {
	buf []byte
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// WriteU8 appends one byte.
func (w *Writer) WriteU8(v uint8) { w.buf = append(w.buf, v) }

// WriteU16LE appends a 2-byte little-endian unsigned integer.
func (w *Writer) WriteU16LE(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// WriteU16BE appends a 2-byte big-endian unsigned integer (NetworkAddress.Port).
func (w *Writer) WriteU16BE(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// WriteU32LE appends a 4-byte little-endian unsigned integer.
func (w *Writer) WriteU32LE(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// WriteI32LE appends a 4-byte little-endian signed integer.
func (w *Writer) WriteI32LE(v int32) { w.WriteU32LE(uint32(v)) }

// WriteU64LE appends an 8-byte little-endian unsigned integer.
func (w *Writer) WriteU64LE(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// WriteI64LE appends an 8-byte little-endian signed integer.
func (w *Writer) WriteI64LE(v int64) { w.WriteU64LE(uint64(v)) }

// WriteBytes appends raw bytes unchanged.
func (w *Writer) WriteBytes(b []byte) { w.buf = append(w.buf, b...) }

// VarIntWidth returns the number of bytes the minimal CompactSize encoding
// of n occupies (1, 3, 5, or 9).
func VarIntWidth(n uint64) int {
	switch {
	case n < 0xFD:
		return 1
	case n <= 0xFFFF:
		return 3
	case n <= 0xFFFFFFFF:
		return 5
	default:
		return 9
	}
}

// WriteVarInt appends the minimal CompactSize encoding of n.
func (w *Writer) WriteVarInt(n uint64) {
	switch {
	case n < 0xFD:
		w.WriteU8(uint8(n))
	case n <= 0xFFFF:
		w.WriteU8(0xFD)
		w.WriteU16LE(uint16(n))
	case n <= 0xFFFFFFFF:
		w.WriteU8(0xFE)
		w.WriteU32LE(uint32(n))
	default:
		w.WriteU8(0xFF)
		w.WriteU64LE(n)
	}
}

// WriteVarString appends a varint length prefix followed by the string's bytes.
func (w *Writer) WriteVarString(s string) {
	w.WriteVarInt(uint64(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteVarBytes appends a varint length prefix followed by b.
func (w *Writer) WriteVarBytes(b []byte) {
	w.WriteVarInt(uint64(len(b)))
	w.buf = append(w.buf, b...)
}
