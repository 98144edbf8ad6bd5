package wire

// InvType identifies what an InventoryVector refers to.
type InvType uint32

const (
	InvError            InvType = 0
	InvMsgTx            InvType = 1
	InvMsgBlock         InvType = 2
	InvMsgFilteredBlock InvType = 3
	InvMsgCmpctBlock    InvType = 4
)

// InventoryVector identifies an object a peer has or wants.
type InventoryVector struct {
	Type InvType
	Hash [32]byte
}

const maxInvCount = 50_000

func readInvVector(r *Reader) (InventoryVector, error) {
	var iv InventoryVector
	t, err := r.ReadU32LE()
	if err != nil {
		return iv, err
	}
	h, err := r.ReadHash32()
	if err != nil {
		return iv, err
	}
	iv.Type = InvType(t)
	iv.Hash = h
	return iv, nil
}

func (iv InventoryVector) write(w *Writer) {
	w.WriteU32LE(uint32(iv.Type))
	w.WriteBytes(iv.Hash[:])
}

func readInvVectorList(r *Reader) ([]InventoryVector, error) {
	count, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if count > maxInvCount {
		return nil, &ErrOversizeString{Len: int(count), Max: maxInvCount}
	}
	out := make([]InventoryVector, 0, count)
	for i := uint64(0); i < count; i++ {
		iv, err := readInvVector(r)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, nil
}

func encodeInvVectorList(items []InventoryVector) []byte {
	w := NewWriter()
	w.WriteVarInt(uint64(len(items)))
	for _, iv := range items {
		iv.write(w)
	}
	return w.Bytes()
}

// DecodeInv parses an inv message payload.
func DecodeInv(payload []byte) ([]InventoryVector, error) {
	return readInvVectorList(NewReader(payload))
}

// EncodeInv serializes an inv message payload.
func EncodeInv(items []InventoryVector) []byte { return encodeInvVectorList(items) }

// DecodeGetData parses a getdata message payload (same wire shape as inv).
func DecodeGetData(payload []byte) ([]InventoryVector, error) {
	return readInvVectorList(NewReader(payload))
}

// EncodeGetData serializes a getdata message payload.
func EncodeGetData(items []InventoryVector) []byte { return encodeInvVectorList(items) }

// DecodeNotFound parses a notfound message payload (same wire shape as inv).
func DecodeNotFound(payload []byte) ([]InventoryVector, error) {
	return readInvVectorList(NewReader(payload))
}

// EncodeNotFound serializes a notfound message payload.
func EncodeNotFound(items []InventoryVector) []byte { return encodeInvVectorList(items) }

const maxAddrCount = 10_000

// DecodeAddr parses an addr message payload: a varint count of timestamped
// address records.
func DecodeAddr(payload []byte) ([]AddressRecord, error) {
	r := NewReader(payload)
	count, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if count > maxAddrCount {
		return nil, &ErrOversizeString{Len: int(count), Max: maxAddrCount}
	}
	out := make([]AddressRecord, 0, count)
	for i := uint64(0); i < count; i++ {
		rec, err := ReadAddressRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// EncodeAddr serializes an addr message payload.
func EncodeAddr(records []AddressRecord) []byte {
	w := NewWriter()
	w.WriteVarInt(uint64(len(records)))
	for _, rec := range records {
		rec.Write(w)
	}
	return w.Bytes()
}
