package wire

const maxLocatorHashes = 2_000

// GetHeadersPayload requests headers starting from one of the locator
// hashes, stopping at hashStop (or at the peer's tip if hashStop is zero).
// getblocks shares the identical wire shape.
type GetHeadersPayload struct {
	Version   uint32
	Locator   [][32]byte
	HashStop  [32]byte
}

func decodeLocatorPayload(payload []byte) (GetHeadersPayload, error) {
	var p GetHeadersPayload
	r := NewReader(payload)
	var err error
	if p.Version, err = r.ReadU32LE(); err != nil {
		return p, err
	}
	count, err := r.ReadVarInt()
	if err != nil {
		return p, err
	}
	if count > maxLocatorHashes {
		return p, &ErrOversizeString{Len: int(count), Max: maxLocatorHashes}
	}
	locator := make([][32]byte, 0, count)
	for i := uint64(0); i < count; i++ {
		h, err := r.ReadHash32()
		if err != nil {
			return p, err
		}
		locator = append(locator, h)
	}
	p.Locator = locator
	if p.HashStop, err = r.ReadHash32(); err != nil {
		return p, err
	}
	return p, nil
}

func (p GetHeadersPayload) encode() []byte {
	w := NewWriter()
	w.WriteU32LE(p.Version)
	w.WriteVarInt(uint64(len(p.Locator)))
	for _, h := range p.Locator {
		w.WriteBytes(h[:])
	}
	w.WriteBytes(p.HashStop[:])
	return w.Bytes()
}

// DecodeGetHeaders parses a getheaders message payload.
func DecodeGetHeaders(payload []byte) (GetHeadersPayload, error) { return decodeLocatorPayload(payload) }

// EncodeGetHeaders serializes a getheaders message payload.
func EncodeGetHeaders(p GetHeadersPayload) []byte { return p.encode() }

// DecodeGetBlocks parses a getblocks message payload (identical shape to getheaders).
func DecodeGetBlocks(payload []byte) (GetHeadersPayload, error) { return decodeLocatorPayload(payload) }

// EncodeGetBlocks serializes a getblocks message payload.
func EncodeGetBlocks(p GetHeadersPayload) []byte { return p.encode() }

const maxHeadersCount = 2_000

// DecodeHeaders parses a headers message payload: a varint count of block
// headers, each followed by a transaction-count varint that is always
// zero on the wire (headers carry no transactions).
func DecodeHeaders(payload []byte) ([]BlockHeader, error) {
	r := NewReader(payload)
	count, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if count > maxHeadersCount {
		return nil, &ErrOversizeString{Len: int(count), Max: maxHeadersCount}
	}
	out := make([]BlockHeader, 0, count)
	for i := uint64(0); i < count; i++ {
		h, err := ReadBlockHeader(r)
		if err != nil {
			return nil, err
		}
		if _, err := r.ReadVarInt(); err != nil { // trailing tx-count, always 0
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// EncodeHeaders serializes a headers message payload.
func EncodeHeaders(headers []BlockHeader) []byte {
	w := NewWriter()
	w.WriteVarInt(uint64(len(headers)))
	for _, h := range headers {
		h.Write(w)
		w.WriteVarInt(0)
	}
	return w.Bytes()
}
