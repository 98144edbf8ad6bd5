package wire

const maxUserAgentLen = 256

// VersionPayload is the payload of the version message exchanged during
// the handshake.
type VersionPayload struct {
	Version     int32
	Services    uint64
	Timestamp   int64
	AddrRecv    NetworkAddress
	AddrFrom    NetworkAddress
	Nonce       uint64
	UserAgent   string
	StartHeight int32
	Relay       bool
}

// DecodeVersionPayload parses a version message payload. Relay is
// optional in versions below 70001; absent, it defaults to true (the
// pre-BIP37 behavior of "always relay").
func DecodeVersionPayload(payload []byte) (VersionPayload, error) {
	var v VersionPayload
	r := NewReader(payload)
	var err error
	if v.Version, err = r.ReadI32LE(); err != nil {
		return v, err
	}
	if v.Services, err = r.ReadU64LE(); err != nil {
		return v, err
	}
	if v.Timestamp, err = r.ReadI64LE(); err != nil {
		return v, err
	}
	if v.AddrRecv, err = ReadNetworkAddress(r); err != nil {
		return v, err
	}
	if v.AddrFrom, err = ReadNetworkAddress(r); err != nil {
		return v, err
	}
	if v.Nonce, err = r.ReadU64LE(); err != nil {
		return v, err
	}
	if v.UserAgent, err = r.ReadVarString(maxUserAgentLen); err != nil {
		return v, err
	}
	if v.StartHeight, err = r.ReadI32LE(); err != nil {
		return v, err
	}
	v.Relay = true
	if r.Len() > 0 {
		relay, err := r.ReadU8()
		if err != nil {
			return v, err
		}
		v.Relay = relay != 0
	}
	return v, nil
}

// Encode serializes the version payload. The serializer is the single
// source of truth for the bytes whose double-SHA-256 becomes the message
// checksum — never re-derive the checksum from a separately-maintained
// buffer.
func (v VersionPayload) Encode() []byte {
	w := NewWriter()
	w.WriteI32LE(v.Version)
	w.WriteU64LE(v.Services)
	w.WriteI64LE(v.Timestamp)
	v.AddrRecv.Write(w)
	v.AddrFrom.Write(w)
	w.WriteU64LE(v.Nonce)
	w.WriteVarString(v.UserAgent)
	w.WriteI32LE(v.StartHeight)
	if v.Version >= 70001 {
		if v.Relay {
			w.WriteU8(1)
		} else {
			w.WriteU8(0)
		}
	}
	return w.Bytes()
}
