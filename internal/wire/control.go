package wire

const maxRejectReasonLen = 256

// RejectCode enumerates the reason codes a reject message can carry.
type RejectCode uint8

const (
	RejectMalformed       RejectCode = 0x01
	RejectInvalid         RejectCode = 0x10
	RejectObsolete        RejectCode = 0x11
	RejectDuplicate       RejectCode = 0x12
	RejectNonstandard     RejectCode = 0x40
	RejectDust            RejectCode = 0x41
	RejectInsufficientFee RejectCode = 0x42
	RejectCheckpoint      RejectCode = 0x43
)

// PingPongPayload is the 8-byte nonce payload shared by ping and pong.
type PingPongPayload struct {
	Nonce uint64
}

// DecodePing parses a ping message payload.
func DecodePing(payload []byte) (PingPongPayload, error) { return decodePingPong(payload) }

// DecodePong parses a pong message payload.
func DecodePong(payload []byte) (PingPongPayload, error) { return decodePingPong(payload) }

func decodePingPong(payload []byte) (PingPongPayload, error) {
	var p PingPongPayload
	r := NewReader(payload)
	nonce, err := r.ReadU64LE()
	if err != nil {
		return p, err
	}
	p.Nonce = nonce
	return p, nil
}

// EncodePing serializes a ping message payload.
func EncodePing(p PingPongPayload) []byte { return encodePingPong(p) }

// EncodePong serializes a pong message payload.
func EncodePong(p PingPongPayload) []byte { return encodePingPong(p) }

func encodePingPong(p PingPongPayload) []byte {
	w := NewWriter()
	w.WriteU64LE(p.Nonce)
	return w.Bytes()
}

// RejectPayload is the payload of a reject message: the rejected message
// name, a reason code, a human-readable reason string, and (for block/tx
// rejections) the 32-byte hash of the rejected object.
type RejectPayload struct {
	Message string
	Code    RejectCode
	Reason  string
	Data    []byte
}

// DecodeReject parses a reject message payload. Data is optional and, per
// the reference protocol, only present for tx/block rejections; any
// trailing bytes after Reason are captured verbatim without assuming a
// fixed width.
func DecodeReject(payload []byte) (RejectPayload, error) {
	var p RejectPayload
	r := NewReader(payload)
	var err error
	if p.Message, err = r.ReadVarString(maxUserAgentLen); err != nil {
		return p, err
	}
	code, err := r.ReadU8()
	if err != nil {
		return p, err
	}
	p.Code = RejectCode(code)
	if p.Reason, err = r.ReadVarString(maxRejectReasonLen); err != nil {
		return p, err
	}
	if r.Len() > 0 {
		data, err := r.ReadBytes(r.Len())
		if err != nil {
			return p, err
		}
		p.Data = data
	}
	return p, nil
}

// EncodeReject serializes a reject message payload.
func EncodeReject(p RejectPayload) []byte {
	w := NewWriter()
	w.WriteVarString(p.Message)
	w.WriteU8(uint8(p.Code))
	w.WriteVarString(p.Reason)
	if len(p.Data) > 0 {
		w.WriteBytes(p.Data)
	}
	return w.Bytes()
}
