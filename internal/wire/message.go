package wire

import "fmt"

// DefaultMaxMessageLength bounds a single message payload, guarding
// against a peer claiming an absurd length in the header before any
// bytes of the payload itself have arrived.
const DefaultMaxMessageLength = 32 * 1024 * 1024

// ErrBadMagic is returned when a header's magic does not match the
// network the reader was configured for.
type ErrBadMagic struct {
	Want, Got uint32
}

func (e *ErrBadMagic) Error() string {
	return fmt.Sprintf("wire: bad magic: want %#08x, got %#08x", e.Want, e.Got)
}

// ErrBadChecksum is returned when a payload's double-SHA-256 does not
// match the header's checksum field.
type ErrBadChecksum struct {
	Command string
}

func (e *ErrBadChecksum) Error() string {
	return fmt.Sprintf("wire: bad checksum for %q", e.Command)
}

// ErrOversizeMessage is returned when a header's declared length exceeds
// the configured maximum, before any payload bytes are read.
type ErrOversizeMessage struct {
	Command string
	Length  uint32
	Max     uint32
}

func (e *ErrOversizeMessage) Error() string {
	return fmt.Sprintf("wire: message %q declares length %d exceeding max %d", e.Command, e.Length, e.Max)
}

// ErrUnknownCommand is returned by ParseMessage when the command is not
// one this codec knows how to decode. It is informational, not fatal:
// callers may choose to skip the message and keep reading.
type ErrUnknownCommand struct {
	Command string
}

func (e *ErrUnknownCommand) Error() string {
	return fmt.Sprintf("wire: unknown command %q", e.Command)
}

// Message is a sum type over every payload this codec understands,
// replacing a pointer-to-opaque-payload-plus-command-string pattern: the
// Command field names which of the typed fields is populated, so callers
// switch on Command once instead of re-deriving the type from raw bytes
// at every call site.
type Message struct {
	Command string

	Version    *VersionPayload
	Verack     bool
	Addr       []AddressRecord
	GetAddr    bool
	Inv        []InventoryVector
	GetData    []InventoryVector
	NotFound   []InventoryVector
	Block      *Block
	Tx         *Transaction
	GetHeaders *GetHeadersPayload
	GetBlocks  *GetHeadersPayload
	Headers    []BlockHeader
	Ping       *PingPongPayload
	Pong       *PingPongPayload
	Reject     *RejectPayload
}

// ParseMessage decodes a raw payload according to command, returning
// ErrUnknownCommand for commands this codec doesn't carry a decoder for.
func ParseMessage(command string, payload []byte) (Message, error) {
	m := Message{Command: command}
	var err error
	switch command {
	case CmdVersion:
		v, e := DecodeVersionPayload(payload)
		m.Version, err = &v, e
	case CmdVerack:
		m.Verack = true
	case CmdAddr:
		m.Addr, err = DecodeAddr(payload)
	case CmdGetAddr:
		m.GetAddr = true
	case CmdInv:
		m.Inv, err = DecodeInv(payload)
	case CmdGetData:
		m.GetData, err = DecodeGetData(payload)
	case CmdNotFound:
		m.NotFound, err = DecodeNotFound(payload)
	case CmdBlock:
		b, e := ReadBlock(NewReader(payload))
		m.Block, err = &b, e
	case CmdTx:
		t, e := ReadTransaction(NewReader(payload))
		m.Tx, err = &t, e
	case CmdGetHeaders:
		g, e := DecodeGetHeaders(payload)
		m.GetHeaders, err = &g, e
	case CmdGetBlocks:
		g, e := DecodeGetBlocks(payload)
		m.GetBlocks, err = &g, e
	case CmdHeaders:
		m.Headers, err = DecodeHeaders(payload)
	case CmdPing:
		p, e := DecodePing(payload)
		m.Ping, err = &p, e
	case CmdPong:
		p, e := DecodePong(payload)
		m.Pong, err = &p, e
	case CmdReject:
		r, e := DecodeReject(payload)
		m.Reject, err = &r, e
	default:
		return m, &ErrUnknownCommand{Command: command}
	}
	if err != nil {
		return Message{}, err
	}
	return m, nil
}

// SerializeMessage renders m's populated payload field back to bytes
// according to m.Command.
func SerializeMessage(m Message) ([]byte, error) {
	switch m.Command {
	case CmdVersion:
		if m.Version == nil {
			return nil, fmt.Errorf("wire: version message missing payload")
		}
		return m.Version.Encode(), nil
	case CmdVerack, CmdGetAddr:
		return nil, nil
	case CmdAddr:
		return EncodeAddr(m.Addr), nil
	case CmdInv:
		return EncodeInv(m.Inv), nil
	case CmdGetData:
		return EncodeGetData(m.GetData), nil
	case CmdNotFound:
		return EncodeNotFound(m.NotFound), nil
	case CmdBlock:
		if m.Block == nil {
			return nil, fmt.Errorf("wire: block message missing payload")
		}
		return m.Block.Bytes(), nil
	case CmdTx:
		if m.Tx == nil {
			return nil, fmt.Errorf("wire: tx message missing payload")
		}
		return m.Tx.Bytes(), nil
	case CmdGetHeaders:
		if m.GetHeaders == nil {
			return nil, fmt.Errorf("wire: getheaders message missing payload")
		}
		return EncodeGetHeaders(*m.GetHeaders), nil
	case CmdGetBlocks:
		if m.GetBlocks == nil {
			return nil, fmt.Errorf("wire: getblocks message missing payload")
		}
		return EncodeGetBlocks(*m.GetBlocks), nil
	case CmdHeaders:
		return EncodeHeaders(m.Headers), nil
	case CmdPing:
		if m.Ping == nil {
			return nil, fmt.Errorf("wire: ping message missing payload")
		}
		return EncodePing(*m.Ping), nil
	case CmdPong:
		if m.Pong == nil {
			return nil, fmt.Errorf("wire: pong message missing payload")
		}
		return EncodePong(*m.Pong), nil
	case CmdReject:
		if m.Reject == nil {
			return nil, fmt.Errorf("wire: reject message missing payload")
		}
		return EncodeReject(*m.Reject), nil
	default:
		return nil, &ErrUnknownCommand{Command: m.Command}
	}
}

// ReadMessage reads one full frame (header + payload) from frame, which
// must hold exactly HeaderSize+Length bytes (the Framer in package p2p is
// responsible for reassembling that much from a stream before calling
// this). magic is the network's expected magic value; maxLen bounds the
// header's declared length (0 selects DefaultMaxMessageLength).
func ReadMessage(frame []byte, magic uint32, maxLen uint32) (Message, error) {
	if maxLen == 0 {
		maxLen = DefaultMaxMessageLength
	}
	r := NewReader(frame)
	h, err := ReadHeader(r)
	if err != nil {
		return Message{}, err
	}
	if h.Magic != magic {
		return Message{}, &ErrBadMagic{Want: magic, Got: h.Magic}
	}
	if h.Length > maxLen {
		return Message{}, &ErrOversizeMessage{Command: h.Command, Length: h.Length, Max: maxLen}
	}
	payload, err := r.ReadBytes(int(h.Length))
	if err != nil {
		return Message{}, err
	}
	if Checksum(payload) != h.Checksum {
		return Message{}, &ErrBadChecksum{Command: h.Command}
	}
	return ParseMessage(h.Command, payload)
}

// WriteMessage serializes m into a full wire frame (header + payload)
// under the given network magic.
func WriteMessage(m Message, magic uint32) ([]byte, error) {
	payload, err := SerializeMessage(m)
	if err != nil {
		return nil, err
	}
	h := Header{
		Magic:    magic,
		Command:  m.Command,
		Length:   uint32(len(payload)),
		Checksum: Checksum(payload),
	}
	w := NewWriter()
	if err := h.Write(w); err != nil {
		return nil, err
	}
	w.WriteBytes(payload)
	return w.Bytes(), nil
}
