package wire

import (
	"fmt"

	"github.com/dmills/btcnode/internal/bchash"
)

// HeaderSize is the fixed length in bytes of a message header: magic(4) +
// command(12) + length(4) + checksum(4).
const HeaderSize = 24

// CommandSize is the fixed width of the zero-padded ASCII command field.
const CommandSize = 12

// Recognized command strings (spec §2/§4.4).
const (
	CmdVersion     = "version"
	CmdVerack      = "verack"
	CmdAddr        = "addr"
	CmdGetAddr     = "getaddr"
	CmdInv         = "inv"
	CmdGetData     = "getdata"
	CmdNotFound    = "notfound"
	CmdBlock       = "block"
	CmdTx          = "tx"
	CmdGetHeaders  = "getheaders"
	CmdGetBlocks   = "getblocks"
	CmdHeaders     = "headers"
	CmdPing        = "ping"
	CmdPong        = "pong"
	CmdReject      = "reject"
)

// Header is the 24-byte message prefix common to every frame.
type Header struct {
	Magic    uint32
	Command  string
	Length   uint32
	Checksum [4]byte
}

// EncodeCommand renders cmd as a 12-byte zero-padded ASCII field.
func EncodeCommand(cmd string) ([CommandSize]byte, error) {
	var out [CommandSize]byte
	if len(cmd) == 0 || len(cmd) > CommandSize {
		return out, fmt.Errorf("wire: command %q has invalid length", cmd)
	}
	for i := 0; i < len(cmd); i++ {
		if cmd[i] >= 0x80 {
			return out, fmt.Errorf("wire: command %q is not ASCII", cmd)
		}
	}
	copy(out[:], cmd)
	return out, nil
}

// DecodeCommand reads a 12-byte zero-padded ASCII command field back into
// a string, requiring the padding to be all-NUL after the first zero.
func DecodeCommand(b [CommandSize]byte) (string, error) {
	n := CommandSize
	for i, c := range b {
		if c == 0 {
			n = i
			break
		}
	}
	for i := n; i < CommandSize; i++ {
		if b[i] != 0 {
			return "", fmt.Errorf("wire: command field not zero-padded")
		}
	}
	return string(b[:n]), nil
}

// Write serializes a Header, given the already-computed payload
// checksum.
func (h Header) Write(w *Writer) error {
	cmd, err := EncodeCommand(h.Command)
	if err != nil {
		return err
	}
	w.WriteU32LE(h.Magic)
	w.WriteBytes(cmd[:])
	w.WriteU32LE(h.Length)
	w.WriteBytes(h.Checksum[:])
	return nil
}

// ReadHeader reads a 24-byte Header from r. Unknown commands are not an
// error here — the codec is kept forward-compatible; rejecting by command
// happens (if at all) downstream.
func ReadHeader(r *Reader) (Header, error) {
	var h Header
	var err error
	if h.Magic, err = r.ReadU32LE(); err != nil {
		return h, err
	}
	var cmdBytes [CommandSize]byte
	raw, err := r.ReadBytes(CommandSize)
	if err != nil {
		return h, err
	}
	copy(cmdBytes[:], raw)
	if h.Command, err = DecodeCommand(cmdBytes); err != nil {
		return h, err
	}
	if h.Length, err = r.ReadU32LE(); err != nil {
		return h, err
	}
	cksum, err := r.ReadBytes(4)
	if err != nil {
		return h, err
	}
	copy(h.Checksum[:], cksum)
	return h, nil
}

// Checksum computes the message-header checksum for a payload: the first
// four bytes of its double-SHA-256.
func Checksum(payload []byte) [4]byte {
	return bchash.DoubleSHA256Checksum(payload)
}
