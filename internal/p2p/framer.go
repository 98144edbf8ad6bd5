// Package p2p implements the per-peer framing and handshake state machine
// that sits between a raw TCP connection and the wire message codec, plus
// the address book the control loop dials from.
package p2p

import (
	"fmt"

	"github.com/dmills/btcnode/internal/wire"
)

type framerState int

const (
	framerIdle framerState = iota
	framerCollecting
	framerPoisoned
)

// ErrPoisoned is returned once a Framer has seen a header whose declared
// length exceeds MaxMessageLength; the peer owning it must be closed.
var ErrPoisoned = fmt.Errorf("p2p: framer poisoned by oversize length")

// Frame is one reassembled message: the raw header plus its payload
// bytes. Parsing into a wire.Message happens downstream.
type Frame struct {
	Header  wire.Header
	Payload []byte
}

// Framer reassembles a byte stream from one peer connection into discrete
// frames. It holds at most one partial frame at a time and never blocks:
// Push returns every frame a chunk completes, in order.
type Framer struct {
	magic  uint32
	maxLen uint32

	state framerState
	buf   []byte
	want  int // total bytes (header+payload) needed to complete buf
}

// NewFramer creates a Framer for a connection on the network identified
// by magic, rejecting any declared payload length above maxLen (0 selects
// wire.DefaultMaxMessageLength).
func NewFramer(magic uint32, maxLen uint32) *Framer {
	if maxLen == 0 {
		maxLen = wire.DefaultMaxMessageLength
	}
	return &Framer{magic: magic, maxLen: maxLen, state: framerIdle}
}

// Push feeds newly-arrived bytes into the framer and returns every frame
// they complete, in receive order. A single call may emit zero, one, or
// many frames depending on how the chunk lines up with frame boundaries.
func (f *Framer) Push(chunk []byte) ([]Frame, error) {
	var frames []Frame
	f.buf = append(f.buf, chunk...)

	for {
		if f.state == framerPoisoned {
			return frames, ErrPoisoned
		}

		if f.state == framerIdle {
			if len(f.buf) < wire.HeaderSize {
				return frames, nil
			}
			if !hasMagic(f.buf, f.magic) {
				// Discard the buffered bytes and keep listening; a
				// misaligned or foreign-network stream doesn't merit
				// tearing down the whole read loop by itself.
				f.buf = nil
				return frames, nil
			}
			h, err := wire.ReadHeader(wire.NewReader(f.buf[:wire.HeaderSize]))
			if err != nil {
				f.buf = nil
				return frames, err
			}
			if h.Length > f.maxLen {
				f.state = framerPoisoned
				return frames, ErrPoisoned
			}
			f.want = wire.HeaderSize + int(h.Length)
			f.state = framerCollecting
		}

		if len(f.buf) < f.want {
			return frames, nil
		}

		header, err := wire.ReadHeader(wire.NewReader(f.buf[:wire.HeaderSize]))
		if err != nil {
			f.buf = nil
			f.state = framerIdle
			return frames, err
		}
		payload := make([]byte, header.Length)
		copy(payload, f.buf[wire.HeaderSize:f.want])
		frames = append(frames, Frame{Header: header, Payload: payload})

		remainder := f.buf[f.want:]
		f.buf = append([]byte(nil), remainder...)
		f.state = framerIdle
		f.want = 0

		if len(f.buf) == 0 {
			return frames, nil
		}
		// Loop: the remainder may itself hold 0, 1, or many more frames.
	}
}

func hasMagic(b []byte, magic uint32) bool {
	if len(b) < 4 {
		return false
	}
	return b[0] == byte(magic) && b[1] == byte(magic>>8) && b[2] == byte(magic>>16) && b[3] == byte(magic>>24)
}
