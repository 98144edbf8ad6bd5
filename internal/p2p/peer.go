package p2p

import (
	"bufio"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmills/btcnode/internal/wire"
)

// State is one position in the peer handshake state machine (C4):
// Connecting → SentVersion → HalfDone → Ready → Closed.
type State int

const (
	StateConnecting State = iota
	StateSentVersion
	StateHalfDone
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSentVersion:
		return "sent_version"
	case StateHalfDone:
		return "half_done"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Direction distinguishes a connection this node initiated from one it
// accepted, which changes who speaks first in the handshake.
type Direction int

const (
	Outbound Direction = iota
	Inbound
)

// Handlers are the Ready-state message callbacks the control loop
// supplies. They are invoked synchronously from the peer's read loop, so
// implementations that need to touch shared state must do their own
// locking (or hand the work to a channel) rather than block here for long.
type Handlers struct {
	OnAddr    func(p *Peer, records []wire.AddressRecord)
	OnInv     func(p *Peer, items []wire.InventoryVector)
	OnBlock   func(p *Peer, block wire.Block)
	OnTx      func(p *Peer, tx wire.Transaction)
	OnHeaders func(p *Peer, headers []wire.BlockHeader)
	OnReject  func(p *Peer, reject wire.RejectPayload)
}

// Config bundles the protocol parameters a Peer needs, independent of
// any one connection.
type Config struct {
	Magic            uint32
	MaxMessageLength uint32
	MinPeerVersion   int32
	HandshakeTimeout time.Duration
	Version          wire.VersionPayload // this node's outgoing version payload template
}

// Peer owns one connection's framer and handshake state. There is
// exactly one Peer per connection and exactly one goroutine running its
// read loop, matching the spec's "neither is shared across tasks."
type Peer struct {
	conn      net.Conn
	addr      string
	direction Direction
	cfg       Config
	handlers  Handlers
	log       zerolog.Logger
	framer    *Framer

	writeMu sync.Mutex

	mu         sync.RWMutex
	state      State
	acceptThem bool
	acceptUs   bool

	closeOnce sync.Once
	closed    chan struct{}
}

// NewPeer wraps an already-established connection. log should already
// carry peer/addr context (see logger.PeerLogger).
func NewPeer(conn net.Conn, direction Direction, cfg Config, handlers Handlers, log zerolog.Logger) *Peer {
	return &Peer{
		conn:      conn,
		addr:      conn.RemoteAddr().String(),
		direction: direction,
		cfg:       cfg,
		handlers:  handlers,
		log:       log,
		framer:    NewFramer(cfg.Magic, cfg.MaxMessageLength),
		state:     StateConnecting,
		closed:    make(chan struct{}),
	}
}

// Addr returns the remote address string.
func (p *Peer) Addr() string { return p.addr }

// State returns the peer's current handshake/session state.
func (p *Peer) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Peer) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Send serializes and writes one message, guarding against interleaved
// writes from concurrent callers (the read loop replies to ping/getaddr
// while the control loop may also be pushing inv/getdata).
func (p *Peer) Send(m wire.Message) error {
	buf, err := wire.WriteMessage(m, p.cfg.Magic)
	if err != nil {
		return fmt.Errorf("p2p: encode %s: %w", m.Command, err)
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_, err = p.conn.Write(buf)
	return err
}

// Close tears the connection down and transitions to Closed. Idempotent.
func (p *Peer) Close() {
	p.closeOnce.Do(func() {
		p.setState(StateClosed)
		p.conn.Close()
		close(p.closed)
	})
}

// Done returns a channel closed once the peer has entered Closed.
func (p *Peer) Done() <-chan struct{} { return p.closed }

// Run drives the handshake and then the Ready-state message loop until
// ctx is canceled, the connection errs out, or a protocol violation
// closes the peer. It always returns with the peer Closed.
func (p *Peer) Run(ctx context.Context) error {
	defer p.Close()

	if p.direction == Outbound {
		if err := p.Send(wire.Message{Command: wire.CmdVersion, Version: &p.cfg.Version}); err != nil {
			return fmt.Errorf("p2p: send version: %w", err)
		}
		p.setState(StateSentVersion)
	}

	handshakeDeadline := time.Now().Add(p.cfg.HandshakeTimeout)

	r := bufio.NewReader(p.conn)
	readBuf := make([]byte, 64*1024)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if p.State() != StateReady && time.Now().After(handshakeDeadline) {
			p.log.Warn().Msg("handshake timed out")
			return fmt.Errorf("p2p: handshake timeout")
		}

		p.conn.SetReadDeadline(time.Now().Add(10 * time.Minute))
		n, err := r.Read(readBuf)
		if n > 0 {
			frames, ferr := p.framer.Push(readBuf[:n])
			for _, f := range frames {
				if herr := p.handleFrame(ctx, f); herr != nil {
					p.log.Warn().Err(herr).Str("command", f.Header.Command).Msg("protocol violation")
					return herr
				}
			}
			if ferr != nil {
				p.log.Warn().Err(ferr).Msg("framer error")
				return ferr
			}
		}
		if err != nil {
			if err == io.EOF {
				p.log.Info().Msg("connection closed by peer")
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				p.log.Warn().Msg("connection timeout")
				return ne
			}
			return err
		}
	}
}

func (p *Peer) handleFrame(ctx context.Context, f Frame) error {
	msg, err := wire.ParseMessage(f.Header.Command, f.Payload)
	if err != nil {
		if _, ok := err.(*wire.ErrUnknownCommand); ok {
			p.log.Debug().Str("command", f.Header.Command).Msg("unknown command, skipping")
			return nil
		}
		return err
	}

	state := p.State()
	if state != StateReady {
		return p.handleHandshake(msg)
	}
	return p.handleReady(msg)
}

func (p *Peer) handleHandshake(msg wire.Message) error {
	switch msg.Command {
	case wire.CmdVersion:
		if msg.Version == nil {
			return fmt.Errorf("p2p: malformed version payload")
		}
		if p.direction == Inbound {
			if err := p.Send(wire.Message{Command: wire.CmdVersion, Version: &p.cfg.Version}); err != nil {
				return err
			}
			p.setState(StateSentVersion)
		}
		if msg.Version.Version < p.cfg.MinPeerVersion {
			return fmt.Errorf("p2p: peer version %d below minimum %d", msg.Version.Version, p.cfg.MinPeerVersion)
		}
		p.mu.Lock()
		p.acceptThem = true
		p.mu.Unlock()
		if err := p.Send(wire.Message{Command: wire.CmdVerack}); err != nil {
			return err
		}
		return p.maybeReady()
	case wire.CmdVerack:
		p.mu.Lock()
		p.acceptUs = true
		p.mu.Unlock()
		return p.maybeReady()
	default:
		return fmt.Errorf("p2p: unexpected message %q during handshake", msg.Command)
	}
}

func (p *Peer) maybeReady() error {
	p.mu.Lock()
	ready := p.acceptThem && p.acceptUs
	if ready {
		p.state = StateReady
	} else {
		p.state = StateHalfDone
	}
	p.mu.Unlock()

	if ready {
		p.log.Info().Msg("handshake complete")
		return p.Send(wire.Message{Command: wire.CmdGetAddr})
	}
	return nil
}

func (p *Peer) handleReady(msg wire.Message) error {
	switch msg.Command {
	case wire.CmdAddr:
		if p.handlers.OnAddr != nil {
			p.handlers.OnAddr(p, msg.Addr)
		}
	case wire.CmdInv:
		if p.handlers.OnInv != nil {
			p.handlers.OnInv(p, msg.Inv)
		}
	case wire.CmdBlock:
		if msg.Block != nil && p.handlers.OnBlock != nil {
			p.handlers.OnBlock(p, *msg.Block)
		}
	case wire.CmdTx:
		if msg.Tx != nil && p.handlers.OnTx != nil {
			p.handlers.OnTx(p, *msg.Tx)
		}
	case wire.CmdHeaders:
		if p.handlers.OnHeaders != nil {
			p.handlers.OnHeaders(p, msg.Headers)
		}
	case wire.CmdPing:
		if msg.Ping != nil {
			return p.Send(wire.Message{Command: wire.CmdPong, Pong: &wire.PingPongPayload{Nonce: msg.Ping.Nonce}})
		}
	case wire.CmdPong:
		// latency accounting is the control loop's concern; nothing to do here.
	case wire.CmdGetAddr:
		// answered by the control loop via Handlers if it wants to; the
		// bare handshake loop has no address book of its own to offer.
	case wire.CmdReject:
		if msg.Reject != nil && p.handlers.OnReject != nil {
			p.handlers.OnReject(p, *msg.Reject)
		}
	case wire.CmdGetHeaders, wire.CmdGetBlocks, wire.CmdGetData, wire.CmdNotFound, wire.CmdVersion, wire.CmdVerack:
		p.log.Debug().Str("command", msg.Command).Msg("unhandled ready-state command")
	default:
		p.log.Debug().Str("command", msg.Command).Msg("unknown command, dropping")
	}
	return nil
}

// NewNonce generates a random 64-bit nonce for version/ping payloads.
func NewNonce() uint64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}
