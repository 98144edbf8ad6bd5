// Package control implements the node's control loop (the single
// goroutine owning the address book and block-index store) plus the
// per-peer goroutines it supervises, grounded in the teacher's
// observer.go/peers.go ObserveNode + StartPeerManager pattern.
package control

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmills/btcnode/internal/chain"
	"github.com/dmills/btcnode/internal/chainparams"
	"github.com/dmills/btcnode/internal/config"
	"github.com/dmills/btcnode/internal/logger"
	"github.com/dmills/btcnode/internal/metrics"
	"github.com/dmills/btcnode/internal/p2p"
	"github.com/dmills/btcnode/internal/store"
	"github.com/dmills/btcnode/internal/wire"
)

// Node is the node's in-memory state ("global" in spec §9's terms): the
// address book, block-index store, UTXO set, and the set of live peers.
// It is the control loop's single writer for all of these; per-peer
// goroutines reach them only through Node's methods.
type Node struct {
	cfg    config.Config
	params chainparams.Params

	addrBook  *p2p.AddrBook
	blocks    *store.Store
	bodiesDir string
	utxos     *store.UTXOSet
	validator *chain.Validator

	seenTxs, seenBlocks *seenSet

	peersMu sync.RWMutex
	peers   map[string]*p2p.Peer

	bestHeight uint32 // atomic

	nonce uint64
}

// New builds a Node from configuration, selecting chain parameters by
// cfg.Network and creating an empty (or disk-backed, if present)
// block-index store under cfg.DataDir.
func New(cfg config.Config) (*Node, error) {
	params, ok := chainparams.ByName(cfg.Network)
	if !ok {
		params = chainparams.Mainnet
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("control: create data dir: %w", err)
	}

	indexPath := cfg.DataDir + "/block_indices.dat"
	blocks, err := store.LoadFrom(indexPath)
	if err != nil {
		blocks = store.New()
	}

	utxos := store.NewUTXOSet()
	validatorParams := chain.DefaultParams()
	validatorParams.GenesisHash = params.GenesisHash
	validatorParams.ScriptSigSizeLower = cfg.ScriptSigSizeLower
	validatorParams.ScriptSigSizeUpper = cfg.ScriptSigSizeUpper
	validatorParams.MaxForwardTimestamp = cfg.BlockMaxForwardTimestamp

	n := &Node{
		cfg:        cfg,
		params:     params,
		addrBook:   p2p.NewAddrBook(),
		blocks:     blocks,
		bodiesDir:  cfg.DataDir + "/blocks",
		utxos:      utxos,
		seenTxs:    newSeenSet(),
		seenBlocks: newSeenSet(),
		peers:      make(map[string]*p2p.Peer),
		nonce:      p2p.NewNonce(),
	}
	n.validator = chain.NewValidator(validatorParams, n.blocks, n.utxos)
	metrics.SeedFromStore(n.blocks)
	return n, nil
}

// Run starts the listener (if cfg.Port is nonzero), the dial loop, the
// dedup-map cleanup routine, and the status reporter, then blocks until
// ctx is canceled, at which point it closes every peer and persists
// state to disk.
func (n *Node) Run(ctx context.Context) error {
	var ln net.Listener
	if n.cfg.Port != 0 {
		var err error
		ln, err = net.Listen("tcp", fmt.Sprintf(":%d", n.cfg.Port))
		if err != nil {
			return fmt.Errorf("control: listen on :%d: %w", n.cfg.Port, err)
		}
		go n.acceptLoop(ctx, ln)
	}

	n.startCleanupRoutine(ctx)
	n.startStatusReporter(ctx, 60*time.Second)
	n.startDialLoop(ctx)

	<-ctx.Done()

	if ln != nil {
		ln.Close()
	}
	n.closeAllPeers()
	return n.persist()
}

func (n *Node) persist() error {
	indexPath := n.cfg.DataDir + "/block_indices.dat"
	if err := n.blocks.SaveTo(indexPath); err != nil {
		logger.Log.Error().Err(err).Msg("failed to persist block index")
		return err
	}
	if err := n.savePeersBinary(n.cfg.DataDir + "/peers.dat"); err != nil {
		logger.Log.Error().Err(err).Msg("failed to persist peers.dat")
	}
	if err := n.exportPeersCSV(n.cfg.DataDir + "/peers.csv"); err != nil {
		logger.Log.Error().Err(err).Msg("failed to export peers.csv")
	}
	return nil
}

func (n *Node) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				logger.Log.Warn().Err(err).Msg("accept error")
				return
			}
		}
		go n.servePeer(ctx, conn, p2p.Inbound)
	}
}

func (n *Node) startDialLoop(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n.maintainOutgoing(ctx)
			}
		}
	}()
}

func (n *Node) maintainOutgoing(ctx context.Context) {
	n.peersMu.RLock()
	active := len(n.peers)
	n.peersMu.RUnlock()
	if active >= n.cfg.MaxOutgoing {
		return
	}
	need := n.cfg.MaxOutgoing - active
	for _, rec := range n.addrBook.PickDialCandidates(need) {
		go n.dial(ctx, rec.Addr.String())
	}
}

// DialSeed is exposed for startup-time seeding from explicit --peers
// addresses, bypassing the address book for the first connection(s).
func (n *Node) DialSeed(ctx context.Context, addr string) {
	go n.dial(ctx, addr)
}

func (n *Node) dial(ctx context.Context, addr string) {
	plog := logger.PeerLogger("outbound", addr)
	plog.Info().Msg("connecting")
	metrics.PeerConnections.Inc()

	conn, err := net.DialTimeout("tcp", addr, 15*time.Second)
	if err != nil {
		plog.Warn().Err(err).Msg("connection failed")
		return
	}
	n.servePeer(ctx, conn, p2p.Outbound)
}

func (n *Node) servePeer(ctx context.Context, conn net.Conn, dir p2p.Direction) {
	addr := conn.RemoteAddr().String()
	direction := "inbound"
	if dir == p2p.Outbound {
		direction = "outbound"
	}
	plog := logger.PeerLogger(direction, addr)

	peerCfg := p2p.Config{
		Magic:            n.params.Magic,
		MaxMessageLength: n.cfg.MaxMessageLength,
		MinPeerVersion:   n.cfg.MinPeerVersion,
		HandshakeTimeout: n.cfg.HandshakeTimeout,
		Version:          n.versionPayload(conn),
	}
	peer := p2p.NewPeer(conn, dir, peerCfg, n.handlers(), plog)

	n.peersMu.Lock()
	n.peers[addr] = peer
	n.peersMu.Unlock()
	metrics.PeersActive.Inc()

	defer func() {
		n.peersMu.Lock()
		delete(n.peers, addr)
		n.peersMu.Unlock()
		metrics.PeersActive.Dec()
		metrics.PeerDisconnections.Inc()
	}()

	if err := peer.Run(ctx); err != nil {
		plog.Warn().Err(err).Msg("peer run ended")
		metrics.PeerHandshakeFailures.Inc()
	}
}

func (n *Node) versionPayload(conn net.Conn) wire.VersionPayload {
	return wire.VersionPayload{
		Version:     n.cfg.ProtocolVersion,
		Services:    n.cfg.Services,
		Timestamp:   time.Now().Unix(),
		Nonce:       n.nonce,
		UserAgent:   n.cfg.UserAgent,
		StartHeight: int32(atomic.LoadUint32(&n.bestHeight)),
		Relay:       true,
	}
}

func (n *Node) closeAllPeers() {
	n.peersMu.RLock()
	defer n.peersMu.RUnlock()
	for _, p := range n.peers {
		p.Close()
	}
}

func (n *Node) handlers() p2p.Handlers {
	return p2p.Handlers{
		OnAddr:    n.handleAddr,
		OnInv:     n.handleInv,
		OnBlock:   n.handleBlock,
		OnHeaders: n.handleHeaders,
	}
}

func (n *Node) handleAddr(p *p2p.Peer, records []wire.AddressRecord) {
	metrics.LoopEventsTotal.Inc()
	for _, rec := range records {
		n.addrBook.Add(rec.Addr, rec.Timestamp)
	}
}

func (n *Node) handleInv(p *p2p.Peer, items []wire.InventoryVector) {
	metrics.LoopEventsTotal.Inc()
	var want []wire.InventoryVector
	for _, iv := range items {
		switch iv.Type {
		case wire.InvMsgTx:
			metrics.InvTxAnnouncements.Inc()
			if n.seenTxs.MarkSeen(iv.Hash) {
				want = append(want, iv)
			} else {
				metrics.TxDeduplicated.Inc()
			}
		case wire.InvMsgBlock:
			metrics.InvBlockAnnouncements.Inc()
			if !n.blocks.HasHeader(iv.Hash) && n.seenBlocks.MarkSeen(iv.Hash) {
				want = append(want, iv)
			}
		}
	}
	if len(want) > 0 {
		_ = p.Send(wire.Message{Command: wire.CmdGetData, GetData: want})
	}
}

func (n *Node) handleHeaders(p *p2p.Peer, headers []wire.BlockHeader) {
	metrics.LoopEventsTotal.Inc()
	if len(headers) == 0 {
		return
	}
	hashes := make([]wire.InventoryVector, 0, len(headers))
	for _, h := range headers {
		if !n.blocks.HasHeader(h.Hash()) {
			hashes = append(hashes, wire.InventoryVector{Type: wire.InvMsgBlock, Hash: h.Hash()})
		}
	}
	if len(hashes) > 0 {
		_ = p.Send(wire.Message{Command: wire.CmdGetData, GetData: hashes})
	}
}

func (n *Node) handleBlock(p *p2p.Peer, block wire.Block) {
	metrics.LoopEventsTotal.Inc()
	metrics.BlocksReceived.Inc()

	if err := n.validator.CheckBlock(block); err != nil {
		peerAddr := ""
		if p != nil {
			peerAddr = p.Addr()
		}
		if err == chain.ErrOrphan {
			logger.Log.Debug().Str("peer", peerAddr).Msg("orphan block, discarding")
			return
		}
		reason := "unknown"
		if ib, ok := err.(*chain.InvalidBlockError); ok {
			reason = ib.Reason.String()
		}
		metrics.BlocksRejected.WithLabelValues(reason).Inc()
		logger.Log.Warn().Str("peer", peerAddr).Str("reason", reason).Msg("invalid block")
		return
	}

	n.acceptBlock(block)
}

func (n *Node) acceptBlock(block wire.Block) {
	hash := block.Hash()

	if err := store.SaveBody(n.bodiesDir, hash, block.Bytes()); err != nil {
		logger.Log.Error().Err(err).Msg("failed to persist block body")
	}

	var height uint32
	if parent, ok := n.blocks.Get(block.Header.PrevBlock); ok {
		height = parent.Height + 1
	}

	n.blocks.Put(store.BlockIndex{
		Hash:       hash,
		PrevBlock:  block.Header.PrevBlock,
		MerkleRoot: block.Header.MerkleRoot,
		Timestamp:  block.Header.Timestamp,
		Target:     block.Header.Target,
		Nonce:      block.Header.Nonce,
		Version:    block.Header.Version,
		Height:     height,
	})
	n.utxos.ApplyBlock(block)

	metrics.BlockTxCount.Observe(float64(len(block.Txs)))
	if height > atomic.LoadUint32(&n.bestHeight) {
		atomic.StoreUint32(&n.bestHeight, height)
		metrics.BlockHeight.Set(float64(height))
	}
	metrics.BlockIndexSize.Set(float64(n.blocks.Len()))
}

func (n *Node) startStatusReporter(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n.peersMu.RLock()
				active := len(n.peers)
				n.peersMu.RUnlock()
				logger.Log.Info().
					Int("peers", active).
					Int("block_index_size", n.blocks.Len()).
					Uint32("height", atomic.LoadUint32(&n.bestHeight)).
					Msg("status")
			}
		}
	}()
}
