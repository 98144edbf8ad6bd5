// Package metrics exposes the node's Prometheus series, in the style of
// the teacher's metrics package: package-level promauto collectors plus
// an HTTP server exposing /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmills/btcnode/internal/store"
)

var (
	// Peer metrics
	PeersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "btcnode_peers_active",
		Help: "Number of currently active peer connections",
	})

	PeerConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "btcnode_peer_connections_total",
		Help: "Total number of peer connection attempts",
	})

	PeerDisconnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "btcnode_peer_disconnections_total",
		Help: "Total number of peer disconnections",
	})

	PeerHandshakeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "btcnode_peer_handshake_failures_total",
		Help: "Total number of handshake failures",
	})

	PeerLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "btcnode_peer_latency_ms",
		Help:    "Peer ping round-trip latency in milliseconds",
		Buckets: []float64{10, 25, 50, 100, 200, 500, 1000, 2000, 5000},
	})

	// Message metrics
	MessagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "btcnode_messages_received_total",
		Help: "Total messages received, by command",
	}, []string{"command"})

	InvTxAnnouncements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "btcnode_inv_tx_announcements_total",
		Help: "Total transaction announcements received via inv messages",
	})

	InvBlockAnnouncements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "btcnode_inv_block_announcements_total",
		Help: "Total block announcements received via inv messages",
	})

	// Block/tx metrics
	BlocksReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "btcnode_blocks_received_total",
		Help: "Total number of blocks received",
	})

	BlocksRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "btcnode_blocks_rejected_total",
		Help: "Total number of blocks rejected, by reason",
	}, []string{"reason"})

	BlockHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "btcnode_block_height",
		Help: "Current best-chain height",
	})

	BlockIndexSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "btcnode_block_index_size",
		Help: "Number of blocks held in the block index",
	})

	BlockTxCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "btcnode_block_transaction_count",
		Help:    "Number of transactions per accepted block",
		Buckets: []float64{1, 100, 500, 1000, 2000, 3000, 4000, 5000, 7500, 10000},
	})

	TxReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "btcnode_transactions_received_total",
		Help: "Total number of transactions received",
	})

	TxDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "btcnode_tx_deduplicated_total",
		Help: "Total transactions skipped due to deduplication",
	})

	SeenMapSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "btcnode_seen_map_size",
		Help: "Current size of the deduplication seen-hash maps",
	}, []string{"type"})

	// Miner metrics
	MinerHashesPerSecond = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "btcnode_miner_hashes_per_second",
		Help: "Most recently observed miner hash rate",
	})

	MinerSolutionsFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "btcnode_miner_solutions_found_total",
		Help: "Total satisfying nonces found by the miner",
	})

	// Event counter supplemented from original_source/'s global event
	// count (see SPEC_FULL.md §4.16): a single monotonic counter of
	// every control-loop event processed, useful for coarse liveness
	// checks independent of any one series above.
	LoopEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "btcnode_loop_events_total",
		Help: "Total events processed by the control loop",
	})
)

// SeedFromStore primes the restart-safe index-size gauge from the
// block-index store, the way the teacher's SeedFromDB primes counters
// from historical database totals. Block height is not seeded.
func SeedFromStore(s *store.Store) {
	BlockIndexSize.Set(float64(s.Len()))
}

// corsHandler wraps a handler with permissive CORS headers, matching the
// teacher's /metrics exposure style.
func corsHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartMetricsServer starts the Prometheus metrics HTTP server in the
// background and returns the *http.Server so callers can shut it down.
func StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", corsHandler(promhttp.Handler()))
	srv := &http.Server{Addr: addr, Handler: mux}
	go srv.ListenAndServe()
	return srv
}
