package control

import (
	"context"
	"sync"
	"time"

	"github.com/dmills/btcnode/internal/metrics"
)

const seenExpiry = 10 * time.Minute

// seenSet tracks hashes already requested via getdata, so a re-announced
// inv doesn't trigger a duplicate request, grounded in the teacher's
// seenTxs/seenBlocks maps.
type seenSet struct {
	mu sync.RWMutex
	m  map[[32]byte]time.Time
}

func newSeenSet() *seenSet { return &seenSet{m: make(map[[32]byte]time.Time)} }

// MarkSeen returns true the first time hash is seen.
func (s *seenSet) MarkSeen(hash [32]byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[hash]; ok {
		return false
	}
	s.m[hash] = time.Now()
	return true
}

func (s *seenSet) cleanup(label string) {
	cutoff := time.Now().Add(-seenExpiry)
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, t := range s.m {
		if t.Before(cutoff) {
			delete(s.m, hash)
		}
	}
	metrics.SeenMapSize.WithLabelValues(label).Set(float64(len(s.m)))
}

func (n *Node) startCleanupRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n.seenTxs.cleanup("tx")
				n.seenBlocks.cleanup("block")
			}
		}
	}()
}
