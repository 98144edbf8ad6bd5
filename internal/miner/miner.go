// Package miner implements the nonce search (C8): scanning a block
// header's nonce field for a value whose double-SHA-256 satisfies the
// header's compact target.
package miner

import (
	"context"

	"github.com/dmills/btcnode/internal/chain"
	"github.com/dmills/btcnode/internal/wire"
)

// Mine scans nonce ∈ [startNonce, math.MaxUint32] and returns the first
// value for which the resulting header hash satisfies its target. ok is
// false if ctx is canceled or the range is exhausted without a solution.
func Mine(ctx context.Context, header wire.BlockHeader, startNonce uint32) (nonce uint32, ok bool) {
	h := header
	n := startNonce
	for {
		select {
		case <-ctx.Done():
			return 0, false
		default:
		}
		h.Nonce = n
		if chain.HashSatisfiesTarget(h.Hash(), h.Target) {
			return n, true
		}
		if n == ^uint32(0) {
			return 0, false
		}
		n++
	}
}

// MineRange scans only nonce ∈ [startNonce, startNonce+count), for
// partitioning the search space across worker goroutines with disjoint
// ranges.
func MineRange(ctx context.Context, header wire.BlockHeader, startNonce, count uint32) (nonce uint32, ok bool) {
	h := header
	for i := uint32(0); i < count; i++ {
		select {
		case <-ctx.Done():
			return 0, false
		default:
		}
		n := startNonce + i
		h.Nonce = n
		if chain.HashSatisfiesTarget(h.Hash(), h.Target) {
			return n, true
		}
	}
	return 0, false
}

// MineParallel partitions [startNonce, math.MaxUint32] into workers
// disjoint ranges and returns the first solution found by any of them,
// canceling the others.
func MineParallel(ctx context.Context, header wire.BlockHeader, startNonce uint32, workers int) (uint32, bool) {
	if workers < 1 {
		workers = 1
	}
	total := uint64(^uint32(0)) - uint64(startNonce) + 1
	share := uint32(total / uint64(workers))
	if share == 0 {
		share = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		nonce uint32
		ok    bool
	}
	results := make(chan result, workers)

	for w := 0; w < workers; w++ {
		begin := startNonce + uint32(w)*share
		count := share
		if w == workers-1 {
			count = uint32(total) - share*uint32(workers-1)
		}
		go func(begin, count uint32) {
			nonce, ok := MineRange(ctx, header, begin, count)
			results <- result{nonce, ok}
		}(begin, count)
	}

	for i := 0; i < workers; i++ {
		r := <-results
		if r.ok {
			cancel()
			return r.nonce, true
		}
	}
	return 0, false
}
