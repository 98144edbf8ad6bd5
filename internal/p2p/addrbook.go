package p2p

import (
	"math/rand"
	"sync"
	"time"

	"github.com/dmills/btcnode/internal/wire"
)

// MaxAddrCache bounds the address book; once full, the record with the
// oldest timestamp is evicted to make room for a new one.
const MaxAddrCache = 4096

type addrEntry struct {
	record    wire.AddressRecord
	timestamp uint32
}

// AddrBook is the node's IP-keyed address book (C5). The zero value is
// not usable; construct with NewAddrBook. Safe for concurrent use: the
// control loop is the single writer, and readers take a point-in-time
// snapshot for dialing, matching the teacher's PeerManager locking style.
type AddrBook struct {
	mu      sync.RWMutex
	byIP    map[[16]byte]*addrEntry
}

// NewAddrBook creates an empty address book.
func NewAddrBook() *AddrBook {
	return &AddrBook{byIP: make(map[[16]byte]*addrEntry)}
}

// Add inserts or updates the record for addr.IP. If inserting a brand new
// IP would exceed MaxAddrCache, the entry with the oldest timestamp is
// dropped first.
func (b *AddrBook) Add(addr wire.NetworkAddress, ts uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.byIP[addr.IP]; ok {
		existing.record = wire.AddressRecord{Timestamp: ts, Addr: addr}
		existing.timestamp = ts
		return
	}

	if len(b.byIP) >= MaxAddrCache {
		b.evictOldestLocked()
	}
	b.byIP[addr.IP] = &addrEntry{
		record:    wire.AddressRecord{Timestamp: ts, Addr: addr},
		timestamp: ts,
	}
}

func (b *AddrBook) evictOldestLocked() {
	var oldestIP [16]byte
	var oldestTS uint32 = ^uint32(0)
	first := true
	for ip, e := range b.byIP {
		if first || e.timestamp < oldestTS {
			oldestIP = ip
			oldestTS = e.timestamp
			first = false
		}
	}
	if !first {
		delete(b.byIP, oldestIP)
	}
}

// Dedupe merges records into the book, keeping for each IP whichever of
// the existing entry and the incoming records has the newest timestamp.
// The book itself is keyed by IP, so it never holds two records for one IP.
func (b *AddrBook) Dedupe(records []wire.AddressRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, rec := range records {
		existing, ok := b.byIP[rec.Addr.IP]
		if !ok || rec.Timestamp > existing.timestamp {
			b.byIP[rec.Addr.IP] = &addrEntry{record: rec, timestamp: rec.Timestamp}
		}
	}
}

// ClearOld removes every record whose age (now - timestamp) exceeds life.
// Disabled records (timestamp 0) are kept.
func (b *AddrBook) ClearOld(now time.Time, life time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cutoff := uint32(now.Add(-life).Unix())
	for ip, e := range b.byIP {
		if e.timestamp != 0 && e.timestamp < cutoff {
			delete(b.byIP, ip)
		}
	}
}

// Disable sets ip's timestamp to the sentinel 0, excluding it from future
// dial candidate selection without removing its history.
func (b *AddrBook) Disable(ip [16]byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.byIP[ip]; ok {
		e.timestamp = 0
		e.record.Timestamp = 0
	}
}

// SetServices updates the advertised service bits for ip in place.
func (b *AddrBook) SetServices(ip [16]byte, services uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.byIP[ip]; ok {
		e.record.Addr.Services = services
	}
}

// SetTimestamp updates ip's last-seen timestamp in place.
func (b *AddrBook) SetTimestamp(ip [16]byte, ts uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.byIP[ip]; ok {
		e.timestamp = ts
		e.record.Timestamp = ts
	}
}

// Len returns the number of records currently held.
func (b *AddrBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byIP)
}

// Snapshot returns every currently-held record, for export (peers.csv)
// or inspection. The slice is a copy; mutating it does not affect the book.
func (b *AddrBook) Snapshot() []wire.AddressRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]wire.AddressRecord, 0, len(b.byIP))
	for _, e := range b.byIP {
		out = append(out, e.record)
	}
	return out
}

// PickDialCandidates returns up to k enabled (non-zero-timestamp) records
// in uniformly-random order, via a Fisher-Yates shuffle of a point-in-time
// snapshot — replacing the modulo-offset arithmetic in the original
// implementation, which could select an out-of-range index when the
// candidate pool was small.
func (b *AddrBook) PickDialCandidates(k int) []wire.AddressRecord {
	b.mu.RLock()
	enabled := make([]wire.AddressRecord, 0, len(b.byIP))
	for _, e := range b.byIP {
		if e.timestamp != 0 {
			enabled = append(enabled, e.record)
		}
	}
	b.mu.RUnlock()

	rand.Shuffle(len(enabled), func(i, j int) {
		enabled[i], enabled[j] = enabled[j], enabled[i]
	})
	if k > len(enabled) {
		k = len(enabled)
	}
	return enabled[:k]
}
