package router

import "sync"

// DefaultLedgerCapacity bounds the dedup ledger to the most recently
// inserted keys. Eviction past the bound risks at most one re-delivery,
// acceptable under the transport's at-least-once guarantees over short
// windows.
const DefaultLedgerCapacity = 1000

// Ledger is a bounded seen-set over dedup keys with insertion-order
// eviction (not access-order: probing a key never refreshes it).
// Thread-safe; check-then-mark is a single atomic operation.
type Ledger struct {
	mu       sync.Mutex
	capacity int
	seen     map[string]struct{}
	ring     []string
	next     int
}

// NewLedger creates a ledger bounded to capacity keys.
// capacity <= 0 uses DefaultLedgerCapacity.
func NewLedger(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultLedgerCapacity
	}
	return &Ledger{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
		ring:     make([]string, capacity),
	}
}

// DedupKey builds the composite ledger key from a task id and the
// disambiguating dimension for the event type (the target language for
// translation completions: one task fans out one terminal completion per
// target language).
func DedupKey(taskID, dimension string) string {
	return taskID + ":" + dimension
}

// CheckAndMark reports whether key was already seen, marking it seen
// otherwise. The first call for a key returns false and inserts it; every
// later call (until eviction) returns true. Inserting past capacity
// evicts the oldest-inserted key.
func (l *Ledger) CheckAndMark(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[key]; ok {
		return true
	}

	if len(l.seen) == l.capacity {
		delete(l.seen, l.ring[l.next])
	}
	l.seen[key] = struct{}{}
	l.ring[l.next] = key
	l.next = (l.next + 1) % l.capacity

	return false
}

// Seen reports whether key is currently in the ledger, without marking.
func (l *Ledger) Seen(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[key]
	return ok
}

// Len returns the number of keys currently held.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}

// Clear empties the ledger.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = make(map[string]struct{}, l.capacity)
	l.ring = make([]string, l.capacity)
	l.next = 0
}
