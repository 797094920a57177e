// Package ledger keeps a bounded, time-expiring record of on-screen notifications.
//
// Notifications (eliminations, assists, saves) stack in rows and stay visible
// for a while, so the same icon is detected on many consecutive frames. The
// ledger remembers what has already been counted so each occurrence fires once.
package ledger

import "time"

const (
	// DefaultCapacity is the number of notification rows the game shows at once.
	DefaultCapacity = 3

	// DefaultTTL is how long a notification stays on screen.
	DefaultTTL = 2705 * time.Millisecond
)

// Record is one counted notification.
type Record struct {
	Kind   string
	Expiry time.Time
}

// Ledger is an append-only FIFO ordered by expiry. Records are appended at the
// back and removed from the front only, which keeps the expiry scan a prefix scan.
type Ledger struct {
	records  []Record
	capacity int
	ttl      time.Duration
}

// New creates a ledger. Non-positive arguments fall back to the defaults.
func New(capacity int, ttl time.Duration) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Ledger{
		records:  make([]Record, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Expire drops the expired prefix and returns how many records were removed.
func (l *Ledger) Expire(now time.Time) int {
	n := 0
	for n < len(l.records) && !l.records[n].Expiry.After(now) {
		n++
	}
	if n > 0 {
		l.records = append(l.records[:0], l.records[n:]...)
	}
	return n
}

// Add appends a record expiring ttl after now, evicting the oldest record when full.
func (l *Ledger) Add(kind string, now time.Time) {
	if len(l.records) == l.capacity {
		l.records = append(l.records[:0], l.records[1:]...)
	}
	expiry := now.Add(l.ttl)
	// a backdated clock must not break expiry ordering
	if n := len(l.records); n > 0 && expiry.Before(l.records[n-1].Expiry) {
		expiry = l.records[n-1].Expiry
	}
	l.records = append(l.records, Record{Kind: kind, Expiry: expiry})
}

// Count returns how many live records of kind are held.
func (l *Ledger) Count(kind string) int {
	n := 0
	for _, r := range l.records {
		if r.Kind == kind {
			n++
		}
	}
	return n
}

// Reconcile records the occurrences of kind seen this tick that are not yet
// counted, and returns that number.
func (l *Ledger) Reconcile(kind string, observed int, now time.Time) int {
	added := observed - l.Count(kind)
	if added <= 0 {
		return 0
	}
	for i := 0; i < added; i++ {
		l.Add(kind, now)
	}
	return added
}

// Len returns the number of live records.
func (l *Ledger) Len() int { return len(l.records) }

// Records returns a copy of the live records, oldest first.
func (l *Ledger) Records() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Clear drops every record.
func (l *Ledger) Clear() { l.records = l.records[:0] }
