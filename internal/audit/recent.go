// Package audit keeps the operator-facing list of recent check-in
// attempts. The list is in-memory and bounded: it exists so gate staff
// can see what just happened on their scanner, not as a durable audit
// log.
package audit

import (
	"sync"
	"time"
)

// Result is the closed set of check-in outcomes.
type Result string

const (
	ResultValid       Result = "valid"        // ticket accepted, transitioned to used
	ResultAlreadyUsed Result = "already_used" // ticket was used before (or lost a concurrent scan)
	ResultInvalid     Result = "invalid"      // unknown code or cancelled ticket
)

// Entry is one recorded check-in attempt.
type Entry struct {
	TicketNumber string    `json:"ticket_number"`
	Result       Result    `json:"result"`
	Reason       string    `json:"reason,omitempty"`
	At           time.Time `json:"at"`
}

// RecentLog is a concurrency-safe, capped, most-recent-first list of
// check-in attempts. When the cap is reached the oldest entry drops off.
type RecentLog struct {
	mu      sync.Mutex
	cap     int
	entries []Entry
}

// NewRecentLog returns a log holding at most capacity entries.
func NewRecentLog(capacity int) *RecentLog {
	if capacity < 1 {
		capacity = 1
	}
	return &RecentLog{cap: capacity}
}

// Record prepends an entry, evicting the oldest when full.
func (l *RecentLog) Record(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == l.cap {
		l.entries = l.entries[:l.cap-1]
	}
	l.entries = append([]Entry{e}, l.entries...)
}

// Entries returns a copy of the list, most recent first.
func (l *RecentLog) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
