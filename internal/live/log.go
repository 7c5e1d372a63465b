package live

import (
	"sync"
	"time"
)

const defaultLogCapacity = 256

// StreamingLogEntry records one wire observation. Categories are dotted
// direction.kind strings such as "client.content" or "server.turnComplete".
type StreamingLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
	Payload   string    `json:"payload,omitempty"`
}

// StreamLog is a bounded append-only ring of wire observations. The Client
// writes entries as a side effect of traffic; observers read snapshots via
// Entries.
type StreamLog struct {
	mu      sync.Mutex
	entries []StreamingLogEntry
	next    int
	full    bool
}

func NewStreamLog(capacity int) *StreamLog {
	if capacity <= 0 {
		capacity = defaultLogCapacity
	}
	return &StreamLog{entries: make([]StreamingLogEntry, capacity)}
}

func (l *StreamLog) Append(category, payload string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[l.next] = StreamingLogEntry{
		Timestamp: time.Now(),
		Category:  category,
		Payload:   payload,
	}
	l.next++
	if l.next == len(l.entries) {
		l.next = 0
		l.full = true
	}
}

// Entries returns the retained entries, oldest first.
func (l *StreamLog) Entries() []StreamingLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.full {
		out := make([]StreamingLogEntry, l.next)
		copy(out, l.entries[:l.next])
		return out
	}
	out := make([]StreamingLogEntry, 0, len(l.entries))
	out = append(out, l.entries[l.next:]...)
	out = append(out, l.entries[:l.next]...)
	return out
}

func (l *StreamLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.full {
		return len(l.entries)
	}
	return l.next
}
