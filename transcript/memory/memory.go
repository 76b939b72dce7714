package memory

import (
	"sync"

	"github.com/risa-org/duplex/transcript"
)

// DefaultCapacity bounds how many entries a recorder retains by default.
const DefaultCapacity = 256

// Recorder is a thread-safe, bounded in-memory transcript.
// When full, the oldest entry is evicted to make room — this bounds memory
// for long-lived sessions while keeping the recent conversation available.
// Suitable for single-process programs and testing.
type Recorder struct {
	mu       sync.RWMutex
	entries  []transcript.Entry
	capacity int
}

// New creates an empty recorder holding at most capacity entries.
// A capacity of zero or less falls back to DefaultCapacity.
func New(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{
		entries:  make([]transcript.Entry, 0, capacity),
		capacity: capacity,
	}
}

// Record appends an entry, evicting the oldest if the recorder is full.
// The payload is copied so the recorder never retains the caller's buffer.
func (r *Recorder) Record(e transcript.Entry) error {
	p := make([]byte, len(e.Payload))
	copy(p, e.Payload)
	e.Payload = p

	r.mu.Lock()
	if len(r.entries) >= r.capacity {
		r.entries = r.entries[1:] // evict oldest
	}
	r.entries = append(r.entries, e)
	r.mu.Unlock()

	return nil
}

// Entries returns a snapshot of the retained transcript, oldest first.
func (r *Recorder) Entries() []transcript.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]transcript.Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of retained entries.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
