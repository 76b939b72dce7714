package file

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/risa-org/duplex/transcript"
)

// Recorder is a file-backed transcript. Entries are persisted to a JSON
// file and survive process restarts — reopening the same path continues
// the transcript rather than replacing it.
// Not suitable for multi-process use; one chat program owns one file.
type Recorder struct {
	mu      sync.RWMutex
	path    string
	entries []transcript.Entry
}

// New creates a file-backed recorder at the given path.
// If the file exists, its entries are loaded on startup.
// If it doesn't exist, it will be created on first write.
func New(path string) (*Recorder, error) {
	r := &Recorder{path: path}
	if err := r.load(); err != nil {
		return nil, fmt.Errorf("failed to load transcript from %s: %w", path, err)
	}
	return r, nil
}

// Record appends an entry and flushes the transcript to disk.
func (r *Recorder) Record(e transcript.Entry) error {
	p := make([]byte, len(e.Payload))
	copy(p, e.Payload)
	e.Payload = p

	r.mu.Lock()
	r.entries = append(r.entries, e)
	err := r.flush()
	r.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to persist transcript entry: %w", err)
	}
	return nil
}

// Entries returns a snapshot of the transcript, oldest first.
func (r *Recorder) Entries() []transcript.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]transcript.Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of recorded entries.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// load reads entries from the JSON file into memory.
// Called once at startup. If the file doesn't exist, returns nil — empty transcript.
func (r *Recorder) load() error {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil // fresh start, no file yet
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &r.entries)
}

// flush writes the current in-memory transcript to the JSON file.
// Must be called with the write lock held.
func (r *Recorder) flush() error {
	data, err := json.MarshalIndent(r.entries, "", "  ")
	if err != nil {
		return err
	}

	// write to a temp file then rename — atomic on most systems
	// prevents a corrupt file if the process crashes mid-write
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}
