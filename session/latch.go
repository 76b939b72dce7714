package session

import "sync"

// Latch is the one-shot termination signal shared by the two session loops.
// It starts unset and moves to set exactly once — never back. Both loops
// read it at the top of every iteration and either one may set it, so Set
// must tolerate concurrent calls from both sides without any coordination
// beyond its own internals.
type Latch struct {
	once sync.Once
	done chan struct{}
}

// NewLatch creates an unset latch.
func NewLatch() *Latch {
	return &Latch{done: make(chan struct{})}
}

// Set marks termination. Idempotent and commutative — concurrent calls
// from both loops are safe, and every call after the first is a no-op.
func (l *Latch) Set() {
	l.once.Do(func() {
		close(l.done)
	})
}

// IsSet is a non-blocking read of the current state.
func (l *Latch) IsSet() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed when the latch is set.
// This is the cancellation-token form of the signal: a loop that waits
// on something other than the transport can select on Done instead of
// staying parked after the session has already decided to end.
func (l *Latch) Done() <-chan struct{} {
	return l.done
}
