package session

import (
	"sync"
	"testing"
	"time"
)

// TestLatchStartsUnset checks the initial state is false.
func TestLatchStartsUnset(t *testing.T) {
	l := NewLatch()
	if l.IsSet() {
		t.Error("new latch should start unset")
	}
}

// TestLatchSetIsObserved checks a set latch reads as set.
func TestLatchSetIsObserved(t *testing.T) {
	l := NewLatch()
	l.Set()
	if !l.IsSet() {
		t.Error("latch should read as set after Set")
	}
}

// TestLatchIsMonotonic checks there is no way back — repeated sets keep
// the latch set and never panic.
func TestLatchIsMonotonic(t *testing.T) {
	l := NewLatch()
	l.Set()
	l.Set()
	l.Set()
	if !l.IsSet() {
		t.Error("latch should stay set")
	}
}

// TestLatchConcurrentSet hammers Set from many goroutines at once —
// the way both session loops can race to terminate. The latch must end
// up set, with no panic from a double channel close.
func TestLatchConcurrentSet(t *testing.T) {
	l := NewLatch()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Set()
		}()
	}
	wg.Wait()

	if !l.IsSet() {
		t.Error("latch should be set after concurrent sets")
	}
}

// TestLatchDoneUnblocksWaiters checks a goroutine selecting on Done wakes
// up when the latch fires.
func TestLatchDoneUnblocksWaiters(t *testing.T) {
	l := NewLatch()

	woke := make(chan struct{})
	go func() {
		<-l.Done()
		close(woke)
	}()

	l.Set()

	select {
	case <-woke:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter did not wake after Set")
	}
}
