package session

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/risa-org/duplex/transcript"
	"github.com/risa-org/duplex/transport"
	"github.com/risa-org/duplex/transport/sender"
)

// LineSource is where the send loop gets outbound lines from.
// The channel carries one stripped, possibly-empty line per message and
// is closed when local input is exhausted.
type LineSource interface {
	Lines() <-chan []byte
}

// Sink is where the receive loop delivers inbound payloads.
type Sink interface {
	WriteLine(p []byte)
}

// Duplex runs one full-duplex chat session: a receive loop and a send
// loop over a single transport Conn, coordinated by a single termination
// Latch. Either loop may end the session — on the sentinel, on a
// transport failure, or on exhausted input — and both always unwind.
//
// The two loops share exactly two things: the Conn and the Latch. The
// Conn's read path belongs to the receive loop and its write path to the
// send loop, so the paths need no mutual exclusion between them; the
// Latch handles its own.
//
// Exactly one session per Conn. A Duplex is not reusable — Run may be
// called once.
type Duplex struct {
	id    string
	conn  transport.Conn
	in    LineSource
	out   Sink
	latch *Latch
	send  *sender.Sender
	rec   transcript.Recorder
	log   zerolog.Logger

	mu     sync.Mutex
	state  State
	reason EndReason

	closeOnce sync.Once
}

// Option tweaks a Duplex at construction.
type Option func(*Duplex)

// WithLogger attaches a zerolog logger. Without it the session is silent.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Duplex) { d.log = log }
}

// WithRecorder attaches a transcript recorder. Every delivered inbound
// payload and every confirmed-sent outbound payload is recorded.
func WithRecorder(rec transcript.Recorder) Option {
	return func(d *Duplex) { d.rec = rec }
}

// New creates a session over an already-connected Conn. The Conn must not
// be shared with anything else — the session owns it from here on,
// including closing it.
func New(conn transport.Conn, in LineSource, out Sink, opts ...Option) *Duplex {
	d := &Duplex{
		id:    uuid.NewString(),
		conn:  conn,
		in:    in,
		out:   out,
		latch: NewLatch(),
		log:   zerolog.Nop(),
		state: StateRunning,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.send = sender.New(conn, d.rec, d.id)
	return d
}

// ID returns the session's identifier, used for log correlation and
// transcript entries.
func (d *Duplex) ID() string {
	return d.id
}

// State returns the session's current lifecycle state.
func (d *Duplex) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Reason returns why the session ended. Meaningful once the session has
// left StateRunning; before that it is ReasonUnknown.
func (d *Duplex) Reason() EndReason {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reason
}

// Run spawns the receive and send loops, blocks until both have exited,
// and leaves the transport closed — exactly once, no matter how many
// paths raced to close it. Returns the reason the session ended.
// The hosting program owns the process exit status; Run reports, it
// doesn't judge.
func (d *Duplex) Run() EndReason {
	d.log.Debug().Str("session", d.id).Msg("session started")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		d.receiveLoop()
	}()
	go func() {
		defer wg.Done()
		d.sendLoop()
	}()
	wg.Wait()

	// a terminating loop normally closed the conn already; this covers
	// any path that didn't, and the sync.Once keeps it single
	d.closeTransport()

	d.mu.Lock()
	if isValidTransition(d.state, StateClosed) {
		d.state = StateClosed
	}
	reason := d.reason
	d.mu.Unlock()

	d.log.Info().Str("session", d.id).Stringer("reason", reason).Msg("session closed")
	return reason
}

// receiveLoop reads inbound payloads until termination. Each iteration
// checks the latch first, then blocks on the transport read. Payloads are
// delivered to the sink before the sentinel check, so the peer's "bye" is
// echoed like any other message.
func (d *Duplex) receiveLoop() {
	for {
		if d.latch.IsSet() {
			return
		}

		payload, err := d.conn.Read()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				// peer closed without a sentinel — forced shutdown,
				// not distinguished from an intentional close
				d.terminate(ReasonPeerClosed, nil)
			case errors.Is(err, transport.ErrTransportClosed):
				// our own side closed it, the other loop terminated first
				d.terminate(ReasonTransportError, nil)
			default:
				d.terminate(ReasonTransportError, err)
			}
			return
		}

		d.out.WriteLine(payload)
		d.record(transcript.Inbound, payload)

		if transport.IsSentinel(payload) {
			d.terminate(ReasonSentinelReceived, nil)
			return
		}
	}
}

// sendLoop writes local input lines until termination. Each iteration
// checks the latch first, then waits for either a line or the latch —
// the select is what keeps a send loop from staying parked on input
// after the receive side has already ended the session. The sentinel is
// written before termination, never suppressed. One write attempt per
// line, no retry.
func (d *Duplex) sendLoop() {
	for {
		if d.latch.IsSet() {
			return
		}

		select {
		case line, ok := <-d.in.Lines():
			if !ok {
				d.terminate(ReasonInputExhausted, nil)
				return
			}

			sentinel := transport.IsSentinel(line)
			if sentinel {
				// claim the reason before the write: once the sentinel
				// is on the wire the peer may close on us, and that
				// close must not masquerade as the cause of this end
				d.claim(ReasonSentinelSent)
			}

			if _, err := d.send.Send(line); err != nil {
				d.terminate(ReasonTransportError, err)
				return
			}

			if sentinel {
				d.terminate(ReasonSentinelSent, nil)
				return
			}

		case <-d.latch.Done():
			return
		}
	}
}

// claim moves the session to StateTerminating and records the reason,
// without yet setting the latch or touching the transport. Only the
// first claim sticks — both loops deciding to terminate at nearly the
// same time is an ordinary race, not an error.
func (d *Duplex) claim(reason EndReason) bool {
	d.mu.Lock()
	first := isValidTransition(d.state, StateTerminating)
	if first {
		d.state = StateTerminating
		d.reason = reason
	}
	d.mu.Unlock()

	if first {
		d.log.Info().Str("session", d.id).Stringer("reason", reason).Msg("session terminating")
	}
	return first
}

// terminate claims the reason, sets the latch, and closes the transport.
// Closing is the best-effort interrupt for the other loop: its blocked
// read or write fails and returns instead of waiting for the peer.
func (d *Duplex) terminate(reason EndReason, err error) {
	d.claim(reason)
	if err != nil {
		d.log.Error().Err(err).Str("session", d.id).Msg("transport failure")
	}

	d.latch.Set()
	d.closeTransport()
}

// closeTransport closes the conn exactly once for the whole session.
func (d *Duplex) closeTransport() {
	d.closeOnce.Do(func() {
		if err := d.conn.Close(); err != nil {
			d.log.Error().Err(err).Str("session", d.id).Msg("transport close failed")
		}
	})
}

// record appends a transcript entry if a recorder is attached.
func (d *Duplex) record(dir transcript.Direction, payload []byte) {
	if d.rec == nil {
		return
	}
	if err := d.rec.Record(transcript.Entry{
		SessionID: d.id,
		Direction: dir,
		Payload:   payload,
		At:        time.Now(),
	}); err != nil {
		d.log.Error().Err(err).Str("session", d.id).Msg("transcript record failed")
	}
}
