package sender

import (
	"time"

	"github.com/risa-org/duplex/transcript"
	"github.com/risa-org/duplex/transport"
)

// Sender wraps a transport Conn and an optional transcript Recorder.
// It is the single place where outgoing payloads are bounded, written,
// and recorded — in the right order.
//
// Without it, callers had to do three things manually:
//
//	payload := bound(line)
//	conn.Write(payload)
//	rec.Record(...) // easy to forget, or called even on failed writes
//
// Sender collapses this to one call:
//
//	sender.Send(line)
//
// Two correctness properties fall out:
//  1. The transcript only records payloads the transport confirmed.
//     A failed write leaves no phantom entry.
//  2. The bound is applied before the transport sees the payload, so
//     Write can never fail on size for a payload that came through here.
type Sender struct {
	conn      transport.Conn
	rec       transcript.Recorder // nil means no transcript
	sessionID string
}

// New creates a Sender writing to conn. rec may be nil to disable
// transcript recording; sessionID stamps recorded entries.
func New(conn transport.Conn, rec transcript.Recorder, sessionID string) *Sender {
	return &Sender{conn: conn, rec: rec, sessionID: sessionID}
}

// Send bounds the line to transport.MaxPayload, writes it in a single
// attempt, and records it in the transcript — but only if the write
// succeeded. Returns the payload as actually sent (it may be shorter
// than the line) and any transport error.
func (s *Sender) Send(line []byte) ([]byte, error) {
	payload := line
	if len(payload) > transport.MaxPayload {
		payload = payload[:transport.MaxPayload]
	}

	if err := s.conn.Write(payload); err != nil {
		// do not record — the payload never left
		return nil, err
	}

	if s.rec != nil {
		// recorder failures are the caller's logging concern, not a
		// reason to end the conversation
		_ = s.rec.Record(transcript.Entry{
			SessionID: s.sessionID,
			Direction: transcript.Outbound,
			Payload:   payload,
			At:        time.Now(),
		})
	}

	return payload, nil
}
