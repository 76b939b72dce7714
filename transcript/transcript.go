package transcript

import "time"

// Direction tells which way a recorded payload traveled.
type Direction int

const (
	Inbound  Direction = iota // received from the peer and delivered to the sink
	Outbound                  // confirmed written to the transport
)

// String returns a readable name for logging and persistence.
func (d Direction) String() string {
	switch d {
	case Inbound:
		return "inbound"
	case Outbound:
		return "outbound"
	default:
		return "unknown"
	}
}

// Entry is one recorded payload. The session fills every field —
// recorders just keep entries, they never interpret payloads.
type Entry struct {
	SessionID string    `json:"session_id"`
	Direction Direction `json:"direction"`
	Payload   []byte    `json:"payload"`
	At        time.Time `json:"at"`
}

// Recorder is the contract every transcript backend must satisfy.
// The session layer only ever talks to this interface — it never imports
// memory, file, or anything concrete.
//
// Recording is best-effort from the session's point of view: a recorder
// error is reported but never tears down a live conversation.
type Recorder interface {
	Record(e Entry) error
}
