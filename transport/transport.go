package transport

import (
	"bytes"
	"errors"
)

// MaxPayload is the payload bound for a single message, in bytes.
// It matches the default MTU of the seqpacket protocol this chat was
// originally built on. Payloads are never framed or length-prefixed —
// the bound is the only thing keeping one Read from swallowing
// arbitrary amounts of peer data.
const MaxPayload = 672

// Sentinel is the reserved message value that requests session end.
// Exactly these three bytes, no trailing newline. Either peer may send it.
//
// A legitimate application message equal to Sentinel is indistinguishable
// from a termination request. That ambiguity is part of the protocol —
// we do not try to escape or resolve it.
var Sentinel = []byte("bye")

// ErrTransportClosed is returned when you read, write, or close a transport
// that is no longer active. Named errors like this let callers check the
// exact cause with errors.Is() instead of comparing raw strings.
var ErrTransportClosed = errors.New("transport closed")

// ErrPayloadTooLarge is returned by Write when the payload exceeds MaxPayload.
// Callers are expected to truncate before writing; the transport still
// enforces the bound so an unbounded payload can never reach the wire.
var ErrPayloadTooLarge = errors.New("payload exceeds maximum size")

// Conn is the contract every transport must satisfy: an already-connected
// byte-stream endpoint with blocking read, blocking write, and idempotent
// close. The session layer only ever talks to this interface — it never
// imports tcp, websocket, or anything concrete.
//
// Dialing, listening, and accepting all happen outside — a Conn wraps a
// connection that already exists.
type Conn interface {
	// Read blocks until one inbound payload arrives and returns it.
	// The payload is at most MaxPayload bytes and is backed by a fresh
	// buffer on every call — a short read never exposes bytes left over
	// from an earlier, longer message.
	// Returns io.EOF when the peer closes cleanly, ErrTransportClosed
	// after Close, and the underlying error on transport failure.
	Read() ([]byte, error)

	// Write delivers one payload to the remote side. A zero-length
	// payload is valid and is written as an empty message.
	// Returns ErrPayloadTooLarge if len(p) > MaxPayload, and
	// ErrTransportClosed if the transport is no longer active.
	// One attempt per call — the transport never retries.
	Write(p []byte) error

	// Close shuts the transport down. Safe to call multiple times and
	// from multiple goroutines — cleanup runs exactly once. Closing
	// unblocks any goroutine currently parked in Read or Write.
	Close() error
}

// IsSentinel reports whether payload is exactly the termination sentinel.
// Exact equality — "bye\n" or "BYE" are ordinary messages.
func IsSentinel(payload []byte) bool {
	return bytes.Equal(payload, Sentinel)
}
