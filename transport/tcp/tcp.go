package tcp

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/risa-org/duplex/transport"
)

// Conn implements transport.Conn over a raw TCP connection.
//
// There is no framing on the wire — each Read returns whatever one
// underlying read produced, up to transport.MaxPayload bytes. This mirrors
// the seqpacket-style "one read, one message" contract the chat protocol
// assumes. On a busy TCP stream two writes can coalesce into one read;
// that is an accepted limitation of the protocol, not something we
// paper over with length prefixes.
type Conn struct {
	conn      net.Conn
	closeOnce sync.Once // guarantees cleanup runs exactly once
	closeErr  error
}

// New wraps an existing net.Conn. The conn must already be established —
// dialing or accepting happens outside.
func New(conn net.Conn) *Conn {
	return &Conn{conn: conn}
}

// Read blocks until the peer sends data and returns one payload of at most
// transport.MaxPayload bytes. The buffer is allocated fresh per call, so a
// short read can never expose stale bytes from an earlier, longer message.
func (c *Conn) Read() ([]byte, error) {
	for {
		buf := make([]byte, transport.MaxPayload)
		n, err := c.conn.Read(buf)
		if n > 0 {
			// deliver what arrived; a pending error resurfaces on the next call
			return buf[:n], nil
		}
		if err != nil {
			return nil, mapReadError(err)
		}
		// n == 0 with no error — retry, net.Conn discourages but allows it
	}
}

// Write delivers one payload in a single attempt. Partial writes are
// completed by net.Conn itself; there is no retry beyond that.
func (c *Conn) Write(p []byte) error {
	if len(p) > transport.MaxPayload {
		return transport.ErrPayloadTooLarge
	}
	if _, err := c.conn.Write(p); err != nil {
		return transport.ErrTransportClosed
	}
	return nil
}

// Close shuts down the TCP connection. Safe to call multiple times and from
// multiple goroutines — the underlying close runs exactly once. Any
// goroutine blocked in Read or Write is unblocked with an error.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// mapReadError normalizes underlying read failures into the transport
// taxonomy: a clean peer close stays io.EOF, our own Close becomes
// ErrTransportClosed, anything else passes through for logging.
func mapReadError(err error) error {
	if err == io.EOF {
		return io.EOF
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return transport.ErrTransportClosed
	}
	return err
}
