package websocket

import (
	"context"
	"io"
	"sync"

	"nhooyr.io/websocket"

	"github.com/risa-org/duplex/transport"
)

// Conn implements transport.Conn over a WebSocket connection.
// Unlike TCP, WebSocket already has message boundaries built in, so each
// payload travels as one binary message and never coalesces with the next.
type Conn struct {
	conn      *websocket.Conn
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	closeErr  error
}

// New wraps an existing *websocket.Conn. Dialing or accepting (including
// the HTTP upgrade) happens outside.
func New(conn *websocket.Conn) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	conn.SetReadLimit(transport.MaxPayload)
	return &Conn{
		conn:   conn,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Read blocks until one binary message arrives and returns its payload.
// The websocket library hands back a fresh buffer per message, so the
// no-stale-bytes guarantee holds for free here.
func (c *Conn) Read() ([]byte, error) {
	_, payload, err := c.conn.Read(c.ctx)
	if err != nil {
		return nil, c.mapReadError(err)
	}
	return payload, nil
}

// Write delivers one payload as a single binary message. Empty payloads
// are valid — WebSocket carries zero-length messages just fine.
func (c *Conn) Write(p []byte) error {
	if len(p) > transport.MaxPayload {
		return transport.ErrPayloadTooLarge
	}
	if err := c.conn.Write(c.ctx, websocket.MessageBinary, p); err != nil {
		return transport.ErrTransportClosed
	}
	return nil
}

// Close shuts the connection down with a normal closure status.
// Safe to call multiple times — cleanup runs exactly once, and the
// context cancel unblocks any goroutine parked in Read or Write.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		c.closeErr = c.conn.Close(websocket.StatusNormalClosure, "session closed")
	})
	return c.closeErr
}

// mapReadError normalizes websocket failures into the transport taxonomy.
// StatusNormalClosure (1000) and StatusGoingAway (1001) are both clean
// closes — different implementations and shutdown timing produce either.
// Context cancellation means we closed it ourselves.
func (c *Conn) mapReadError(err error) error {
	if c.ctx.Err() != nil {
		return transport.ErrTransportClosed
	}

	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return io.EOF
	}
	return err
}
