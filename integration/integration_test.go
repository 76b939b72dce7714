package integration

import (
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/risa-org/duplex/lineio"
	"github.com/risa-org/duplex/session"
	"github.com/risa-org/duplex/transport/tcp"
)

// ------------------------------------------------------------
// Helpers
// ------------------------------------------------------------

// chatPeer is one complete chat endpoint: a session over a real TCP
// connection, a pipe standing in for the keyboard, and a sink capturing
// what the peer said.
type chatPeer struct {
	sess *session.Duplex
	keys *io.PipeWriter
	sink *captureSink
	done <-chan session.EndReason
}

type captureSink struct {
	mu      sync.Mutex
	lines   []string
	arrived chan struct{}
}

func newCaptureSink() *captureSink {
	return &captureSink{arrived: make(chan struct{}, 64)}
}

func (c *captureSink) WriteLine(p []byte) {
	c.mu.Lock()
	c.lines = append(c.lines, string(p))
	c.mu.Unlock()
	c.arrived <- struct{}{}
}

func (c *captureSink) next(t *testing.T) string {
	t.Helper()
	select {
	case <-c.arrived:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a delivery")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lines[len(c.lines)-1]
}

func startPeer(raw net.Conn) *chatPeer {
	input, keys := io.Pipe()
	p := &chatPeer{
		keys: keys,
		sink: newCaptureSink(),
	}
	p.sess = session.New(tcp.New(raw), lineio.NewSource(input), p.sink)

	done := make(chan session.EndReason, 1)
	go func() { done <- p.sess.Run() }()
	p.done = done
	return p
}

func (p *chatPeer) say(t *testing.T, line string) {
	t.Helper()
	if _, err := io.WriteString(p.keys, line+"\n"); err != nil {
		t.Fatalf("failed to type %q: %v", line, err)
	}
}

func (p *chatPeer) waitClosed(t *testing.T) session.EndReason {
	t.Helper()
	select {
	case r := <-p.done:
		return r
	case <-time.After(3 * time.Second):
		t.Fatal("session did not close in time")
		return session.ReasonUnknown
	}
}

// tcpPair dials a real listener on loopback and returns both raw conns.
func tcpPair(t *testing.T) (serverSide, clientSide net.Conn) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			t.Errorf("accept failed: %v", err)
			return
		}
		accepted <- c
	}()

	clientSide, err = net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	select {
	case serverSide = <-accepted:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for accept")
	}
	return serverSide, clientSide
}

// ------------------------------------------------------------
// Tests
// ------------------------------------------------------------

// TestConversationOverRealTCP runs the whole stack across loopback
// sockets: typed lines, labeled deliveries, sentinel shutdown.
func TestConversationOverRealTCP(t *testing.T) {
	serverConn, clientConn := tcpPair(t)
	server := startPeer(serverConn)
	client := startPeer(clientConn)

	client.say(t, "hello")
	if got := server.sink.next(t); got != "hello" {
		t.Errorf("server expected 'hello', got %q", got)
	}

	server.say(t, "hi")
	if got := client.sink.next(t); got != "hi" {
		t.Errorf("client expected 'hi', got %q", got)
	}

	client.say(t, "bye")

	if r := client.waitClosed(t); r != session.ReasonSentinelSent {
		t.Errorf("client expected sentinel_sent, got %v", r)
	}
	if r := server.waitClosed(t); r != session.ReasonSentinelReceived {
		t.Errorf("server expected sentinel_received, got %v", r)
	}

	if client.sess.State() != session.StateClosed {
		t.Errorf("client expected closed, got %v", client.sess.State())
	}
	if server.sess.State() != session.StateClosed {
		t.Errorf("server expected closed, got %v", server.sess.State())
	}
}

// TestServerSaysGoodbye checks the shutdown works in the other direction —
// either peer may send the sentinel.
func TestServerSaysGoodbye(t *testing.T) {
	serverConn, clientConn := tcpPair(t)
	server := startPeer(serverConn)
	client := startPeer(clientConn)

	server.say(t, "bye")

	if r := server.waitClosed(t); r != session.ReasonSentinelSent {
		t.Errorf("server expected sentinel_sent, got %v", r)
	}
	if r := client.waitClosed(t); r != session.ReasonSentinelReceived {
		t.Errorf("client expected sentinel_received, got %v", r)
	}

	// the sentinel is echoed on the receiving side like any message
	client.sink.mu.Lock()
	defer client.sink.mu.Unlock()
	if len(client.sink.lines) != 1 || client.sink.lines[0] != "bye" {
		t.Errorf("client expected the echoed sentinel, got %v", client.sink.lines)
	}
}

// TestPeerVanishesWithoutGoodbye kills one raw connection mid-session —
// the surviving side must still unwind to closed.
func TestPeerVanishesWithoutGoodbye(t *testing.T) {
	serverConn, clientConn := tcpPair(t)
	server := startPeer(serverConn)

	// the client never starts a session; it just drops the connection
	clientConn.Close()

	if r := server.waitClosed(t); r != session.ReasonPeerClosed {
		t.Errorf("server expected peer_closed, got %v", r)
	}
}

// TestTypingEndOfInput closes the local keyboard stream — the session
// ends with input_exhausted and the far side sees the drop.
func TestTypingEndOfInput(t *testing.T) {
	serverConn, clientConn := tcpPair(t)
	server := startPeer(serverConn)
	client := startPeer(clientConn)

	client.keys.Close()

	if r := client.waitClosed(t); r != session.ReasonInputExhausted {
		t.Errorf("client expected input_exhausted, got %v", r)
	}
	if r := server.waitClosed(t); r != session.ReasonPeerClosed {
		t.Errorf("server expected peer_closed, got %v", r)
	}
}
