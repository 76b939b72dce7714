package lineio

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/risa-org/duplex/transport"
)

// Source turns an io.Reader into a stream of bounded chat lines.
//
// A background goroutine owns the actual blocking read; consumers take
// lines off the channel. That split is what lets the send loop abandon
// a pending line when the session terminates — it selects on the channel
// instead of being parked inside a read it cannot escape.
//
// Each line has its trailing terminator stripped (\n and \r\n both) and
// is truncated to transport.MaxPayload bytes; whatever is left of an
// overlong line is consumed and dropped so the next line starts clean.
type Source struct {
	lines chan []byte
}

// NewSource starts reading lines from r immediately.
// The channel returned by Lines is closed when r reaches end-of-stream
// or fails — consumers treat both as exhausted input.
func NewSource(r io.Reader) *Source {
	s := &Source{lines: make(chan []byte)}
	go s.scan(r)
	return s
}

// Lines returns the channel of input lines. A line may be empty —
// the user pressing enter on a blank line is still a message.
func (s *Source) Lines() <-chan []byte {
	return s.lines
}

func (s *Source) scan(r io.Reader) {
	defer close(s.lines)

	br := bufio.NewReader(r)
	for {
		line, err := readBoundedLine(br)
		if err != nil {
			// a final line without a terminator still ships before EOF
			if len(line) > 0 {
				s.lines <- line
			}
			return
		}
		s.lines <- line
	}
}

// readBoundedLine reads one full line, strips the terminator, and returns
// at most transport.MaxPayload bytes of it. The remainder of an overlong
// line is consumed and discarded — truncation, not splitting, so one input
// line never becomes two messages.
func readBoundedLine(br *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		chunk, isPrefix, err := br.ReadLine()
		if len(chunk) > 0 {
			room := transport.MaxPayload - len(line)
			if room > 0 {
				if len(chunk) > room {
					chunk = chunk[:room]
				}
				line = append(line, chunk...)
			}
		}
		if err != nil {
			return line, err
		}
		if !isPrefix {
			return line, nil
		}
	}
}

// Writer delivers inbound payloads to a terminal-style output, one line
// per payload, prefixed with a peer-role label so the reader can tell
// remote messages from their own typing.
type Writer struct {
	mu    sync.Mutex // keeps concurrent echo lines from interleaving
	w     io.Writer
	label string
}

// NewWriter creates a labeled line writer. A typical label is "peer>".
func NewWriter(w io.Writer, label string) *Writer {
	return &Writer{w: w, label: label}
}

// WriteLine writes one labeled line. Output errors are swallowed — losing
// an echo line never tears down the session.
func (w *Writer) WriteLine(p []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.w, "%s %s\n", w.label, p)
}
