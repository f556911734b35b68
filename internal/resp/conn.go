package resp

import (
	"bufio"
	"errors"
	"io"
)

// ErrConnectionReset is returned by ReadFrame when the peer closes the
// stream while a partial frame is still buffered.
var ErrConnectionReset = errors.New("resp: connection reset mid-frame")

const defaultBufSize = 4 * 1024

// Conn frames a bidirectional byte stream. One growable read buffer
// persists across ReadFrame calls, so a frame that arrives in fragments
// costs nothing but buffered bytes, and bytes belonging to a following
// pipelined frame are kept for the next call.
//
// Conn performs no locking; one goroutine owns each instance.
type Conn struct {
	rw   io.ReadWriter
	bw   *bufio.Writer
	buf  []byte
	wbuf []byte
}

// NewConn wraps a stream, typically a net.Conn.
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{
		rw:  rw,
		bw:  bufio.NewWriter(rw),
		buf: make([]byte, 0, defaultBufSize),
	}
}

// ReadFrame returns the next frame from the stream. It returns (nil, nil)
// when the peer closed cleanly with no partial data buffered, and
// ErrConnectionReset when the stream ended mid-frame.
func (c *Conn) ReadFrame() (*Frame, error) {
	for {
		n, err := Check(c.buf)
		switch {
		case err == nil:
			f, _, perr := Parse(c.buf[:n])
			if perr != nil {
				return nil, perr
			}
			// Parse copied all payloads, so the buffer can be compacted
			// in place. Trailing bytes are the next pipelined frame.
			c.buf = append(c.buf[:0], c.buf[n:]...)
			return &f, nil
		case !errors.Is(err, ErrIncomplete):
			return nil, err
		}

		if err := c.fill(); err != nil {
			if errors.Is(err, io.EOF) {
				if len(c.buf) == 0 {
					return nil, nil
				}
				return nil, ErrConnectionReset
			}
			return nil, err
		}
	}
}

// fill performs one read from the stream into the spare capacity of the
// buffer, growing it first when full.
func (c *Conn) fill() error {
	if len(c.buf) == cap(c.buf) {
		grown := make([]byte, len(c.buf), 2*cap(c.buf))
		copy(grown, c.buf)
		c.buf = grown
	}
	n, err := c.rw.Read(c.buf[len(c.buf):cap(c.buf)])
	c.buf = c.buf[:len(c.buf)+n]
	if n > 0 {
		// Consume what arrived; a pending error resurfaces on the next read.
		return nil
	}
	if err == nil {
		err = io.ErrNoProgress
	}
	return err
}

// WriteFrame serializes f and writes it out in full, flushing before
// returning. The flush matters: a buffered reply must not sit unsent while
// the caller blocks on the next read.
func (c *Conn) WriteFrame(f Frame) error {
	c.wbuf = f.Append(c.wbuf[:0])
	if _, err := c.bw.Write(c.wbuf); err != nil {
		return err
	}
	return c.bw.Flush()
}
