package resp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// Protocol limits. A peer that exceeds them is treated as malformed and the
// connection is dropped.
const (
	// MaxArrayLen limits the number of elements in an array frame.
	MaxArrayLen = 1024

	// MaxBulkLen limits the size of a single bulk string (512KB).
	MaxBulkLen = 512 * 1024

	// MaxLineLen limits the length of a line-terminated field (simple
	// strings, errors, integers, length headers).
	MaxLineLen = 4 * 1024
)

var (
	// ErrIncomplete signals that the buffer ends before one full frame.
	// The caller should read more bytes and retry from the same position.
	// It never escapes past the connection layer.
	ErrIncomplete = errors.New("resp: incomplete frame")

	// ErrProtocol signals malformed input. The connection that produced it
	// cannot be resynchronized and must be closed.
	ErrProtocol = errors.New("resp: protocol error")

	// ErrLimitExceeded signals input past a protocol limit. Fatal to the
	// connection, like ErrProtocol.
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

var crlf = []byte("\r\n")

// cursor walks a byte slice without copying. pos is the number of bytes
// consumed so far; after a successful frame walk it equals that frame's
// exact serialized length.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) readByte() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, ErrIncomplete
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) peekByte() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, ErrIncomplete
	}
	return c.buf[c.pos], nil
}

func (c *cursor) skip(n int) error {
	if len(c.buf)-c.pos < n {
		return ErrIncomplete
	}
	c.pos += n
	return nil
}

// readLine consumes up to and including the next CRLF and returns the line
// without the terminator.
func (c *cursor) readLine() ([]byte, error) {
	rest := c.buf[c.pos:]
	i := bytes.Index(rest, crlf)
	if i < 0 {
		if len(rest) > MaxLineLen {
			return nil, fmt.Errorf("%w: line longer than %d bytes", ErrLimitExceeded, MaxLineLen)
		}
		return nil, ErrIncomplete
	}
	if i > MaxLineLen {
		return nil, fmt.Errorf("%w: line longer than %d bytes", ErrLimitExceeded, MaxLineLen)
	}
	line := rest[:i]
	c.pos += i + 2
	return line, nil
}

// readDecimal reads a CRLF-terminated unsigned decimal.
func (c *cursor) readDecimal() (uint64, error) {
	line, err := c.readLine()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(string(line), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid number %q", ErrProtocol, line)
	}
	return n, nil
}

// Check reports whether buf starts with one complete frame. On success it
// returns the frame's exact byte length; trailing bytes (the start of the
// next pipelined frame) are not touched. It allocates no payload copies.
//
// ErrIncomplete means more bytes are needed; any other error means the
// input is malformed.
func Check(buf []byte) (int, error) {
	cur := cursor{buf: buf}
	if err := checkFrame(&cur); err != nil {
		return 0, err
	}
	return cur.pos, nil
}

func checkFrame(c *cursor) error {
	t, err := c.readByte()
	if err != nil {
		return err
	}
	switch t {
	case '+', '-':
		_, err := c.readLine()
		return err
	case ':':
		_, err := c.readDecimal()
		return err
	case '$':
		b, err := c.peekByte()
		if err != nil {
			return err
		}
		if b == '-' {
			line, err := c.readLine()
			if err != nil {
				return err
			}
			if !bytes.Equal(line, []byte("-1")) {
				return fmt.Errorf("%w: invalid bulk length %q", ErrProtocol, line)
			}
			return nil
		}
		n, err := c.readDecimal()
		if err != nil {
			return err
		}
		if n > MaxBulkLen {
			return fmt.Errorf("%w: bulk length %d exceeds %d", ErrLimitExceeded, n, MaxBulkLen)
		}
		// Payload plus trailing CRLF.
		return c.skip(int(n) + 2)
	case '*':
		n, err := c.readDecimal()
		if err != nil {
			return err
		}
		if n > MaxArrayLen {
			return fmt.Errorf("%w: array length %d exceeds %d", ErrLimitExceeded, n, MaxArrayLen)
		}
		for i := uint64(0); i < n; i++ {
			if err := checkFrame(c); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown frame type %q", ErrProtocol, t)
	}
}
