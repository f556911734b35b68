package resp

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Parse decodes one frame from the start of buf and returns it together
// with its exact byte length. Bulk payloads and line text are copied out of
// buf, so the caller may reuse the buffer immediately.
//
// Parse is meant to run after Check has confirmed a complete frame is
// present; running out of bytes here is therefore reported as ErrProtocol,
// not ErrIncomplete.
func Parse(buf []byte) (Frame, int, error) {
	cur := cursor{buf: buf}
	f, err := parseFrame(&cur)
	if err != nil {
		if errors.Is(err, ErrIncomplete) {
			return Frame{}, 0, fmt.Errorf("%w: truncated frame", ErrProtocol)
		}
		return Frame{}, 0, err
	}
	return f, cur.pos, nil
}

func parseFrame(c *cursor) (Frame, error) {
	t, err := c.readByte()
	if err != nil {
		return Frame{}, err
	}
	switch t {
	case '+', '-':
		line, err := c.readLine()
		if err != nil {
			return Frame{}, err
		}
		if !utf8.Valid(line) {
			return Frame{}, fmt.Errorf("%w: invalid UTF-8 in string frame", ErrProtocol)
		}
		if t == '+' {
			return NewSimple(string(line)), nil
		}
		return NewError(string(line)), nil
	case ':':
		n, err := c.readDecimal()
		if err != nil {
			return Frame{}, err
		}
		return NewInteger(n), nil
	case '$':
		b, err := c.peekByte()
		if err != nil {
			return Frame{}, err
		}
		if b == '-' {
			line, err := c.readLine()
			if err != nil {
				return Frame{}, err
			}
			if !bytes.Equal(line, []byte("-1")) {
				return Frame{}, fmt.Errorf("%w: invalid bulk length %q", ErrProtocol, line)
			}
			return Null(), nil
		}
		n, err := c.readDecimal()
		if err != nil {
			return Frame{}, err
		}
		if n > MaxBulkLen {
			return Frame{}, fmt.Errorf("%w: bulk length %d exceeds %d", ErrLimitExceeded, n, MaxBulkLen)
		}
		if len(c.buf)-c.pos < int(n)+2 {
			return Frame{}, ErrIncomplete
		}
		data := make([]byte, n)
		copy(data, c.buf[c.pos:])
		c.pos += int(n)
		if c.buf[c.pos] != '\r' || c.buf[c.pos+1] != '\n' {
			return Frame{}, fmt.Errorf("%w: bulk string missing CRLF terminator", ErrProtocol)
		}
		c.pos += 2
		return NewBulk(data), nil
	case '*':
		n, err := c.readDecimal()
		if err != nil {
			return Frame{}, err
		}
		if n > MaxArrayLen {
			return Frame{}, fmt.Errorf("%w: array length %d exceeds %d", ErrLimitExceeded, n, MaxArrayLen)
		}
		elems := make([]Frame, 0, n)
		for i := uint64(0); i < n; i++ {
			el, err := parseFrame(c)
			if err != nil {
				return Frame{}, err
			}
			elems = append(elems, el)
		}
		return NewArray(elems...), nil
	default:
		return Frame{}, fmt.Errorf("%w: unknown frame type %q", ErrProtocol, t)
	}
}
