package respserver

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/tvarn/cachelet-go/internal/resp"
)

// errEndOfArgs signals that a command's argument list is exhausted. SET
// uses it to tell "no expiry given" apart from a malformed expiry.
var errEndOfArgs = errors.New("respserver: end of arguments")

// args consumes the elements of a command array positionally.
type args struct {
	frames []resp.Frame
	pos    int
}

// newArgs requires f to be an array frame; anything else is unrecoverable
// at the wire level.
func newArgs(f resp.Frame) (*args, error) {
	if f.Kind != resp.KindArray {
		return nil, fmt.Errorf("%w: expected array, got %s", ErrBadRequest, f.Kind)
	}
	return &args{frames: f.Array}, nil
}

func (a *args) next() (resp.Frame, error) {
	if a.pos >= len(a.frames) {
		return resp.Frame{}, errEndOfArgs
	}
	f := a.frames[a.pos]
	a.pos++
	return f, nil
}

// nextString returns the next element as text. Bulk payloads must be valid
// UTF-8 to be treated as text.
func (a *args) nextString() (string, error) {
	f, err := a.next()
	if err != nil {
		return "", err
	}
	switch f.Kind {
	case resp.KindSimple:
		return f.Str, nil
	case resp.KindBulk:
		if !utf8.Valid(f.Bulk) {
			return "", errors.New("invalid UTF-8 in argument")
		}
		return string(f.Bulk), nil
	default:
		return "", fmt.Errorf("expected string argument, got %s", f.Kind)
	}
}

// nextBytes returns the next element as raw bytes.
func (a *args) nextBytes() ([]byte, error) {
	f, err := a.next()
	if err != nil {
		return nil, err
	}
	switch f.Kind {
	case resp.KindBulk:
		return f.Bulk, nil
	case resp.KindSimple:
		return []byte(f.Str), nil
	default:
		return nil, fmt.Errorf("expected bulk argument, got %s", f.Kind)
	}
}

// nextInt returns the next element parsed as a decimal integer.
func (a *args) nextInt() (int64, error) {
	s, err := a.nextString()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.New("value is not an integer or out of range")
	}
	return n, nil
}

// finish errors if elements remain unconsumed, which means the client sent
// more arguments than the command takes.
func (a *args) finish() error {
	if a.pos != len(a.frames) {
		return fmt.Errorf("%d trailing arguments", len(a.frames)-a.pos)
	}
	return nil
}
