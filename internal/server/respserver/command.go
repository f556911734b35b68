package respserver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tvarn/cachelet-go/internal/resp"
	"github.com/tvarn/cachelet-go/internal/storage/memory"
)

// ErrBadRequest marks a request broken at the frame level (not an array,
// command name not a string). The connection that sent it is dropped.
var ErrBadRequest = errors.New("respserver: malformed request")

// CommandError is a request broken at the argument level: wrong arity, an
// unknown SET expiry keyword, a non-numeric duration. It is answered with
// an error frame and the connection stays open.
type CommandError struct {
	Message string
}

func (e *CommandError) Error() string { return "respserver: " + e.Message }

func commandErrorf(format string, a ...any) error {
	return &CommandError{Message: fmt.Sprintf(format, a...)}
}

// Command is one decoded client request, ready to run against the store.
type Command interface {
	// Name returns the lower-case command name, used for metrics labels.
	Name() string
	// Apply executes the command and returns the reply frame.
	Apply(store *memory.Store) resp.Frame
}

// ParseCommand decodes a request frame into a typed command. The returned
// error is either ErrBadRequest (drop the connection) or a *CommandError
// (reply with an error frame). An unrecognized command name is not an
// error here: it decodes into Unknown, which replies for itself.
func ParseCommand(f resp.Frame) (Command, error) {
	a, err := newArgs(f)
	if err != nil {
		return nil, err
	}

	name, err := a.nextString()
	if err != nil {
		return nil, fmt.Errorf("%w: missing or non-string command name", ErrBadRequest)
	}
	name = strings.ToLower(name)

	var cmd Command
	switch name {
	case "ping":
		cmd = &Ping{}
	case "get":
		cmd, err = parseGet(a)
	case "set":
		cmd, err = parseSet(a)
	case "del":
		cmd, err = parseDel(a)
	default:
		// Extra arguments to an unknown command are irrelevant; the reply
		// names the command either way.
		return &Unknown{Cmd: name}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := a.finish(); err != nil {
		return nil, commandErrorf("wrong number of arguments for '%s' command", name)
	}
	return cmd, nil
}

// Ping replies PONG without touching the store.
type Ping struct{}

func (c *Ping) Name() string { return "ping" }

func (c *Ping) Apply(_ *memory.Store) resp.Frame {
	return resp.NewSimple("PONG")
}

// Get reads one key.
type Get struct {
	Key string
}

func parseGet(a *args) (Command, error) {
	key, err := a.nextString()
	if err != nil {
		return nil, commandErrorf("wrong number of arguments for 'get' command")
	}
	return &Get{Key: key}, nil
}

func (c *Get) Name() string { return "get" }

func (c *Get) Apply(store *memory.Store) resp.Frame {
	value, ok := store.Get(c.Key)
	if !ok {
		return resp.Null()
	}
	return resp.NewBulk(value)
}

// Set writes one key, with an optional expiry given as EX seconds or PX
// milliseconds.
type Set struct {
	Key    string
	Value  []byte
	Expire time.Duration // zero means no expiry
}

func parseSet(a *args) (Command, error) {
	key, err := a.nextString()
	if err != nil {
		return nil, commandErrorf("wrong number of arguments for 'set' command")
	}
	value, err := a.nextBytes()
	if err != nil {
		return nil, commandErrorf("wrong number of arguments for 'set' command")
	}

	cmd := &Set{Key: key, Value: value}

	word, err := a.nextString()
	if errors.Is(err, errEndOfArgs) {
		return cmd, nil
	}
	if err != nil {
		return nil, commandErrorf("syntax error")
	}

	var unit time.Duration
	switch strings.ToUpper(word) {
	case "EX":
		unit = time.Second
	case "PX":
		unit = time.Millisecond
	default:
		return nil, commandErrorf("syntax error")
	}

	n, err := a.nextInt()
	if err != nil {
		return nil, commandErrorf("syntax error")
	}
	if n <= 0 {
		return nil, commandErrorf("invalid expire time in 'set' command")
	}
	cmd.Expire = time.Duration(n) * unit
	return cmd, nil
}

func (c *Set) Name() string { return "set" }

func (c *Set) Apply(store *memory.Store) resp.Frame {
	store.Set(c.Key, c.Value, c.Expire)
	return resp.NewSimple("OK")
}

// Del removes one key and replies with the number of keys removed.
type Del struct {
	Key string
}

func parseDel(a *args) (Command, error) {
	key, err := a.nextString()
	if err != nil {
		return nil, commandErrorf("wrong number of arguments for 'del' command")
	}
	return &Del{Key: key}, nil
}

func (c *Del) Name() string { return "del" }

func (c *Del) Apply(store *memory.Store) resp.Frame {
	if store.Delete(c.Key) {
		return resp.NewInteger(1)
	}
	return resp.NewInteger(0)
}

// Unknown is a recognized-as-unrecognized command. Decoding it is not a
// failure; applying it tells the client what it sent.
type Unknown struct {
	Cmd string
}

func (c *Unknown) Name() string { return "unknown" }

func (c *Unknown) Apply(_ *memory.Store) resp.Frame {
	return resp.NewError(fmt.Sprintf("ERR unknown command '%s'", c.Cmd))
}
