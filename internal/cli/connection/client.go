package connection

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/tvarn/cachelet-go/internal/resp"
)

// ErrClosed is returned when the server closes the connection while a
// reply is pending.
var ErrClosed = errors.New("connection: closed by server")

// Client is a RESP client for one server connection. It is not safe for
// concurrent use.
type Client struct {
	addr    string
	timeout time.Duration
	conn    net.Conn
	rc      *resp.Conn
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout (default: 10s).
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// NewClient creates a client for the given address. The connection is
// established lazily on the first request.
func NewClient(addr string, opts ...ClientOption) *Client {
	c := &Client{
		addr:    addr,
		timeout: 10 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Connect dials the server.
func (c *Client) Connect(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return err
	}
	c.conn = conn
	c.rc = resp.NewConn(conn)
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.rc = nil
	return err
}

// Do sends one command and waits for its reply. Each argument becomes a
// bulk string in the request array.
func (c *Client) Do(ctx context.Context, args ...string) (resp.Frame, error) {
	if c.conn == nil {
		if err := c.Connect(ctx); err != nil {
			return resp.Frame{}, err
		}
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return resp.Frame{}, err
	}

	frames := make([]resp.Frame, len(args))
	for i, a := range args {
		frames[i] = resp.NewBulkString(a)
	}
	if err := c.rc.WriteFrame(resp.NewArray(frames...)); err != nil {
		return resp.Frame{}, err
	}

	reply, err := c.rc.ReadFrame()
	if err != nil {
		return resp.Frame{}, err
	}
	if reply == nil {
		return resp.Frame{}, ErrClosed
	}
	return *reply, nil
}
