package respserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/tvarn/cachelet-go/internal/resp"
	"github.com/tvarn/cachelet-go/internal/storage/memory"
	"github.com/tvarn/cachelet-go/internal/telemetry/logger"
	"github.com/tvarn/cachelet-go/internal/telemetry/metric"
)

// Config holds the RESP server configuration.
type Config struct {
	// Addr is the TCP listen address.
	Addr string
	// ReadTimeout bounds reading one command (default: 30s).
	ReadTimeout time.Duration
	// WriteTimeout bounds writing one reply (default: 30s).
	WriteTimeout time.Duration
	// IdleTimeout bounds the wait for the next command on an idle
	// connection (default: 5m).
	IdleTimeout time.Duration
	// RateLimit is the maximum number of commands per second per client
	// IP. Zero disables rate limiting.
	RateLimit int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:6379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
		RateLimit:    1000,
	}
}

// Server accepts RESP connections and serves them against one shared store.
type Server struct {
	cfg      *Config
	store    *memory.Store
	logger   *slog.Logger
	metrics  *metric.Registry
	limiters *ipLimiters

	ln      net.Listener
	running atomic.Bool
	wg      sync.WaitGroup
}

// New creates a server. The store is the only state shared between
// connections; metrics may be nil.
func New(cfg *Config, store *memory.Store, metrics *metric.Registry, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
	if cfg.RateLimit > 0 {
		s.limiters = newIPLimiters(cfg.RateLimit)
	}
	return s
}

// ListenAndServe listens on the configured address and serves until the
// context is canceled or Shutdown is called.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections from ln indefinitely, one goroutine per
// connection. A failed or malformed connection never takes the accept
// loop down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.ln = ln
	s.running.Store(true)
	s.logger.Info("resp server listening", "addr", ln.Addr().String())

	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, c)
		}()
	}
}

// Shutdown closes the listener and waits for in-flight connections, up to
// the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

// serveConn runs one connection's request loop. Errors here end this
// connection only.
func (s *Server) serveConn(ctx context.Context, netConn net.Conn) {
	defer netConn.Close()

	connID := ulid.Make().String()
	log := s.logger.With("conn_id", connID, "remote", netConn.RemoteAddr().String())
	ctx = logger.WithLogger(logger.WithConnID(ctx, connID), log)
	log.Debug("connection accepted")

	if s.metrics != nil {
		s.metrics.ConnectionsTotal.Inc()
		s.metrics.ConnectionsActive.Inc()
		defer s.metrics.ConnectionsActive.Dec()
	}

	var limiter *rate.Limiter
	if s.limiters != nil {
		limiter = s.limiters.get(hostOnly(netConn.RemoteAddr().String()))
	}

	idleTimeout := s.cfg.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = 5 * time.Minute
	}
	readTimeout := s.cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := s.cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 30 * time.Second
	}

	tc := &timeoutConn{Conn: netConn, idle: idleTimeout, read: readTimeout}
	rc := resp.NewConn(tc)
	for {
		tc.reset()

		frame, err := rc.ReadFrame()
		if err != nil {
			s.handleReadError(ctx, netConn, rc, err, writeTimeout)
			return
		}
		if frame == nil {
			log.Debug("connection closed by peer")
			return
		}

		cmd, err := ParseCommand(*frame)
		if err != nil {
			var ce *CommandError
			if errors.As(err, &ce) {
				if werr := s.writeReply(netConn, rc, resp.NewError("ERR "+ce.Message), writeTimeout); werr != nil {
					return
				}
				continue
			}
			// Frame-level violation: report and drop the connection.
			if s.metrics != nil {
				s.metrics.ProtocolErrorsTotal.Inc()
			}
			log.Warn("malformed request", "error", err)
			_ = s.writeReply(netConn, rc, resp.NewError("ERR protocol error"), writeTimeout)
			return
		}

		if limiter != nil && !limiter.Allow() {
			if werr := s.writeReply(netConn, rc, resp.NewError("ERR rate limit exceeded"), writeTimeout); werr != nil {
				return
			}
			continue
		}

		reply := cmd.Apply(s.store)
		if s.metrics != nil {
			s.metrics.CommandsTotal.WithLabelValues(cmd.Name()).Inc()
		}

		if err := s.writeReply(netConn, rc, reply, writeTimeout); err != nil {
			log.Debug("write failed", "error", err)
			return
		}
	}
}

// handleReadError classifies a ReadFrame failure, tells the peer when
// there is something useful to say, and lets the connection die. The
// connection's logger rides in the context.
func (s *Server) handleReadError(ctx context.Context, netConn net.Conn, rc *resp.Conn, err error, writeTimeout time.Duration) {
	log := logger.FromContext(ctx)
	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
		log.Debug("connection timed out")
	case errors.Is(err, resp.ErrConnectionReset):
		if s.metrics != nil {
			s.metrics.ProtocolErrorsTotal.Inc()
		}
		log.Warn("connection reset mid-frame")
	case errors.Is(err, resp.ErrProtocol), errors.Is(err, resp.ErrLimitExceeded):
		if s.metrics != nil {
			s.metrics.ProtocolErrorsTotal.Inc()
		}
		log.Warn("protocol error", "error", err)
		_ = s.writeReply(netConn, rc, resp.NewError("ERR protocol error"), writeTimeout)
	default:
		log.Debug("connection read error", "error", err)
	}
}

func (s *Server) writeReply(netConn net.Conn, rc *resp.Conn, reply resp.Frame, writeTimeout time.Duration) error {
	if err := netConn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return rc.WriteFrame(reply)
}

// timeoutConn applies the idle timeout while waiting for a command's
// first byte and the tighter read timeout once one has arrived. reset
// re-arms the idle timeout for the next command.
type timeoutConn struct {
	net.Conn
	idle    time.Duration
	read    time.Duration
	started bool
}

func (c *timeoutConn) reset() {
	c.started = false
}

func (c *timeoutConn) Read(p []byte) (int, error) {
	d := c.idle
	if c.started {
		d = c.read
	}
	if err := c.SetReadDeadline(time.Now().Add(d)); err != nil {
		return 0, err
	}
	n, err := c.Conn.Read(p)
	if n > 0 {
		c.started = true
	}
	return n, err
}

// ipLimiters hands out one token bucket per client IP.
type ipLimiters struct {
	mu     sync.Mutex
	perIP  map[string]*rate.Limiter
	perSec rate.Limit
	burst  int
}

func newIPLimiters(perSecond int) *ipLimiters {
	return &ipLimiters{
		perIP:  make(map[string]*rate.Limiter),
		perSec: rate.Limit(perSecond),
		burst:  perSecond,
	}
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.perIP[ip]
	if !ok {
		lim = rate.NewLimiter(l.perSec, l.burst)
		l.perIP[ip] = lim
	}
	return lim
}

func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
