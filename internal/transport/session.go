// Package transport owns the TCP socket of a single status exchange: a bounded-timeout
// connection that writes the request packets and exposes the response stream.
package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"
)

// DefaultReadTimeout bounds every read from the remote server.
const DefaultReadTimeout = 1000 * time.Millisecond

var (
	// ErrConnection is returned when the connection cannot be established or written to.
	ErrConnection = errors.New("connection error")

	// ErrTimeout is returned when the remote server does not answer within the read timeout.
	ErrTimeout = errors.New("timeout")

	// ErrState is returned when an operation does not fit the session state.
	ErrState = errors.New("invalid session state")
)

// State is the lifecycle stage of a Session.
type State int

// Session states.
const (
	StateIdle State = iota
	StateConnected
	StateHandshakeSent
	StateRequestSent
	StateResponseReceived
	StateClosed
	StateFailed
)

var stateNames = [...]string{
	StateIdle:             "idle",
	StateConnected:        "connected",
	StateHandshakeSent:    "handshake_sent",
	StateRequestSent:      "request_sent",
	StateResponseReceived: "response_received",
	StateClosed:           "closed",
	StateFailed:           "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}

	return stateNames[s]
}

// terminal reports whether no further transitions are possible.
func (s State) terminal() bool {
	return s == StateClosed || s == StateFailed
}

// Options configures a Session.
type Options struct {
	// Dialer opens the connection. A nil Dialer dials directly with DialTimeout.
	Dialer Dialer

	// ReadTimeout bounds each read. Zero means DefaultReadTimeout.
	ReadTimeout time.Duration

	// DialTimeout bounds connection setup when Dialer is nil. Zero means no limit.
	DialTimeout time.Duration
}

// Session is one exclusive connection to a game server. It is not safe for
// concurrent use except for Close, which may be called from any goroutine.
type Session struct {
	opts Options

	mu     sync.Mutex
	ctx    context.Context
	conn   net.Conn
	reader *bufio.Reader
	state  State
	stop   func() bool
}

// New creates an idle session.
func New(opts Options) *Session {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.Dialer == nil {
		opts.Dialer = &net.Dialer{Timeout: opts.DialTimeout}
	}

	return &Session{opts: opts}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open connects to host:port. Cancelling ctx afterwards aborts any pending read or write.
func (s *Session) Open(ctx context.Context, host string, port int) error {
	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: open in state %s", ErrState, state)
	}
	s.mu.Unlock()

	address := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := s.opts.Dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		s.setState(StateFailed)
		return fmt.Errorf("%w: dial %s: %w", ErrConnection, address, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		// closed while dialing
		_ = conn.Close()
		return fmt.Errorf("%w: session closed while dialing", ErrState)
	}

	s.ctx = ctx
	s.conn = conn
	s.reader = bufio.NewReader(&deadlineReader{ctx: ctx, conn: conn, timeout: s.opts.ReadTimeout})
	s.stop = context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	s.state = StateConnected

	return nil
}

// Send writes packet in full. The first send moves the session to HandshakeSent,
// the second to RequestSent.
func (s *Session) Send(packet []byte) error {
	s.mu.Lock()
	ctx, conn, state := s.ctx, s.conn, s.state
	s.mu.Unlock()

	var next State
	switch state {
	case StateConnected:
		next = StateHandshakeSent
	case StateHandshakeSent:
		next = StateRequestSent
	default:
		return fmt.Errorf("%w: send in state %s", ErrState, state)
	}

	if err := ctx.Err(); err != nil {
		s.setState(StateFailed)
		return err
	}

	_ = conn.SetWriteDeadline(time.Now().Add(s.opts.ReadTimeout))
	if _, err := conn.Write(packet); err != nil {
		s.setState(StateFailed)
		if isTimeout(err) {
			return fmt.Errorf("%w: write: %w", ErrTimeout, err)
		}
		return fmt.Errorf("%w: write: %w", ErrConnection, err)
	}

	s.setState(next)
	return nil
}

// Reader returns the buffered response stream. Each read from the socket is bounded
// by the read timeout; expiry surfaces as ErrTimeout.
func (s *Session) Reader() *bufio.Reader {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reader
}

// Received marks the response as fully decoded.
func (s *Session) Received() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRequestSent {
		s.state = StateResponseReceived
	}
}

// Fail moves a live session to the Failed state.
func (s *Session) Fail() {
	s.setState(StateFailed)
}

// RemoteAddr returns the peer address, or nil before Open succeeds.
func (s *Session) RemoteAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.RemoteAddr()
}

// Close releases the connection. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		s.stop()
		s.stop = nil
	}

	if s.state != StateFailed {
		s.state = StateClosed
	}

	if s.conn == nil {
		return nil
	}

	conn := s.conn
	s.conn = nil
	s.reader = nil
	return conn.Close()
}

// setState moves the session to st unless it already reached a terminal state.
func (s *Session) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.terminal() {
		s.state = st
	}
}

// deadlineReader arms a fresh read deadline before every read from the socket.
// End of stream is returned as a bare io.EOF so framing code can detect truncation.
type deadlineReader struct {
	ctx     context.Context
	conn    net.Conn
	timeout time.Duration
}

func (r *deadlineReader) Read(p []byte) (int, error) {
	if err := r.conn.SetReadDeadline(time.Now().Add(r.timeout)); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}

	n, err := r.conn.Read(p)
	switch {
	case err == nil, err == io.EOF:
		return n, err
	case r.ctx.Err() != nil:
		return n, r.ctx.Err()
	case isTimeout(err):
		return n, fmt.Errorf("%w: no data within %s: %w", ErrTimeout, r.timeout, err)
	default:
		return n, fmt.Errorf("%w: read: %w", ErrConnection, err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
