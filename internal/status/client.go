// Package status queries a game server for its self-reported status document:
// handshake, status request, one response frame, then the connection is closed.
package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/woozymasta/mcstatus/internal/protocol"
	"github.com/woozymasta/mcstatus/internal/transport"
)

// Defaults used by NewClient.
const (
	DefaultTimeout     = transport.DefaultReadTimeout
	DefaultDialTimeout = 3 * time.Second
	DefaultMaxPayload  = 2 << 20
)

// Result is the outcome of a successful status exchange.
type Result struct {
	// Payload is the server's status document verbatim, or protocol.NoInformation.
	Payload string `json:"payload"`

	// RemoteAddr is the address the connection was made to.
	RemoteAddr string `json:"remote_addr"`

	// Latency covers the whole exchange, connection setup included.
	Latency time.Duration `json:"latency"`

	// Recognized is false when the server answered with a non-status packet.
	Recognized bool `json:"recognized"`
}

// Client holds the query settings. The zero value is not usable; build one with NewClient.
// A Client keeps no per-query state and is safe for concurrent use.
type Client struct {
	// Dialer opens connections; nil dials directly with DialTimeout.
	Dialer transport.Dialer

	// Timeout bounds every read from the server.
	Timeout time.Duration

	// DialTimeout bounds connection setup when Dialer is nil.
	DialTimeout time.Duration

	// Deadline bounds the whole exchange; zero leaves only the per-read Timeout.
	Deadline time.Duration

	// MaxPayload caps the announced payload length; zero disables the cap.
	MaxPayload int

	// ProtocolVersion is sent in the handshake.
	ProtocolVersion uint32

	// PrefixEmptyString writes a zero length byte for an empty host in the handshake
	// instead of omitting the field.
	PrefixEmptyString bool
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-read timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.Timeout = d }
}

// WithDialTimeout sets the connection setup timeout.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) { c.DialTimeout = d }
}

// WithDeadline sets the overall limit of one exchange.
func WithDeadline(d time.Duration) Option {
	return func(c *Client) { c.Deadline = d }
}

// WithDialer replaces the direct dialer.
func WithDialer(d transport.Dialer) Option {
	return func(c *Client) { c.Dialer = d }
}

// WithProtocolVersion sets the version announced in the handshake.
func WithProtocolVersion(v uint32) Option {
	return func(c *Client) { c.ProtocolVersion = v }
}

// WithMaxPayload sets the payload size cap.
func WithMaxPayload(n int) Option {
	return func(c *Client) { c.MaxPayload = n }
}

// WithPrefixEmptyString enables the length byte for empty handshake strings.
func WithPrefixEmptyString(enabled bool) Option {
	return func(c *Client) { c.PrefixEmptyString = enabled }
}

// NewClient returns a Client with protocol version 0, a 1000 ms read timeout
// and the given options applied.
func NewClient(opts ...Option) *Client {
	c := &Client{
		Timeout:         DefaultTimeout,
		DialTimeout:     DefaultDialTimeout,
		MaxPayload:      DefaultMaxPayload,
		ProtocolVersion: protocol.DefaultProtocolVersion,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Query returns the status document of host:port, or protocol.NoInformation when
// the server answers with another packet type.
func (c *Client) Query(host string, port int) (string, error) {
	res, err := c.Probe(context.Background(), host, port)
	if err != nil {
		return "", err
	}

	return res.Payload, nil
}

// Probe runs one status exchange against host:port. The connection is closed before
// Probe returns, whatever the outcome. Port range checks are left to the caller.
func (c *Client) Probe(ctx context.Context, host string, port int) (*Result, error) {
	start := time.Now()

	if c.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Deadline)
		defer cancel()
	}

	handshake, err := protocol.Handshake{
		Host:              host,
		Port:              port,
		ProtocolVersion:   c.ProtocolVersion,
		NextState:         protocol.NextStateStatus,
		PrefixEmptyString: c.PrefixEmptyString,
	}.Packet()
	if err != nil {
		return nil, err
	}

	session := transport.New(transport.Options{
		Dialer:      c.Dialer,
		ReadTimeout: c.Timeout,
		DialTimeout: c.DialTimeout,
	})
	defer func() { _ = session.Close() }()

	if err := session.Open(ctx, host, port); err != nil {
		return nil, c.fail(ctx, session, err)
	}

	if err := session.Send(handshake); err != nil {
		return nil, c.fail(ctx, session, fmt.Errorf("send handshake: %w", err))
	}

	if err := session.Send(protocol.StatusRequestPacket()); err != nil {
		return nil, c.fail(ctx, session, fmt.Errorf("send status request: %w", err))
	}

	resp, err := protocol.ReadStatusResponse(session.Reader(), c.MaxPayload)
	if err != nil {
		return nil, c.fail(ctx, session, fmt.Errorf("read status response: %w", err))
	}
	session.Received()

	res := &Result{
		Payload:    resp.Payload,
		Recognized: resp.Recognized,
		Latency:    time.Since(start),
	}
	if addr := session.RemoteAddr(); addr != nil {
		res.RemoteAddr = addr.String()
	}

	return res, nil
}

// fail marks the session failed and prefers the context error when ctx ended the exchange.
// An expired deadline is reported as a timeout, any other cancellation as ErrCanceled.
func (c *Client) fail(ctx context.Context, session *transport.Session, err error) error {
	session.Fail()

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w: %w", transport.ErrTimeout, ctxErr, err)
		}
		return fmt.Errorf("%w: %w: %w", ErrCanceled, ctxErr, err)
	}

	return err
}
