package transport

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

// Dialer opens outbound TCP connections.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// NewDialer returns a direct dialer, or a SOCKS5 dialer when proxyURL is set
// (socks5://[user:pass@]host:port). The timeout applies to establishing the connection.
func NewDialer(timeout time.Duration, proxyURL string) (Dialer, error) {
	direct := &net.Dialer{Timeout: timeout}
	if proxyURL == "" {
		return direct, nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}

	d, err := proxy.FromURL(u, direct)
	if err != nil {
		return nil, fmt.Errorf("create proxy dialer: %w", err)
	}

	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("proxy scheme %q does not support dialing with context", u.Scheme)
	}

	return &timeoutDialer{dialer: cd, timeout: timeout}, nil
}

// timeoutDialer bounds proxied dials, which do not inherit the forward dialer's timeout
// for the SOCKS negotiation.
type timeoutDialer struct {
	dialer  proxy.ContextDialer
	timeout time.Duration
}

func (d *timeoutDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	return d.dialer.DialContext(ctx, network, address)
}
