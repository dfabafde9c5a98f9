package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"testing"
	"time"
)

// listen starts a TCP listener whose accepted connections are passed to handle.
func listen(t *testing.T, handle func(net.Conn)) (string, int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer func() { _ = conn.Close() }()
				handle(conn)
			}()
		}
	}()

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)

	return host, port
}

func TestSessionLifecycle(t *testing.T) {
	host, port := listen(t, func(conn net.Conn) {
		buf := make([]byte, 3)
		if _, err := io.ReadFull(conn, buf); err != nil {
			return
		}
		_, _ = conn.Write([]byte("pong"))
	})

	s := New(Options{ReadTimeout: time.Second})
	if s.State() != StateIdle {
		t.Fatalf("initial state = %s", s.State())
	}

	if err := s.Open(context.Background(), host, port); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.State() != StateConnected {
		t.Fatalf("state after Open = %s", s.State())
	}
	if s.RemoteAddr() == nil {
		t.Fatal("RemoteAddr is nil after Open")
	}

	steps := []struct {
		packet []byte
		state  State
	}{
		{[]byte{0x01}, StateHandshakeSent},
		{[]byte{0x02, 0x03}, StateRequestSent},
	}
	for _, step := range steps {
		if err := s.Send(step.packet); err != nil {
			t.Fatalf("Send: %v", err)
		}
		if s.State() != step.state {
			t.Fatalf("state = %s, want %s", s.State(), step.state)
		}
	}

	if err := s.Send([]byte{0x04}); !errors.Is(err, ErrState) {
		t.Fatalf("third Send error = %v, want ErrState", err)
	}

	buf := make([]byte, 4)
	if _, err := io.ReadFull(s.Reader(), buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf) != "pong" {
		t.Fatalf("read %q, want pong", buf)
	}

	s.Received()
	if s.State() != StateResponseReceived {
		t.Fatalf("state = %s, want %s", s.State(), StateResponseReceived)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if s.State() != StateClosed {
		t.Fatalf("state = %s, want %s", s.State(), StateClosed)
	}
	if err := s.Open(context.Background(), host, port); !errors.Is(err, ErrState) {
		t.Fatalf("Open after Close error = %v, want ErrState", err)
	}
}

func TestSessionReadTimeout(t *testing.T) {
	host, port := listen(t, func(conn net.Conn) {
		_, _ = io.Copy(io.Discard, conn)
	})

	s := New(Options{ReadTimeout: 100 * time.Millisecond})
	defer func() { _ = s.Close() }()

	if err := s.Open(context.Background(), host, port); err != nil {
		t.Fatalf("Open: %v", err)
	}

	start := time.Now()
	_, err := s.Reader().ReadByte()
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("ReadByte error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("read blocked for %s", elapsed)
	}
}

func TestSessionEOFIsNotWrapped(t *testing.T) {
	host, port := listen(t, func(net.Conn) {})

	s := New(Options{})
	defer func() { _ = s.Close() }()

	if err := s.Open(context.Background(), host, port); err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := s.Reader().ReadByte(); err != io.EOF {
		t.Fatalf("ReadByte error = %v, want io.EOF", err)
	}
}

func TestSessionDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	s := New(Options{DialTimeout: time.Second})
	err = s.Open(context.Background(), "127.0.0.1", port)
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("Open error = %v, want ErrConnection", err)
	}
	if s.State() != StateFailed {
		t.Fatalf("state = %s, want %s", s.State(), StateFailed)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if s.State() != StateFailed {
		t.Fatalf("state after Close = %s, want %s", s.State(), StateFailed)
	}
}

func TestSessionCancel(t *testing.T) {
	host, port := listen(t, func(conn net.Conn) {
		_, _ = io.Copy(io.Discard, conn)
	})

	ctx, cancel := context.WithCancel(context.Background())
	s := New(Options{ReadTimeout: 10 * time.Second})
	defer func() { _ = s.Close() }()

	if err := s.Open(ctx, host, port); err != nil {
		t.Fatalf("Open: %v", err)
	}

	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := s.Reader().ReadByte()
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("ReadByte error = %v, want context.Canceled", err)
	}
}

func TestStateString(t *testing.T) {
	if StateRequestSent.String() != "request_sent" {
		t.Errorf("StateRequestSent.String() = %q", StateRequestSent.String())
	}
	if State(42).String() != "unknown" {
		t.Errorf("State(42).String() = %q", State(42).String())
	}
}

func TestNewDialer(t *testing.T) {
	d, err := NewDialer(time.Second, "")
	if err != nil {
		t.Fatalf("NewDialer: %v", err)
	}
	if _, ok := d.(*net.Dialer); !ok {
		t.Errorf("direct dialer is %T", d)
	}

	if _, err := NewDialer(time.Second, "socks5://127.0.0.1:1080"); err != nil {
		t.Errorf("socks5 dialer: %v", err)
	}
	if _, err := NewDialer(time.Second, "gopher://127.0.0.1:70"); err == nil {
		t.Error("expected error for unsupported proxy scheme")
	}
}
