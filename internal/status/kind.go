package status

import (
	"errors"

	"github.com/woozymasta/mcstatus/internal/protocol"
	"github.com/woozymasta/mcstatus/internal/transport"
)

// ErrCanceled marks a query whose context was canceled before the exchange finished.
var ErrCanceled = errors.New("query canceled")

// ErrorKind names the class of a failed query.
type ErrorKind string

// Error kinds reported by Kind.
const (
	KindNone       ErrorKind = ""
	KindConnection ErrorKind = "connection"
	KindTimeout    ErrorKind = "timeout"
	KindProtocol   ErrorKind = "protocol"
	KindEncoding   ErrorKind = "encoding"
	KindCanceled   ErrorKind = "canceled"
	KindUnknown    ErrorKind = "unknown"
)

// Kind classifies an error returned by Query or Probe.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrCanceled):
		return KindCanceled
	case errors.Is(err, transport.ErrTimeout):
		return KindTimeout
	case errors.Is(err, protocol.ErrProtocol):
		return KindProtocol
	case errors.Is(err, protocol.ErrEncoding):
		return KindEncoding
	case errors.Is(err, transport.ErrConnection):
		return KindConnection
	default:
		return KindUnknown
	}
}
