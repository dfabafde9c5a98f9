package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocol is the parent of every malformed-input error returned by this package.
	ErrProtocol = errors.New("protocol error")

	// ErrVarIntTooLarge is returned when a VarInt does not terminate within MaxVarIntLen bytes.
	ErrVarIntTooLarge = fmt.Errorf("%w: varint is too big", ErrProtocol)

	// ErrTruncated is returned when the stream ends in the middle of a frame.
	ErrTruncated = fmt.Errorf("%w: truncated frame", ErrProtocol)

	// ErrPayloadTooLarge is returned when a status payload announces more bytes than allowed.
	ErrPayloadTooLarge = fmt.Errorf("%w: payload too large", ErrProtocol)

	// ErrEncoding is returned when text cannot be represented as UTF-8.
	ErrEncoding = errors.New("encoding error")
)
