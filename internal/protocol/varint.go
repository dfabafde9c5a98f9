package protocol

import (
	"errors"
	"io"
)

// MaxVarIntLen is the maximum number of bytes of a single encoded VarInt.
const MaxVarIntLen = 5

// EncodeVarInt returns the minimal base-128 encoding of v.
func EncodeVarInt(v uint32) []byte {
	return AppendVarInt(make([]byte, 0, MaxVarIntLen), v)
}

// AppendVarInt appends the encoding of v to dst and returns the extended slice.
func AppendVarInt(dst []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if v == 0 {
			return dst
		}
	}
}

// VarIntSize returns the number of bytes EncodeVarInt emits for v.
func VarIntSize(v uint32) int {
	size := 1
	for v >= 0x80 {
		v >>= 7
		size++
	}

	return size
}

// ReadVarInt decodes one VarInt from r.
// It stops with ErrVarIntTooLarge after MaxVarIntLen continuation bytes,
// without consuming anything further from r.
func ReadVarInt(r io.ByteReader) (uint32, error) {
	var value uint32

	for i := 0; ; i++ {
		if i == MaxVarIntLen {
			return 0, ErrVarIntTooLarge
		}

		b, err := r.ReadByte()
		if err != nil {
			return 0, truncated(err)
		}

		value |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return value, nil
		}
	}
}

// truncated maps end-of-stream conditions to ErrTruncated and passes any other error through.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}

	return err
}
