// Package protocol implements the framing and field encoding of the game server status
// exchange: VarInt lengths, handshake and status request packets, and the status response frame.
package protocol

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// Packet identifiers and handshake constants.
const (
	// PacketStatus is the id of both the handshake/status request and the status response.
	PacketStatus byte = 0x00

	// NextStateStatus asks the server to switch into the status state after the handshake.
	NextStateStatus byte = 1

	// DefaultProtocolVersion is sent in the handshake; servers answer status for any value.
	DefaultProtocolVersion uint32 = 0
)

// BuildPacket frames a packet: VarInt length of (id + payload), then id, then payload.
func BuildPacket(id byte, payload []byte) []byte {
	bodyLen := 1 + len(payload)
	buf := make([]byte, 0, VarIntSize(uint32(bodyLen))+bodyLen)
	buf = AppendVarInt(buf, uint32(bodyLen))
	buf = append(buf, id)

	return append(buf, payload...)
}

// EncodeString encodes s as a single length byte followed by its UTF-8 bytes.
// The length is truncated to one byte, so only strings shorter than 256 bytes round-trip.
// An empty string produces no bytes at all, not even a zero length byte.
func EncodeString(s string) []byte {
	if s == "" {
		return nil
	}

	return EncodeStringPrefixed(s)
}

// EncodeStringPrefixed is EncodeString that always writes the length byte,
// emitting a single 0x00 for the empty string.
// The length counts UTF-8 bytes, not characters: "café" is prefixed with 5.
func EncodeStringPrefixed(s string) []byte {
	buf := make([]byte, 0, 1+len(s))
	buf = append(buf, byte(len(s)))

	return append(buf, s...)
}

// EncodePort encodes the low 16 bits of p in big-endian order.
func EncodePort(p int) []byte {
	return binary.BigEndian.AppendUint16(nil, uint16(p))
}

// Handshake is the first packet of a status exchange.
type Handshake struct {
	Host            string
	Port            int
	ProtocolVersion uint32
	NextState       byte

	// PrefixEmptyString writes a zero length byte for an empty host
	// instead of omitting the field.
	PrefixEmptyString bool
}

// Payload returns the handshake body without the packet id and length prefix.
func (h Handshake) Payload() ([]byte, error) {
	if !utf8.ValidString(h.Host) {
		return nil, fmt.Errorf("%w: host %q is not valid UTF-8", ErrEncoding, h.Host)
	}

	host := EncodeString(h.Host)
	if h.PrefixEmptyString {
		host = EncodeStringPrefixed(h.Host)
	}

	payload := make([]byte, 0, MaxVarIntLen+len(host)+3)
	payload = AppendVarInt(payload, h.ProtocolVersion)
	payload = append(payload, host...)
	payload = append(payload, EncodePort(h.Port)...)
	payload = append(payload, h.NextState)

	return payload, nil
}

// Packet returns the framed handshake ready to be written to the wire.
func (h Handshake) Packet() ([]byte, error) {
	payload, err := h.Payload()
	if err != nil {
		return nil, err
	}

	return BuildPacket(PacketStatus, payload), nil
}

// StatusRequestPacket returns the framed, empty-payload status request.
func StatusRequestPacket() []byte {
	return BuildPacket(PacketStatus, nil)
}
