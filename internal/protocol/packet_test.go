package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestBuildPacket(t *testing.T) {
	tests := []struct {
		name     string
		id       byte
		payload  []byte
		expected []byte
	}{
		{"empty payload", 0x00, nil, []byte{0x01, 0x00}},
		{"short payload", 0x01, []byte{0xAA, 0xBB}, []byte{0x03, 0x01, 0xAA, 0xBB}},
		{"two byte length", 0x00, make([]byte, 127), append([]byte{0x80, 0x01, 0x00}, make([]byte, 127)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BuildPacket(tt.id, tt.payload)
			if !bytes.Equal(result, tt.expected) {
				t.Errorf("BuildPacket(%#x) = % X, want % X", tt.id, result, tt.expected)
			}
		})
	}
}

func TestStatusRequestPacket(t *testing.T) {
	expected := append(EncodeVarInt(1), 0x00)
	if result := StatusRequestPacket(); !bytes.Equal(result, expected) {
		t.Errorf("StatusRequestPacket() = % X, want % X", result, expected)
	}
}

func TestEncodeString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []byte
		prefixed []byte
	}{
		{"empty", "", nil, []byte{0x00}},
		{"ascii", "abc", []byte{0x03, 'a', 'b', 'c'}, []byte{0x03, 'a', 'b', 'c'}},
		{"utf8 byte length", "é", []byte{0x02, 0xC3, 0xA9}, []byte{0x02, 0xC3, 0xA9}},
		{"bytes not characters", "café", []byte{0x05, 'c', 'a', 'f', 0xC3, 0xA9}, []byte{0x05, 'c', 'a', 'f', 0xC3, 0xA9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := EncodeString(tt.input); !bytes.Equal(result, tt.expected) {
				t.Errorf("EncodeString(%q) = % X, want % X", tt.input, result, tt.expected)
			}
			if result := EncodeStringPrefixed(tt.input); !bytes.Equal(result, tt.prefixed) {
				t.Errorf("EncodeStringPrefixed(%q) = % X, want % X", tt.input, result, tt.prefixed)
			}
		})
	}
}

func TestEncodeStringEmptyProducesNothing(t *testing.T) {
	if result := EncodeString(""); len(result) != 0 {
		t.Fatalf("EncodeString(\"\") = % X, want no bytes", result)
	}
}

func TestEncodePort(t *testing.T) {
	tests := []struct {
		port     int
		expected []byte
	}{
		{0, []byte{0x00, 0x00}},
		{25565, []byte{0x63, 0xDD}},
		{65535, []byte{0xFF, 0xFF}},
		{0x1FFFF, []byte{0xFF, 0xFF}},
		{0x10001, []byte{0x00, 0x01}},
	}

	for _, tt := range tests {
		if result := EncodePort(tt.port); !bytes.Equal(result, tt.expected) {
			t.Errorf("EncodePort(%d) = % X, want % X", tt.port, result, tt.expected)
		}
	}
}

func TestHandshakePacket(t *testing.T) {
	h := Handshake{
		Host:            "localhost",
		Port:            25565,
		ProtocolVersion: 0,
		NextState:       NextStateStatus,
	}

	payload := []byte{0x00, 0x09}
	payload = append(payload, "localhost"...)
	payload = append(payload, 0x63, 0xDD, 0x01)

	expected := EncodeVarInt(uint32(len(payload) + 1))
	expected = append(expected, 0x00)
	expected = append(expected, payload...)

	result, err := h.Packet()
	if err != nil {
		t.Fatalf("Packet() failed: %v", err)
	}
	if !bytes.Equal(result, expected) {
		t.Errorf("Packet() = % X, want % X", result, expected)
	}
	if result[0] != 0x0F {
		t.Errorf("length prefix = %#x, want 0x0f", result[0])
	}
}

func TestHandshakeEmptyHost(t *testing.T) {
	h := Handshake{Port: 25565, NextState: NextStateStatus}

	quirk, err := h.Payload()
	if err != nil {
		t.Fatalf("Payload() failed: %v", err)
	}
	if expected := []byte{0x00, 0x63, 0xDD, 0x01}; !bytes.Equal(quirk, expected) {
		t.Errorf("Payload() = % X, want % X", quirk, expected)
	}

	h.PrefixEmptyString = true
	prefixed, err := h.Payload()
	if err != nil {
		t.Fatalf("Payload() failed: %v", err)
	}
	if expected := []byte{0x00, 0x00, 0x63, 0xDD, 0x01}; !bytes.Equal(prefixed, expected) {
		t.Errorf("prefixed Payload() = % X, want % X", prefixed, expected)
	}
}

func TestHandshakeInvalidHost(t *testing.T) {
	h := Handshake{Host: "bad\xff", Port: 25565, NextState: NextStateStatus}

	if _, err := h.Packet(); !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
}
