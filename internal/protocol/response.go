package protocol

import (
	"bufio"
	"fmt"
	"io"
)

// NoInformation is returned in place of a payload when the server answers
// with a packet id other than PacketStatus.
const NoInformation = `{"message":"no_information"}`

type byteReader interface {
	io.Reader
	io.ByteReader
}

// Response is a decoded status response frame.
type Response struct {
	// Payload is the server's status document as sent, or NoInformation.
	Payload string

	// FrameLength is the announced frame length; it is not checked against the bytes read.
	FrameLength uint32

	// PacketID is the id byte that followed the frame length.
	PacketID byte

	// Recognized reports whether PacketID was the status id.
	Recognized bool
}

// ReadStatusResponse decodes one status response frame from r.
// For an unrecognized packet id the rest of the frame is left unread.
// A positive maxPayload caps the announced payload length.
func ReadStatusResponse(r io.Reader, maxPayload int) (Response, error) {
	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReader(r)
	}

	var resp Response

	frameLen, err := ReadVarInt(br)
	if err != nil {
		return resp, fmt.Errorf("read frame length: %w", err)
	}
	resp.FrameLength = frameLen

	id, err := br.ReadByte()
	if err != nil {
		return resp, fmt.Errorf("read packet id: %w", truncated(err))
	}
	resp.PacketID = id

	if id != PacketStatus {
		resp.Payload = NoInformation
		return resp, nil
	}

	size, err := ReadVarInt(br)
	if err != nil {
		return resp, fmt.Errorf("read payload length: %w", err)
	}

	if maxPayload > 0 && uint64(size) > uint64(maxPayload) {
		return resp, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, size, maxPayload)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(br, payload); err != nil {
		return resp, fmt.Errorf("read payload (%d bytes): %w", size, truncated(err))
	}

	resp.Payload = string(payload)
	resp.Recognized = true

	return resp, nil
}
