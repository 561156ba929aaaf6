package net

import (
	"encoding/binary"
	"fmt"
	"io"
)

// magic identifies the start of every frame: 0x11 0x68.
var magic = [2]byte{0x11, 0x68}

// MaxFramePayload is the protocol ceiling on a single frame's payload size.
// Connections additionally enforce a lower operational cap from config.
const MaxFramePayload = 65535

// ErrBadMagic is returned by ReadFrame when the header's magic bytes don't
// match. The caller should close the connection with a protocol-error reason.
var ErrBadMagic = fmt.Errorf("net: bad frame magic")

// ReadFrame reads one frame: [0x11][0x68][size_hi][size_lo][payload...].
// size is the payload length, big-endian. maxPayload is the operational cap;
// frames whose declared size exceeds it are rejected before the payload is
// read, so an oversized claim can't be used to stall the reader on memory
// allocation or a slow-trickle payload.
func ReadFrame(r io.Reader, maxPayload int) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}
	if header[0] != magic[0] || header[1] != magic[1] {
		return nil, ErrBadMagic
	}

	size := int(binary.BigEndian.Uint16(header[2:4]))
	if size > maxPayload {
		return nil, fmt.Errorf("frame size %d exceeds operational cap %d", size, maxPayload)
	}

	payload := make([]byte, size)
	if size > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("read frame payload (%d bytes): %w", size, err)
		}
	}
	return payload, nil
}

// WriteFrame writes one frame wrapping data.
func WriteFrame(w io.Writer, data []byte) error {
	if len(data) > MaxFramePayload {
		return fmt.Errorf("frame payload %d exceeds protocol ceiling %d", len(data), MaxFramePayload)
	}
	var header [4]byte
	header[0], header[1] = magic[0], magic[1]
	binary.BigEndian.PutUint16(header[2:4], uint16(len(data)))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}
