package net

import (
	"encoding/binary"
	"fmt"
	"io"
)

// maxFrameLen bounds a single envelope's wire size (spec §6: malformed
// envelopes are protocol violations, rejected before they reach C3).
const maxFrameLen = 1 << 20 // 1 MiB

// ReadFrame reads one length-prefixed frame from r.
// Wire format: [4 bytes LE: len(payload)][payload].
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	payloadLen := int(binary.LittleEndian.Uint32(header[:]))
	if payloadLen <= 0 || payloadLen > maxFrameLen {
		return nil, fmt.Errorf("invalid frame length: %d", payloadLen)
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload (%d bytes): %w", payloadLen, err)
	}
	return payload, nil
}

// WriteFrame writes one length-prefixed frame to w.
// Wire format: [4 bytes LE: len(data)][data].
func WriteFrame(w io.Writer, data []byte) error {
	if len(data) > maxFrameLen {
		return fmt.Errorf("frame too large: %d bytes", len(data))
	}
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(data)))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}
