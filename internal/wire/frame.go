// Package wire implements the length-prefixed message protocol: a 4-byte
// big-endian length followed by that many bytes of a JSON envelope
// {"id": <message type>, "data": {...}}. Every message type has an
// explicit encode/decode pair; a declared member missing from the payload
// is a hard decode error.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxMessageBytes caps incoming frame sizes unless the caller
// configures otherwise. Library snapshots are the largest payloads.
const DefaultMaxMessageBytes = 32 << 20

// WriteFrame writes one length-prefixed frame.
func WriteFrame(w io.Writer, payload []byte) error {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := w.Write(prefix[:]); err != nil {
		return &TransportError{Op: "write frame header", Err: err}
	}
	if _, err := w.Write(payload); err != nil {
		return &TransportError{Op: "write frame payload", Err: err}
	}
	return nil
}

// ReadFrame reads one length-prefixed frame of at most max bytes.
func ReadFrame(r io.Reader, max uint32) ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, &TransportError{Op: "read frame header", Err: err}
	}
	size := binary.BigEndian.Uint32(prefix[:])
	if size == 0 {
		return nil, &ProtocolError{Reason: "empty frame"}
	}
	if max > 0 && size > max {
		return nil, &ProtocolError{Reason: fmt.Sprintf("frame of %d bytes exceeds limit of %d", size, max)}
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, &TransportError{Op: "read frame payload", Err: err}
	}
	return payload, nil
}

// WriteMessage encodes m and writes it as one frame.
func WriteMessage(w io.Writer, m Message) error {
	payload, err := Marshal(m)
	if err != nil {
		return err
	}
	return WriteFrame(w, payload)
}

// ReadMessage reads one frame and decodes it.
func ReadMessage(r io.Reader, max uint32) (Message, error) {
	payload, err := ReadFrame(r, max)
	if err != nil {
		return nil, err
	}
	return Unmarshal(payload)
}
