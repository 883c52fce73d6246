package exchange

import (
	"encoding/binary"
	"fmt"
	"io"

	"paykit/internal/domain"
)

// maxFrameSize bounds a single transport frame. Exchange messages are
// small JSON documents; anything near this limit is hostile or corrupt.
const maxFrameSize = 1 << 20

// writeFrame sends payload with a 4-byte big-endian length prefix.
func writeFrame(w io.Writer, payload []byte) error {
	if len(payload) > maxFrameSize {
		return fmt.Errorf("%w: frame of %d bytes exceeds limit", domain.ErrEncoding, len(payload))
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// readFrame reads one length-prefixed frame.
func readFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > maxFrameSize {
		return nil, fmt.Errorf("%w: frame of %d bytes exceeds limit", domain.ErrInvalidResponse, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
