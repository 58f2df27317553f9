package base

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"github.com/ValentinKolb/keyz/rpc/common"
	"io"
	"net"
)

const (
	// headerSize is the size of the length prefix of a frame
	headerSize = 4

	// directReadSize is the largest payload allocated up front,
	// larger payloads are buffered as they arrive
	directReadSize = 64 * 1024
)

// WriteFrame writes a frame to the writer with the format:
// - 4 bytes: data length (uint32, big endian)
// - N bytes: data payload
func WriteFrame(w io.Writer, data []byte) error {
	if uint64(len(data)) > uint64(^uint32(0)) {
		return fmt.Errorf("%w: payload of %d bytes exceeds the length prefix", common.ErrFrameTooLarge, len(data))
	}

	header := make([]byte, headerSize)
	binary.BigEndian.PutUint32(header, uint32(len(data)))

	// net.Buffers combines header and payload into a single write (writev) where possible
	b := net.Buffers{header, data}
	_, err := b.WriteTo(w)
	return err
}

// ReadFrame reads a single frame from the reader and returns its payload.
// If maxSize is larger than zero frames announcing a larger payload are rejected.
func ReadFrame(r io.Reader, maxSize uint32) ([]byte, error) {
	header := make([]byte, headerSize)

	// Read header
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, truncated(common.ErrTruncatedHeader, err)
	}

	// Parse header
	contentLength := binary.BigEndian.Uint32(header)

	// If no data, return empty slice
	if contentLength == 0 {
		return []byte{}, nil
	}

	if maxSize > 0 && contentLength > maxSize {
		return nil, fmt.Errorf("%w: %d bytes announced, limit is %d", common.ErrFrameTooLarge, contentLength, maxSize)
	}

	// Read data
	if contentLength <= directReadSize {
		data := make([]byte, contentLength)
		if n, err := io.ReadFull(r, data); err != nil {
			return nil, truncated(common.ErrTruncatedPayload, fmt.Errorf("read %d of %d bytes: %w", n, contentLength, err))
		}
		return data, nil
	}

	var buf bytes.Buffer
	buf.Grow(directReadSize)
	if n, err := io.CopyN(&buf, r, int64(contentLength)); err != nil {
		return nil, truncated(common.ErrTruncatedPayload, fmt.Errorf("read %d of %d bytes: %w", n, contentLength, err))
	}

	return buf.Bytes(), nil
}

// truncated maps an early end of stream to the given framing error
func truncated(kind error, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", kind, err)
	}
	return err
}
