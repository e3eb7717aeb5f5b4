// Package frame implements length-delimited record framing on a byte stream:
// each frame is a 4-byte big-endian length followed by that many bytes of
// payload.
package frame

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxFrameSize is used when a Reader is built without an explicit
// limit. Frames larger than this fail decoding with ErrFrameTooLarge.
const DefaultMaxFrameSize = 8 << 20 // 8 MiB

// ErrFrameTooLarge is returned when a frame's declared length exceeds the
// reader's configured maximum.
var ErrFrameTooLarge = errors.New("frame: declared length exceeds maximum frame size")

// Reader decodes length-prefixed frames from an underlying byte stream.
type Reader struct {
	r   *bufio.Reader
	max uint32
}

// NewReader wraps r with length-delimited framing. A maxSize of 0 selects
// DefaultMaxFrameSize.
func NewReader(r io.Reader, maxSize uint32) *Reader {
	if maxSize == 0 {
		maxSize = DefaultMaxFrameSize
	}
	return &Reader{r: bufio.NewReader(r), max: maxSize}
}

// ReadFrame blocks until a full frame is available and returns its payload.
// It never returns a partial frame: on any error the returned slice is nil.
func (r *Reader) ReadFrame() ([]byte, error) {
	var lengthBuf [4]byte
	if _, err := io.ReadFull(r.r, lengthBuf[:]); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(lengthBuf[:])
	if length > r.max {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, r.max)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Writer encodes frames onto an underlying byte stream.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w with length-delimited framing.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteFrame prepends payload's length as a 4-byte big-endian header and
// writes both to the underlying stream in one call.
func (w *Writer) WriteFrame(payload []byte) error {
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(payload)))
	copy(buf[4:], payload)
	_, err := w.w.Write(buf)
	return err
}
