// Package aead wraps the frame codec with per-record ChaCha20-Poly1305
// authenticated encryption. Each record on the wire is
// ciphertext||tag||nonce12, where nonce12 is appended after the sealed
// payload rather than transmitted as a separate field.
package aead

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"socksmux/domain/frame"
)

const nonceSize = chacha20poly1305.NonceSize // 12

// ErrShortFrame is returned when a decoded frame is too small to contain a
// nonce and an authentication tag.
var ErrShortFrame = errors.New("aead: frame shorter than nonce+tag")

// ErrCryptoOpen is returned when authenticated decryption fails: either the
// tag does not verify or the record has been tampered with.
var ErrCryptoOpen = errors.New("aead: authenticated decryption failed")

// Codec seals and opens records on top of a frame.Reader/frame.Writer pair,
// using a single shared key for both directions. The key is supplied by the
// caller; the binaries read it from their configuration.
type Codec struct {
	aead   cipher.AEAD
	reader *frame.Reader
	writer *frame.Writer
}

// New builds a Codec over rw. key must be exactly chacha20poly1305.KeySize
// (32) bytes. A maxFrame of 0 selects frame.DefaultMaxFrameSize.
func New(rw io.ReadWriter, key []byte, maxFrame uint32) (*Codec, error) {
	a, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("aead: building cipher: %w", err)
	}
	return &Codec{
		aead:   a,
		reader: frame.NewReader(rw, maxFrame),
		writer: frame.NewWriter(rw),
	}, nil
}

// ReadRecord reads the next frame and returns its decrypted, authenticated
// plaintext. A decode failure here is connection-fatal per SPEC_FULL.md §7.
func (c *Codec) ReadRecord() ([]byte, error) {
	raw, err := c.reader.ReadFrame()
	if err != nil {
		return nil, err
	}
	if len(raw) < nonceSize+c.aead.Overhead() {
		return nil, ErrShortFrame
	}

	split := len(raw) - nonceSize
	ciphertext, nonce := raw[:split], raw[split:]

	plaintext, err := c.aead.Open(ciphertext[:0], nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoOpen, err)
	}
	return plaintext, nil
}

// WriteRecord seals plaintext with a fresh random nonce and writes the
// resulting frame.
func (c *Codec) WriteRecord(plaintext []byte) error {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("aead: generating nonce: %w", err)
	}

	sealed := c.aead.Seal(nil, nonce, plaintext, nil)
	sealed = append(sealed, nonce...)
	return c.writer.WriteFrame(sealed)
}
