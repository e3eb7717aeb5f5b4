package aead

import (
	"bytes"
	"errors"
	"testing"

	"socksmux/domain/frame"
)

func testKey() []byte {
	k := make([]byte, 32)
	for i := range k {
		k[i] = byte(i)
	}
	return k
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf, testKey(), 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	messages := [][]byte{[]byte("hello"), []byte(""), bytes.Repeat([]byte{7}, 4096)}
	for _, m := range messages {
		if err := w.WriteRecord(m); err != nil {
			t.Fatalf("WriteRecord: %v", err)
		}
	}

	r, err := New(&buf, testKey(), 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i, want := range messages {
		got, err := r.ReadRecord()
		if err != nil {
			t.Fatalf("ReadRecord[%d]: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("ReadRecord[%d] = %q, want %q", i, got, want)
		}
	}
}

func TestNoncesAreUnique(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf, testKey(), 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	const n = 2000
	for i := 0; i < n; i++ {
		if err := w.WriteRecord([]byte("x")); err != nil {
			t.Fatalf("WriteRecord: %v", err)
		}
	}

	r, err := New(&buf, testKey(), 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		raw, err := r.reader.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		nonce := string(raw[len(raw)-nonceSize:])
		if seen[nonce] {
			t.Fatalf("duplicate nonce observed at record %d", i)
		}
		seen[nonce] = true
	}
}

func TestTamperedCiphertextFailsToOpen(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf, testKey(), 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.WriteRecord([]byte("hello")); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}

	raw := buf.Bytes()
	// Flip a bit inside the 4-byte length-prefixed frame's payload, at an
	// offset guaranteed to land in the ciphertext rather than the nonce.
	raw[4] ^= 0x01

	r, err := New(bytes.NewReader(raw), testKey(), 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = r.ReadRecord()
	if !errors.Is(err, ErrCryptoOpen) {
		t.Fatalf("expected ErrCryptoOpen, got %v", err)
	}
}

func TestShortFrame(t *testing.T) {
	var buf bytes.Buffer
	fw := frame.NewWriter(&buf)
	if err := fw.WriteFrame([]byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	r, err := New(&buf, testKey(), 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = r.ReadRecord()
	if !errors.Is(err, ErrShortFrame) {
		t.Fatalf("expected ErrShortFrame, got %v", err)
	}
}
