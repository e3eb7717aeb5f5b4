package protocol

import (
	"bytes"
	"errors"
	"testing"
)

// bytesCodec is the identity PayloadCodec[[]byte] used by these tests.
type bytesCodec struct{}

func (bytesCodec) Encode(v []byte) ([]byte, error) { return v, nil }
func (bytesCodec) Decode(b []byte) ([]byte, error) { return append([]byte(nil), b...), nil }

func TestRequestRoundTrip(t *testing.T) {
	cases := []Request[[]byte]{
		Open[[]byte](1),
		Data(1, []byte("hello")),
		Data(2, []byte{}),
		Cancel[[]byte](1),
	}

	for _, want := range cases {
		encoded, err := EncodeRequest(want, bytesCodec{})
		if err != nil {
			t.Fatalf("EncodeRequest(%v): %v", want, err)
		}
		got, err := DecodeRequest(encoded, bytesCodec{})
		if err != nil {
			t.Fatalf("DecodeRequest: %v", err)
		}
		if got.Kind != want.Kind || got.ID != want.ID || !bytes.Equal(got.Payload, want.Payload) {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
		}
	}
}

func TestResponseRoundTrip(t *testing.T) {
	want := Response[[]byte]{ID: 42, Payload: []byte("world")}
	encoded, err := EncodeResponse(want, bytesCodec{})
	if err != nil {
		t.Fatalf("EncodeResponse: %v", err)
	}
	got, err := DecodeResponse(encoded, bytesCodec{})
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if got.ID != want.ID || !bytes.Equal(got.Payload, want.Payload) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestDecodeRequestRejectsUnknownKind(t *testing.T) {
	encoded, err := EncodeRequest(Cancel[[]byte](1), bytesCodec{})
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	encoded[0] = 0xFF

	_, err = DecodeRequest(encoded, bytesCodec{})
	if !errors.Is(err, ErrCodec) {
		t.Fatalf("expected ErrCodec, got %v", err)
	}
}

func TestDecodeRequestRejectsTruncated(t *testing.T) {
	_, err := DecodeRequest([]byte{0, 1, 2}, bytesCodec{})
	if !errors.Is(err, ErrCodec) {
		t.Fatalf("expected ErrCodec, got %v", err)
	}
}

func TestDecodeResponseRejectsOverrunLength(t *testing.T) {
	encoded, err := EncodeResponse(Response[[]byte]{ID: 1, Payload: []byte("hi")}, bytesCodec{})
	if err != nil {
		t.Fatalf("EncodeResponse: %v", err)
	}
	// Corrupt the length prefix to claim more bytes than remain.
	encoded[8] = 0xFF
	encoded[9] = 0xFF

	_, err = DecodeResponse(encoded, bytesCodec{})
	if !errors.Is(err, ErrCodec) {
		t.Fatalf("expected ErrCodec, got %v", err)
	}
}
