package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrCodec is returned when a plaintext record cannot be decoded: truncated
// fields, a length prefix that overruns the buffer, or an unrecognized
// discriminant.
var ErrCodec = errors.New("protocol: malformed record")

// PayloadCodec serializes and deserializes the caller-supplied payload type
// carried opaquely inside Data requests and Responses.
type PayloadCodec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(b []byte) (T, error)
}

// EncodeRequest renders req as its binary wire form:
// kind:u8, id:u64le, [len:u32le, payload] (payload only present for Data).
func EncodeRequest[T any](req Request[T], codec PayloadCodec[T]) ([]byte, error) {
	head := make([]byte, 9)
	head[0] = byte(req.Kind)
	binary.LittleEndian.PutUint64(head[1:], req.ID)

	if req.Kind != KindData {
		return head, nil
	}

	payload, err := codec.Encode(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: encoding request payload: %w", err)
	}
	return appendLengthPrefixed(head, payload), nil
}

// DecodeRequest parses a Request produced by EncodeRequest.
func DecodeRequest[T any](data []byte, codec PayloadCodec[T]) (Request[T], error) {
	var zero Request[T]
	if len(data) < 9 {
		return zero, fmt.Errorf("%w: request shorter than header", ErrCodec)
	}

	kind := Kind(data[0])
	id := binary.LittleEndian.Uint64(data[1:9])

	switch kind {
	case KindOpen:
		return Open[T](id), nil
	case KindCancel:
		return Cancel[T](id), nil
	case KindData:
		raw, err := readLengthPrefixed(data[9:])
		if err != nil {
			return zero, err
		}
		payload, err := codec.Decode(raw)
		if err != nil {
			return zero, fmt.Errorf("protocol: decoding request payload: %w", err)
		}
		return Data(id, payload), nil
	default:
		return zero, fmt.Errorf("%w: unknown request kind %d", ErrCodec, kind)
	}
}

// EncodeResponse renders resp as its binary wire form: id:u64le, len:u32le,
// payload.
func EncodeResponse[T any](resp Response[T], codec PayloadCodec[T]) ([]byte, error) {
	head := make([]byte, 8)
	binary.LittleEndian.PutUint64(head, resp.ID)

	payload, err := codec.Encode(resp.Payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: encoding response payload: %w", err)
	}
	return appendLengthPrefixed(head, payload), nil
}

// DecodeResponse parses a Response produced by EncodeResponse.
func DecodeResponse[T any](data []byte, codec PayloadCodec[T]) (Response[T], error) {
	var zero Response[T]
	if len(data) < 8 {
		return zero, fmt.Errorf("%w: response shorter than header", ErrCodec)
	}

	id := binary.LittleEndian.Uint64(data[:8])
	raw, err := readLengthPrefixed(data[8:])
	if err != nil {
		return zero, err
	}
	payload, err := codec.Decode(raw)
	if err != nil {
		return zero, fmt.Errorf("protocol: decoding response payload: %w", err)
	}
	return Response[T]{ID: id, Payload: payload}, nil
}

func appendLengthPrefixed(head, payload []byte) []byte {
	out := make([]byte, len(head)+4+len(payload))
	copy(out, head)
	binary.LittleEndian.PutUint32(out[len(head):], uint32(len(payload)))
	copy(out[len(head)+4:], payload)
	return out
}

func readLengthPrefixed(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: missing length prefix", ErrCodec)
	}
	length := binary.LittleEndian.Uint32(data[:4])
	rest := data[4:]
	if uint64(length) > uint64(len(rest)) {
		return nil, fmt.Errorf("%w: length prefix %d exceeds remaining %d bytes", ErrCodec, length, len(rest))
	}
	return rest[:length], nil
}
