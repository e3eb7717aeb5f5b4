// Package transport adds structured record serialization on top of the AEAD
// codec, yielding a bidirectional stream of typed records (Request or
// Response) over a single underlying connection.
package transport

import (
	"io"

	"socksmux/domain/aead"
)

// Transport carries Send-typed records out and Recv-typed records in over a
// single AEAD-sealed, length-framed connection. Send and Recv are
// instantiated as protocol.Request[T]/protocol.Response[T] (or the reverse,
// depending on role), with the plaintext marshaling supplied by the
// sendEncode/recvDecode functions.
type Transport[Send any, Recv any] struct {
	codec      *aead.Codec
	sendEncode func(Send) ([]byte, error)
	recvDecode func([]byte) (Recv, error)
}

// New builds a Transport over rw using the shared key. maxFrame of 0 selects
// frame.DefaultMaxFrameSize.
func New[Send any, Recv any](
	rw io.ReadWriter,
	key []byte,
	maxFrame uint32,
	sendEncode func(Send) ([]byte, error),
	recvDecode func([]byte) (Recv, error),
) (*Transport[Send, Recv], error) {
	codec, err := aead.New(rw, key, maxFrame)
	if err != nil {
		return nil, err
	}
	return &Transport[Send, Recv]{
		codec:      codec,
		sendEncode: sendEncode,
		recvDecode: recvDecode,
	}, nil
}

// Send encodes v and writes it as one sealed, framed record. Send is not
// safe to call concurrently with itself; the dispatcher is the only caller.
func (t *Transport[Send, Recv]) Send(v Send) error {
	plaintext, err := t.sendEncode(v)
	if err != nil {
		return err
	}
	return t.codec.WriteRecord(plaintext)
}

// Recv blocks until the next record is available, decrypts and decodes it.
// Recv is not safe to call concurrently with itself.
func (t *Transport[Send, Recv]) Recv() (Recv, error) {
	var zero Recv
	plaintext, err := t.codec.ReadRecord()
	if err != nil {
		return zero, err
	}
	return t.recvDecode(plaintext)
}
