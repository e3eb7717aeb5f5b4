package socks

import "fmt"

// PayloadKind discriminates the two shapes a client-to-server payload can
// take: the CONNECT target sent once right after Open, and the raw bytes
// that follow it. protocol.Request itself only tags Open/Data/Cancel at the
// record level, so the channel's first logical byte of content has to carry
// the target inline; this is that encoding.
type PayloadKind byte

const (
	PayloadConnect PayloadKind = iota
	PayloadData
)

// Payload is the Req type instantiated for the client-to-server mux
// (mux.Client[socks.Payload, []byte] / mux.Server[socks.Payload, []byte]).
type Payload struct {
	Kind   PayloadKind
	Target string // meaningful when Kind == PayloadConnect
	Data   []byte // meaningful when Kind == PayloadData
}

// ConnectPayload builds a Payload carrying the dial target.
func ConnectPayload(target string) Payload {
	return Payload{Kind: PayloadConnect, Target: target}
}

// DataPayload builds a Payload carrying raw bytes.
func DataPayload(b []byte) Payload {
	return Payload{Kind: PayloadData, Data: b}
}

// Codec serializes Payload for the typed transport: one kind byte, then
// either the target string or the raw bytes verbatim (the outer transport
// record already length-prefixes the whole encoded payload).
type Codec struct{}

func (Codec) Encode(p Payload) ([]byte, error) {
	switch p.Kind {
	case PayloadConnect:
		out := make([]byte, 1+len(p.Target))
		out[0] = byte(PayloadConnect)
		copy(out[1:], p.Target)
		return out, nil
	case PayloadData:
		out := make([]byte, 1+len(p.Data))
		out[0] = byte(PayloadData)
		copy(out[1:], p.Data)
		return out, nil
	default:
		return nil, fmt.Errorf("socks: encoding payload: unknown kind %d", p.Kind)
	}
}

func (Codec) Decode(b []byte) (Payload, error) {
	if len(b) < 1 {
		return Payload{}, fmt.Errorf("socks: decoding payload: empty record")
	}
	switch PayloadKind(b[0]) {
	case PayloadConnect:
		return ConnectPayload(string(b[1:])), nil
	case PayloadData:
		return DataPayload(append([]byte(nil), b[1:]...)), nil
	default:
		return Payload{}, fmt.Errorf("socks: decoding payload: unknown kind %d", b[0])
	}
}

// DataCodec is the Resp side: the server only ever streams raw upstream
// bytes back, so no tagging is needed.
type DataCodec struct{}

func (DataCodec) Encode(v []byte) ([]byte, error) { return v, nil }

func (DataCodec) Decode(b []byte) ([]byte, error) { return append([]byte(nil), b...), nil }
