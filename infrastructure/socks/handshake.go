// Package socks implements the client-facing half of a SOCKS5 (RFC 1928)
// server: the version/method greeting and the CONNECT request, no-auth only.
package socks

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

const (
	version5 = 0x05

	methodNoAuth = 0x00

	cmdConnect = 0x01

	atypIPv4   = 0x01
	atypDomain = 0x03
	atypIPv6   = 0x04
)

// successReply is the fixed SOCKS5 success reply this proxy sends once a
// CONNECT target has been accepted: VER, REP=succeeded, RSV, ATYP=IPv4,
// BND.ADDR=0.0.0.0, BND.PORT=0. The upstream bind address is never actually
// reported back to the client; this tunnel does not expose one.
var successReply = []byte{0x05, 0x00, 0x00, 0x01, 0, 0, 0, 0, 0, 0}

// Handshake performs the SOCKS5 greeting (replying with the no-auth method
// selection) and reads the CONNECT request that follows, using io.ReadFull
// throughout so a short read never gets mistaken for a failed or absent
// byte. It returns the requested "host:port" target. The CONNECT success
// reply is not written here: callers write it only once the target is
// actually reachable (see WriteSuccessReply).
func Handshake(conn io.ReadWriter) (string, error) {
	if err := readGreeting(conn); err != nil {
		return "", err
	}
	if err := WriteMethodSelection(conn); err != nil {
		return "", fmt.Errorf("socks: writing method selection: %w", err)
	}
	return readConnectRequest(conn)
}

func readGreeting(conn io.Reader) error {
	var head [2]byte
	if _, err := io.ReadFull(conn, head[:]); err != nil {
		return fmt.Errorf("socks: reading greeting header: %w", err)
	}
	if head[0] != version5 {
		return ErrUnsupportedVersion
	}

	methods := make([]byte, head[1])
	if _, err := io.ReadFull(conn, methods); err != nil {
		return fmt.Errorf("socks: reading method list: %w", err)
	}
	for _, m := range methods {
		if m == methodNoAuth {
			return nil
		}
	}
	return ErrNoAuthMethod
}

func readConnectRequest(conn io.Reader) (string, error) {
	var head [4]byte
	if _, err := io.ReadFull(conn, head[:]); err != nil {
		return "", fmt.Errorf("socks: reading request header: %w", err)
	}
	if head[0] != version5 {
		return "", ErrUnsupportedVersion
	}
	if head[1] != cmdConnect {
		return "", ErrUnsupportedCommand
	}
	// head[2] is RSV, always 0x00, deliberately ignored.

	host, err := readAddress(conn, head[3])
	if err != nil {
		return "", err
	}

	var portBuf [2]byte
	if _, err := io.ReadFull(conn, portBuf[:]); err != nil {
		return "", fmt.Errorf("socks: reading port: %w", err)
	}
	port := binary.BigEndian.Uint16(portBuf[:])

	return net.JoinHostPort(host, fmt.Sprintf("%d", port)), nil
}

func readAddress(conn io.Reader, atyp byte) (string, error) {
	switch atyp {
	case atypIPv4:
		var ip [4]byte
		if _, err := io.ReadFull(conn, ip[:]); err != nil {
			return "", fmt.Errorf("socks: reading IPv4 address: %w", err)
		}
		return net.IP(ip[:]).String(), nil

	case atypIPv6:
		var ip [16]byte
		if _, err := io.ReadFull(conn, ip[:]); err != nil {
			return "", fmt.Errorf("socks: reading IPv6 address: %w", err)
		}
		return net.IP(ip[:]).String(), nil

	case atypDomain:
		var lenBuf [1]byte
		if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
			return "", fmt.Errorf("socks: reading domain length: %w", err)
		}
		name := make([]byte, lenBuf[0])
		if _, err := io.ReadFull(conn, name); err != nil {
			return "", fmt.Errorf("socks: reading domain name: %w", err)
		}
		return string(name), nil

	default:
		return "", ErrUnsupportedAddressType
	}
}

// WriteMethodSelection writes the greeting reply selecting no-auth.
func WriteMethodSelection(w io.Writer) error {
	_, err := w.Write([]byte{version5, methodNoAuth})
	return err
}

// WriteSuccessReply writes the fixed CONNECT success reply.
func WriteSuccessReply(w io.Writer) error {
	_, err := w.Write(successReply)
	return err
}
