package socks

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func greeting(methods ...byte) []byte {
	return append([]byte{version5, byte(len(methods))}, methods...)
}

func connectRequest(atyp byte, addr []byte, port uint16) []byte {
	buf := []byte{version5, cmdConnect, 0x00, atyp}
	buf = append(buf, addr...)
	var portBuf [2]byte
	binary.BigEndian.PutUint16(portBuf[:], port)
	return append(buf, portBuf[:]...)
}

func TestHandshakeIPv4(t *testing.T) {
	var in bytes.Buffer
	in.Write(greeting(methodNoAuth))
	in.Write(connectRequest(atypIPv4, []byte{93, 184, 216, 34}, 443))

	conn := &fakeConn{in: &in, out: &bytes.Buffer{}}
	target, err := Handshake(conn)
	if err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	if target != "93.184.216.34:443" {
		t.Fatalf("target = %q", target)
	}
	if !bytes.Equal(conn.out.Bytes(), []byte{version5, methodNoAuth}) {
		t.Fatalf("method selection reply = % x", conn.out.Bytes())
	}
}

func TestHandshakeDomain(t *testing.T) {
	var in bytes.Buffer
	in.Write(greeting(methodNoAuth))
	in.Write(connectRequest(atypDomain, append([]byte{byte(len("example.com"))}, "example.com"...), 80))

	conn := &fakeConn{in: &in, out: &bytes.Buffer{}}
	target, err := Handshake(conn)
	if err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	if target != "example.com:80" {
		t.Fatalf("target = %q", target)
	}
}

func TestHandshakeIPv6(t *testing.T) {
	ip := make([]byte, 16)
	ip[15] = 1 // ::1
	var in bytes.Buffer
	in.Write(greeting(methodNoAuth))
	in.Write(connectRequest(atypIPv6, ip, 22))

	conn := &fakeConn{in: &in, out: &bytes.Buffer{}}
	target, err := Handshake(conn)
	if err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	if target != "[::1]:22" {
		t.Fatalf("target = %q", target)
	}
}

func TestHandshakeRejectsWrongVersion(t *testing.T) {
	in := bytes.NewBuffer([]byte{0x04, 0x01, methodNoAuth})
	conn := &fakeConn{in: in, out: &bytes.Buffer{}}
	if _, err := Handshake(conn); err != ErrUnsupportedVersion {
		t.Fatalf("err = %v, want ErrUnsupportedVersion", err)
	}
}

func TestHandshakeRejectsWithoutNoAuth(t *testing.T) {
	in := bytes.NewBuffer(greeting(0x02)) // username/password only
	conn := &fakeConn{in: in, out: &bytes.Buffer{}}
	if _, err := Handshake(conn); err != ErrNoAuthMethod {
		t.Fatalf("err = %v, want ErrNoAuthMethod", err)
	}
}

func TestHandshakeRejectsUnsupportedCommand(t *testing.T) {
	var in bytes.Buffer
	in.Write(greeting(methodNoAuth))
	in.Write([]byte{version5, 0x02, 0x00, atypIPv4, 0, 0, 0, 0, 0, 0}) // BIND
	conn := &fakeConn{in: &in, out: &bytes.Buffer{}}
	if _, err := Handshake(conn); err != ErrUnsupportedCommand {
		t.Fatalf("err = %v, want ErrUnsupportedCommand", err)
	}
}

func TestHandshakeRejectsUnsupportedAddressType(t *testing.T) {
	var in bytes.Buffer
	in.Write(greeting(methodNoAuth))
	in.Write([]byte{version5, cmdConnect, 0x00, 0x7f, 0, 0}) // bogus ATYP
	conn := &fakeConn{in: &in, out: &bytes.Buffer{}}
	if _, err := Handshake(conn); err != ErrUnsupportedAddressType {
		t.Fatalf("err = %v, want ErrUnsupportedAddressType", err)
	}
}

func TestHandshakeShortReadIsAnError(t *testing.T) {
	// Truncated mid-greeting: declares two methods, supplies one.
	in := bytes.NewBuffer([]byte{version5, 0x02, methodNoAuth})
	conn := &fakeConn{in: in, out: &bytes.Buffer{}}
	if _, err := Handshake(conn); err == nil {
		t.Fatal("expected an error for a short read, got nil")
	}
}

func TestWriteSuccessReply(t *testing.T) {
	var out bytes.Buffer
	if err := WriteSuccessReply(&out); err != nil {
		t.Fatalf("WriteSuccessReply: %v", err)
	}
	want := []byte{0x05, 0x00, 0x00, 0x01, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("reply = % x, want % x", out.Bytes(), want)
	}
}

// fakeConn pairs an input buffer to read from with a separate output buffer
// to write to, since a single bytes.Buffer can't be read and written
// independently the way Handshake's io.ReadWriter parameter requires.
type fakeConn struct {
	in  *bytes.Buffer
	out *bytes.Buffer
}

func (c *fakeConn) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c *fakeConn) Write(p []byte) (int, error) { return c.out.Write(p) }
