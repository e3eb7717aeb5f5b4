package presentation

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"socksmux/infrastructure/mux"
	"socksmux/infrastructure/socks"
)

func testSharedKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func recvTimeout(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestServeSOCKSConnEndToEnd covers §8 scenario S4: a SOCKS5 CONNECT arriving
// on the client's listener is handshaken, opens a multiplexed channel
// carrying a Connect payload with the requested target, and relays bytes in
// both directions once the success reply is written.
func TestServeSOCKSConnEndToEnd(t *testing.T) {
	key := testSharedKey()

	transportClientConn, transportServerConn := net.Pipe()
	t.Cleanup(func() { _ = transportClientConn.Close() })
	t.Cleanup(func() { _ = transportServerConn.Close() })

	client, err := mux.NewClient[socks.Payload, []byte](transportClientConn, key, 0, socks.Codec{}, socks.DataCodec{}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	server, err := mux.NewServer[socks.Payload, []byte](transportServerConn, key, 0, 0, socks.Codec{}, socks.DataCodec{}, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	runner := &transportRunner{addr: "unused", key: key, maxFrame: 0, client: client}

	socksConn, peer := net.Pipe()
	t.Cleanup(func() { _ = peer.Close() })

	go serveSOCKSConn(socksConn, runner)

	accepted := make(chan *mux.ServerChannel[socks.Payload, []byte], 1)
	go func() {
		sch, err := server.Accept()
		if err != nil {
			t.Errorf("Accept: %v", err)
			return
		}
		accepted <- sch
	}()

	// Greeting: version 5, one method, no-auth.
	if _, err := peer.Write([]byte{0x05, 0x01, 0x00}); err != nil {
		t.Fatalf("writing greeting: %v", err)
	}

	methodReply := make([]byte, 2)
	if _, err := io.ReadFull(peer, methodReply); err != nil {
		t.Fatalf("reading method selection: %v", err)
	}
	if methodReply[0] != 0x05 || methodReply[1] != 0x00 {
		t.Fatalf("unexpected method selection %v", methodReply)
	}

	// CONNECT request for example.com:80 via a domain address.
	const target = "example.com"
	req := []byte{0x05, 0x01, 0x00, 0x03, byte(len(target))}
	req = append(req, target...)
	req = append(req, 0x00, 0x50)
	if _, err := peer.Write(req); err != nil {
		t.Fatalf("writing connect request: %v", err)
	}

	var sch *mux.ServerChannel[socks.Payload, []byte]
	select {
	case sch = <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Accept")
	}

	connectPayload, ok := sch.Recv(recvTimeout(t))
	if !ok {
		t.Fatal("server Recv reported closed before seeing the Connect payload")
	}
	if connectPayload.Kind != socks.PayloadConnect || connectPayload.Target != net.JoinHostPort(target, "80") {
		t.Fatalf("unexpected connect payload %+v", connectPayload)
	}

	reply := make([]byte, 10)
	if _, err := io.ReadFull(peer, reply); err != nil {
		t.Fatalf("reading success reply: %v", err)
	}
	want := []byte{0x05, 0x00, 0x00, 0x01, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(reply, want) {
		t.Fatalf("success reply = %v, want %v", reply, want)
	}

	if _, err := peer.Write([]byte("ping")); err != nil {
		t.Fatalf("writing upstream payload: %v", err)
	}
	got, ok := sch.Recv(recvTimeout(t))
	if !ok || got.Kind != socks.PayloadData || string(got.Data) != "ping" {
		t.Fatalf("server got %+v, ok=%v", got, ok)
	}

	if err := sch.Send([]byte("pong")); err != nil {
		t.Fatalf("server Send: %v", err)
	}
	buf := make([]byte, 4)
	if _, err := io.ReadFull(peer, buf); err != nil {
		t.Fatalf("reading relayed response: %v", err)
	}
	if string(buf) != "pong" {
		t.Fatalf("peer got %q, want %q", buf, "pong")
	}
}
