// Package presentation wires the domain and infrastructure layers into the
// two runnable roles: the SOCKS5-facing client and the transport-facing
// server.
package presentation

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"socksmux/application"
	"socksmux/infrastructure/config"
	"socksmux/infrastructure/mux"
	"socksmux/infrastructure/socks"
)

const copyBufferSize = 32 * 1024

// clientTransport is the concrete mux instantiation the client role uses:
// client-to-server payloads are tagged Connect/Data, server-to-client
// payloads are the upstream's raw bytes.
type clientTransport = mux.Client[socks.Payload, []byte]

// clientChannel is the per-SOCKS-connection handle.
type clientChannel = mux.ClientChannel[socks.Payload, []byte]

// transportRunner owns the live transport connection and swaps it out on
// reconnect, mirroring the source design's "retry connect once, redial on
// failure" policy (see bin/client in the reference implementation).
type transportRunner struct {
	addr     string
	key      []byte
	maxFrame uint32
	logger   application.Logger

	// reconnectInterval is waited out before a redial triggered by a failed
	// Connect; it does not delay the initial connection StartClient makes.
	reconnectInterval time.Duration

	mu     sync.Mutex
	client *clientTransport
}

func (r *transportRunner) current() *clientTransport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client
}

// reconnect dials addr fresh and replaces the active client. The old
// client, if any, is left to drain on its own; its Done-triggered cleanup
// goroutine closes its connection once its dispatcher notices the peer is
// gone.
func (r *transportRunner) reconnect() error {
	conn, err := net.Dial("tcp", r.addr)
	if err != nil {
		return fmt.Errorf("presentation: dialing transport %s: %w", r.addr, err)
	}

	client, err := mux.NewClient[socks.Payload, []byte](conn, r.key, r.maxFrame, socks.Codec{}, socks.DataCodec{}, r.logger)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("presentation: building client transport: %w", err)
	}

	// The dispatcher cannot unblock its own blocked Recv by cancelling a
	// context; only closing the real connection does that. Done fires once
	// the dispatcher has exited for any other reason, so this also mops up
	// a half-dead connection whose write side failed but whose read side is
	// still parked in a blocking read.
	go func() {
		<-client.Done()
		_ = conn.Close()
	}()

	r.mu.Lock()
	r.client = client
	r.mu.Unlock()
	return nil
}

// StartClient runs the SOCKS5 entry point until ctx is cancelled or the
// SOCKS listener fails. It blocks.
func StartClient(ctx context.Context, cfg *config.Configuration, logger application.Logger) error {
	key, err := cfg.SharedKey()
	if err != nil {
		return err
	}

	runner := &transportRunner{
		addr:              cfg.TransportDialAddress,
		key:               key,
		maxFrame:          cfg.MaxFrameSize,
		logger:            logger,
		reconnectInterval: time.Duration(cfg.ReconnectIntervalMs) * time.Millisecond,
	}
	if err := runner.reconnect(); err != nil {
		return fmt.Errorf("presentation: initial transport connection: %w", err)
	}

	ln, err := net.Listen("tcp", cfg.SOCKSListenAddress)
	if err != nil {
		return fmt.Errorf("presentation: listening on %s: %w", cfg.SOCKSListenAddress, err)
	}
	defer func() { _ = ln.Close() }()

	if cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxConnections)
	}

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return fmt.Errorf("presentation: accepting SOCKS connection: %w", err)
		}
		go serveSOCKSConn(conn, runner)
	}
}

func serveSOCKSConn(conn net.Conn, runner *transportRunner) {
	defer func() { _ = conn.Close() }()

	ch, err := openChannel(runner)
	if err != nil {
		if runner.logger != nil {
			runner.logger.Printf("presentation: opening channel: %v", err)
		}
		return
	}
	defer func() { _ = ch.Close() }()

	target, err := socks.Handshake(conn)
	if err != nil {
		if runner.logger != nil {
			runner.logger.Printf("presentation: SOCKS handshake: %v", err)
		}
		return
	}

	if err := ch.Send(socks.ConnectPayload(target)); err != nil {
		return
	}
	if err := socks.WriteSuccessReply(conn); err != nil {
		return
	}

	pumpSOCKSConn(conn, ch)
}

// openChannel tries Connect on the current transport, reconnecting once if
// the dispatcher has already gone away. The reconnect waits out
// reconnectInterval first, so a dead server doesn't get redialed on every
// single incoming SOCKS connection.
func openChannel(runner *transportRunner) (*clientChannel, error) {
	ch, err := runner.current().Connect()
	if err == nil {
		return ch, nil
	}
	if runner.reconnectInterval > 0 {
		time.Sleep(runner.reconnectInterval)
	}
	if reErr := runner.reconnect(); reErr != nil {
		return nil, fmt.Errorf("reconnecting after %v: %w", err, reErr)
	}
	return runner.current().Connect()
}

// pumpSOCKSConn copies bytes in both directions between the SOCKS
// connection and its multiplexed channel until either side ends.
func pumpSOCKSConn(conn net.Conn, ch *clientChannel) {
	g, ctx := errgroup.WithContext(context.Background())
	stop, cancel := context.WithCancel(ctx)

	// Neither direction's blocking call (conn.Read, ch.Recv's mailbox wait)
	// can be interrupted by the other finishing normally; closing the
	// connection and cancelling stop is what unblocks both, so either side
	// ending — cleanly or not — tears the other down.
	go func() {
		<-stop.Done()
		_ = conn.Close()
	}()
	defer cancel()

	g.Go(func() error {
		defer cancel()
		buf := make([]byte, copyBufferSize)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				if sendErr := ch.Send(socks.DataPayload(append([]byte(nil), buf[:n]...))); sendErr != nil {
					return sendErr
				}
			}
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}
		}
	})

	g.Go(func() error {
		defer cancel()
		for {
			data, ok := ch.Recv(stop)
			if !ok {
				return nil
			}
			if _, err := conn.Write(data); err != nil {
				return err
			}
		}
	})

	_ = g.Wait()
}
