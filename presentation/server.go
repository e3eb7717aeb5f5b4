package presentation

import (
	"context"
	"fmt"
	"io"
	"net"

	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"socksmux/application"
	"socksmux/infrastructure/config"
	"socksmux/infrastructure/mux"
	"socksmux/infrastructure/socks"
)

// serverTransport is the server role's mux instantiation: the mirror image
// of clientTransport.
type serverTransport = mux.Server[socks.Payload, []byte]

type serverChannel = mux.ServerChannel[socks.Payload, []byte]

// StartServer accepts transport connections and, on each, serves however
// many logical channels the peer opens. It blocks until ctx is cancelled or
// the listener fails.
func StartServer(ctx context.Context, cfg *config.Configuration, logger application.Logger) error {
	key, err := cfg.SharedKey()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.TransportListenAddress)
	if err != nil {
		return fmt.Errorf("presentation: listening on %s: %w", cfg.TransportListenAddress, err)
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
			return fmt.Errorf("presentation: accepting transport connection: %w", err)
		}
		go serveTransportConn(conn, key, cfg.MaxFrameSize, cfg.AcceptQueueDepth, logger)
	}
}

func serveTransportConn(conn net.Conn, key []byte, maxFrame uint32, acceptQueueDepth int, logger application.Logger) {
	defer func() { _ = conn.Close() }()

	server, err := mux.NewServer[socks.Payload, []byte](conn, key, maxFrame, acceptQueueDepth, socks.Codec{}, socks.DataCodec{}, logger)
	if err != nil {
		if logger != nil {
			logger.Printf("presentation: building server transport: %v", err)
		}
		return
	}

	// A blocked Accept/Recv on this connection can only be unblocked by
	// closing it; Done fires once the dispatcher has exited, whatever the
	// cause, and conn is already being waited on by the caller goroutine
	// only in the sense that this goroutine itself owns the close below.
	go func() {
		<-server.Done()
		_ = conn.Close()
	}()

	for {
		ch, err := server.Accept()
		if err != nil {
			return
		}
		go serveChannel(ch, logger)
	}
}

func serveChannel(ch *serverChannel, logger application.Logger) {
	defer func() { _ = ch.Close() }()

	first, ok := ch.Recv(context.Background())
	if !ok {
		return
	}
	if first.Kind != socks.PayloadConnect {
		if logger != nil {
			logger.Printf("presentation: channel %d's first frame was not Connect, dropping", ch.ID())
		}
		return
	}

	upstream, err := net.Dial("tcp", first.Target)
	if err != nil {
		if logger != nil {
			logger.Printf("presentation: dialing upstream %s: %v", first.Target, err)
		}
		return
	}
	defer func() { _ = upstream.Close() }()

	pumpUpstreamConn(upstream, ch)
}

// pumpUpstreamConn copies bytes in both directions between the dialed
// upstream connection and its multiplexed channel until either side ends.
// See pumpSOCKSConn for why both the context cancellation and the explicit
// connection close are needed.
func pumpUpstreamConn(upstream net.Conn, ch *serverChannel) {
	g, ctx := errgroup.WithContext(context.Background())
	stop, cancel := context.WithCancel(ctx)

	go func() {
		<-stop.Done()
		_ = upstream.Close()
	}()
	defer cancel()

	g.Go(func() error {
		defer cancel()
		buf := make([]byte, copyBufferSize)
		for {
			n, err := upstream.Read(buf)
			if n > 0 {
				if sendErr := ch.Send(append([]byte(nil), buf[:n]...)); sendErr != nil {
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
			payload, ok := ch.Recv(stop)
			if !ok {
				return nil
			}
			if payload.Kind != socks.PayloadData {
				continue
			}
			if _, err := upstream.Write(payload.Data); err != nil {
				return err
			}
		}
	})

	_ = g.Wait()
}
