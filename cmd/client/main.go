// Command socksmux-client runs the SOCKS5 entry point: it listens locally
// for SOCKS5 CONNECT requests and tunnels each one to a socksmux-server over
// an encrypted, multiplexed connection.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"socksmux/infrastructure/config"
	"socksmux/infrastructure/logging"
	"socksmux/presentation"
)

func main() {
	logger := logging.NewStdLogger()

	manager, err := config.NewManager(config.NewClientResolver())
	if err != nil {
		fmt.Fprintf(os.Stderr, "socksmux-client: %v\n", err)
		os.Exit(1)
	}

	cfg, err := manager.Configuration()
	if err != nil {
		fmt.Fprintf(os.Stderr, "socksmux-client: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Printf("socksmux-client: shutting down")
		cancel()
	}()

	logger.Printf("socksmux-client: listening on %s, tunneling to %s", cfg.SOCKSListenAddress, cfg.TransportDialAddress)
	if err := presentation.StartClient(ctx, cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "socksmux-client: %v\n", err)
		os.Exit(1)
	}
}
