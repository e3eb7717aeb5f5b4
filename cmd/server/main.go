// Command socksmux-server is the tunnel's egress side: it accepts
// encrypted, multiplexed transport connections and dials each logical
// channel's requested target on the client's behalf.
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

	manager, err := config.NewManager(config.NewServerResolver())
	if err != nil {
		fmt.Fprintf(os.Stderr, "socksmux-server: %v\n", err)
		os.Exit(1)
	}

	cfg, err := manager.Configuration()
	if err != nil {
		fmt.Fprintf(os.Stderr, "socksmux-server: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Printf("socksmux-server: shutting down")
		cancel()
	}()

	logger.Printf("socksmux-server: listening on %s", cfg.TransportListenAddress)
	if err := presentation.StartServer(ctx, cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "socksmux-server: %v\n", err)
		os.Exit(1)
	}
}
