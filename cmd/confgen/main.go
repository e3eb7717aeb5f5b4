// Command socksmux-confgen interactively builds and writes a client or
// server configuration file.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"socksmux/infrastructure/config"
	"socksmux/presentation/tui"
)

func main() {
	role := runSelector("Which role is this configuration for?", []string{"client", "server"})

	sharedKeyHex := runPrompt("Shared key (32 bytes, hex-encoded)", "leave blank to generate one", randomKeyHex())

	var cfg config.Configuration
	cfg.SharedKeyHex = sharedKeyHex

	var resolver config.Resolver
	switch role {
	case "client":
		cfg.SOCKSListenAddress = runPrompt("SOCKS5 listen address", "127.0.0.1:1080", "127.0.0.1:1080")
		cfg.TransportDialAddress = runPrompt("Server address to dial", "127.0.0.1:11999", "127.0.0.1:11999")
		resolver = config.NewClientResolver()
	case "server":
		cfg.TransportListenAddress = runPrompt("Transport listen address", ":11999", ":11999")
		resolver = config.NewServerResolver()
	default:
		log.Fatalf("socksmux-confgen: unknown role %q", role)
	}

	maxConns := runPrompt("Max concurrent connections (0 for unlimited)", "0", "0")
	if n, err := strconv.Atoi(maxConns); err == nil {
		cfg.MaxConnections = n
	}

	cfg.EnsureDefaults()

	manager, err := config.NewManager(resolver)
	if err != nil {
		log.Fatalf("socksmux-confgen: %v", err)
	}
	if err := manager.Write(cfg); err != nil {
		log.Fatalf("socksmux-confgen: writing configuration: %v", err)
	}

	marshalled, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		log.Fatalf("socksmux-confgen: marshaling configuration: %v", err)
	}
	fmt.Println(string(marshalled))
}

func runSelector(placeholder string, options []string) string {
	sel := tui.NewSelector(placeholder, options)
	final, err := tea.NewProgram(sel).Run()
	if err != nil {
		log.Fatalf("socksmux-confgen: %v", err)
	}
	return final.(tui.Selector).Choice()
}

func runPrompt(label, placeholder, initial string) string {
	p := tui.NewPrompt(label, placeholder, initial)
	final, err := tea.NewProgram(p).Run()
	if err != nil {
		log.Fatalf("socksmux-confgen: %v", err)
	}
	value := final.(*tui.Prompt).Value()
	if value == "" {
		return initial
	}
	return value
}

func randomKeyHex() string {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return ""
	}
	return hex.EncodeToString(key)
}
