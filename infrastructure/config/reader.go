package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

type reader struct {
	path string
}

func newReader(path string) *reader {
	return &reader{path: path}
}

func (r *reader) read() (*Configuration, error) {
	if _, statErr := os.Stat(r.path); statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			return nil, fmt.Errorf("config: file does not exist: %s", r.path)
		}
		return nil, fmt.Errorf("config: file not accessible: %s: %w", r.path, statErr)
	}

	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("config: file (%s) is unreadable: %w", r.path, err)
	}

	var cfg Configuration
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: file (%s) is invalid: %w", r.path, err)
	}

	r.applyEnvOverrides(&cfg)
	return cfg.EnsureDefaults(), nil
}

// applyEnvOverrides lets deployment tooling override the two fields most
// often pinned per-environment without rewriting the file.
func (r *reader) applyEnvOverrides(cfg *Configuration) {
	if key := os.Getenv("SOCKSMUX_SHARED_KEY"); key != "" {
		cfg.SharedKeyHex = key
	}
	if addr := os.Getenv("SOCKSMUX_SOCKS_LISTEN"); addr != "" {
		cfg.SOCKSListenAddress = addr
	}
}
