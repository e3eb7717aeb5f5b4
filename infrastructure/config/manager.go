package config

import (
	"fmt"
	"os"
)

// Manager loads a Configuration, writing a fresh default to disk the first
// time it's asked for one that doesn't exist yet, and persists an updated
// Configuration on request (used by the confgen wizard).
type Manager interface {
	Configuration() (*Configuration, error)
	Write(cfg Configuration) error
}

type manager struct {
	resolver Resolver
	reader   *reader
	writer   *writer
}

// NewManager builds a Manager backed by resolver. The configuration path is
// resolved eagerly, so a bad resolver fails at construction rather than on
// first use; Configuration and Write resolve it again on each call.
func NewManager(resolver Resolver) (Manager, error) {
	path, err := resolver.Resolve()
	if err != nil {
		return nil, fmt.Errorf("config: resolving path: %w", err)
	}
	return &manager{
		resolver: resolver,
		reader:   newReader(path),
		writer:   newWriter(resolver),
	}, nil
}

func (m *manager) Configuration() (*Configuration, error) {
	path, err := m.resolver.Resolve()
	if err != nil {
		return nil, fmt.Errorf("config: resolving path: %w", err)
	}

	if _, statErr := os.Stat(path); statErr != nil {
		if err := m.writer.Write(*NewDefaultConfiguration()); err != nil {
			return nil, fmt.Errorf("config: writing default configuration: %w", err)
		}
	}

	return newReader(path).read()
}

func (m *manager) Write(cfg Configuration) error {
	return m.writer.Write(cfg)
}
