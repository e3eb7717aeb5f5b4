package config

import (
	"os"
	"path/filepath"
	"testing"
)

type fixedResolver struct{ path string }

func (f fixedResolver) Resolve() (string, error) { return f.path, nil }

func TestManagerWritesDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "conf.json")
	m, err := NewManager(fixedResolver{path: path})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	cfg, err := m.Configuration()
	if err != nil {
		t.Fatalf("Configuration: %v", err)
	}
	if cfg.SOCKSListenAddress == "" {
		t.Fatal("expected default SOCKSListenAddress")
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("expected default configuration to be written to disk: %v", statErr)
	}
}

func TestManagerReadsExisting(t *testing.T) {
	path := createTempConfigFile(t, Configuration{SharedKeyHex: "ef"})
	m, err := NewManager(fixedResolver{path: path})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	cfg, err := m.Configuration()
	if err != nil {
		t.Fatalf("Configuration: %v", err)
	}
	if cfg.SharedKeyHex != "ef" {
		t.Fatalf("SharedKeyHex = %q, want existing value preserved", cfg.SharedKeyHex)
	}
}
