package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

type writer struct {
	resolver Resolver
}

func newWriter(resolver Resolver) *writer {
	return &writer{resolver: resolver}
}

// Write marshals cfg as indented JSON and persists it at the resolved path,
// creating any missing parent directories.
func (w *writer) Write(cfg Configuration) error {
	content, err := json.MarshalIndent(cfg, "", "\t")
	if err != nil {
		return err
	}

	path, err := w.resolver.Resolve()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, err = file.Write(content)
	return err
}
