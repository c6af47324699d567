package store

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Backends lists the names Open accepts.
var Backends = []string{BackendFile, BackendSQLite, BackendMemory}

// Open creates the named backend under dataDir and returns a store that owns
// it. File backends also report writes made by other processes.
func Open(backend, dataDir string, logger *zap.Logger) (*Store, error) {
	var b Backend
	switch backend {
	case BackendMemory:
		b = NewMemoryBackend()
	case BackendFile:
		fb, err := NewFileBackend(dataDir)
		if err != nil {
			return nil, err
		}
		b = fb
	case BackendSQLite:
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		sb, err := NewSQLiteBackend(filepath.Join(dataDir, "warrantor.db"))
		if err != nil {
			return nil, err
		}
		b = sb
	default:
		return nil, fmt.Errorf("unknown store backend: %s", backend)
	}

	s := New(b, NewHub(), logger)
	s.owned = true

	if w, ok := b.(Watcher); ok {
		if err := s.watch(w); err != nil {
			b.Close()
			return nil, err
		}
	}

	s.logger.Info("Store opened",
		zap.String("backend", backend),
		zap.String("dir", dataDir))
	return s, nil
}
