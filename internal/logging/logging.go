// Package logging builds the zap logger shared by every command.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nconklindev/warrantor/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production zap logger writing JSON lines to the configured
// log file. When toStderr is set, entries are also written to stderr; the TUI
// leaves it off because it owns the terminal.
func New(cfg *config.Config, toStderr bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.OutputPaths = nil
	zc.ErrorOutputPaths = []string{"stderr"}

	if path := cfg.LogPath(); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		zc.OutputPaths = append(zc.OutputPaths, path)
	}
	if toStderr {
		zc.OutputPaths = append(zc.OutputPaths, "stderr")
	}
	if len(zc.OutputPaths) == 0 {
		return zap.NewNop(), nil
	}

	return zc.Build()
}
