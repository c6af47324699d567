package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/nconklindev/warrantor/internal/columns"
	"github.com/nconklindev/warrantor/internal/store"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "warrantor.yaml"

// Config holds all warrantor settings.
type Config struct {
	// Storage
	DataDir string `yaml:"data_dir"`
	Backend string `yaml:"backend"` // file, sqlite, memory

	// Downloads land here
	ExportDir string `yaml:"export_dir"`

	// bcrypt hash of the admin password; empty means the demo password
	PasswordHash string `yaml:"password_hash"`

	// Labels an uploaded customer sheet must carry
	CustomerColumns []string `yaml:"customer_columns"`

	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // relative paths resolve against data_dir
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		DataDir:         ".warrantor",
		Backend:         store.BackendFile,
		ExportDir:       ".",
		CustomerColumns: slices.Clone(columns.Customer),
		Logging: LoggingConfig{
			Level: "info",
			File:  "warrantor.log",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies .env and
// WARRANTOR_* environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	// .env is optional
	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"WARRANTOR_DATA_DIR":      &c.DataDir,
		"WARRANTOR_BACKEND":       &c.Backend,
		"WARRANTOR_EXPORT_DIR":    &c.ExportDir,
		"WARRANTOR_PASSWORD_HASH": &c.PasswordHash,
		"WARRANTOR_LOG_LEVEL":     &c.Logging.Level,
		"WARRANTOR_LOG_FILE":      &c.Logging.File,
	}
	for env, field := range overrides {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	if !slices.Contains(store.Backends, c.Backend) {
		return fmt.Errorf("unknown backend %q (want one of %v)", c.Backend, store.Backends)
	}
	if c.DataDir == "" && c.Backend != store.BackendMemory {
		return fmt.Errorf("data_dir is required for the %s backend", c.Backend)
	}
	if len(c.CustomerColumns) == 0 {
		return fmt.Errorf("customer_columns must not be empty")
	}
	return nil
}

// LogPath resolves the log file location.
func (c *Config) LogPath() string {
	if c.Logging.File == "" || filepath.IsAbs(c.Logging.File) {
		return c.Logging.File
	}
	return filepath.Join(c.DataDir, c.Logging.File)
}
