package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nconklindev/warrantor/internal/columns"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, columns.Customer, cfg.CustomerColumns)
}

func TestLoad_File(t *testing.T) {
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "warrantor.yaml")
	content := `
data_dir: /var/lib/warrantor
backend: sqlite
customer_columns:
  - Order ID
  - Email
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/warrantor", cfg.DataDir)
	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, []string{"Order ID", "Email"}, cfg.CustomerColumns)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// untouched keys keep their defaults
	assert.Equal(t, "warrantor.log", cfg.Logging.File)
	assert.Equal(t, "/var/lib/warrantor/warrantor.log", cfg.LogPath())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WARRANTOR_BACKEND", "memory")
	t.Setenv("WARRANTOR_EXPORT_DIR", "/tmp/exports")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Backend)
	assert.Equal(t, "/tmp/exports", cfg.ExportDir)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("WARRANTOR_LOG_LEVEL=warn\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("WARRANTOR_LOG_LEVEL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name    string
		content string
	}{
		{"Unknown backend", "backend: redis\n"},
		{"Empty columns", "customer_columns: []\n"},
		{"Malformed yaml", "backend: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "warrantor.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
