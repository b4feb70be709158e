package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileLoader_Load(t *testing.T) {
	path := writeConfig(t, `
aws:
  default_profile: prod
  default_region: eu-west-1
log:
  level: debug
  format: json
`)
	var l Loader = NewFileLoader(path)
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.AWS.DefaultProfile)
	assert.Equal(t, "eu-west-1", cfg.AWS.DefaultRegion)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, path, l.ConfigPath())
}

func TestFileLoader_MissingFileIsZeroConfig(t *testing.T) {
	cfg, err := NewFileLoader(filepath.Join(t.TempDir(), "absent.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestFileLoader_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":   "aws: [",
		"bad level":  "log:\n  level: loud\n",
		"bad format": "log:\n  format: xml\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewFileLoader(writeConfig(t, content)).Load()
			assert.Error(t, err)
		})
	}
}

func TestDefaultPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, filepath.Join("/tmp/xdg", "devops-proxy", "config.yaml"), DefaultPath())
	assert.Equal(t, DefaultPath(), NewFileLoader("").ConfigPath())
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelWarn,
		"DEBUG": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}
