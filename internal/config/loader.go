package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// appDir is the directory name under the user config dir.
const appDir = "devops-proxy"

// FileLoader is the default Loader backed by a YAML file.
type FileLoader struct {
	path string
}

// NewFileLoader returns a Loader for path. An empty path selects
// DefaultPath().
func NewFileLoader(path string) *FileLoader {
	if path == "" {
		path = DefaultPath()
	}
	return &FileLoader{path: path}
}

// DefaultPath returns $XDG_CONFIG_HOME/devops-proxy/config.yaml, falling back
// to ~/.config/devops-proxy/config.yaml.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", appDir, "config.yaml")
	}
	return filepath.Join(home, ".config", appDir, "config.yaml")
}

// ConfigPath implements Loader.
func (l *FileLoader) ConfigPath() string { return l.path }

// Load implements Loader. A missing file yields a zero Config.
func (l *FileLoader) Load() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", l.path, err)
	}
	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("config %s: log.level: %w", l.path, err)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("config %s: log.format: unknown value %q; valid values: text, json", l.path, cfg.Log.Format)
	}
	return &cfg, nil
}

// ParseLevel converts a log level name to a slog.Level. Empty means warn.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return slog.LevelWarn, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q; valid values: debug, info, warn, error", s)
}
