// Package config loads the taskboard TUI configuration.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/fentz26/taskboard/internal/models"
)

// Config holds TUI settings.
type Config struct {
	// PageSize is the number of tasks requested per page.
	PageSize int `yaml:"page_size"`
	// PrefetchRows starts loading the next page when the focus is this close to the end.
	PrefetchRows int `yaml:"prefetch_rows"`
	// PrefsPath is where the search filter and sort order are kept.
	PrefsPath string `yaml:"prefs_path"`
	// LogPath receives the TUI log, since the terminal is taken.
	LogPath string `yaml:"log_path"`
	// Partitions are the status tabs, in order.
	Partitions []models.TaskStatus `yaml:"partitions"`
}

// Dir returns ~/.taskboard, or .taskboard when the home directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskboard"
	}
	return filepath.Join(home, ".taskboard")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dir := Dir()
	return &Config{
		PageSize:     10,
		PrefetchRows: 3,
		PrefsPath:    filepath.Join(dir, "prefs.json"),
		LogPath:      filepath.Join(dir, "tui.log"),
		Partitions:   append([]models.TaskStatus(nil), models.AllStatuses...),
	}
}

// LoadConfig loads configuration from a YAML file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// DefaultPath returns ~/.taskboard/config.yaml.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// SaveConfig saves configuration to a YAML file, creating parent directories if needed.
func SaveConfig(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// InitConfig writes the defaults to path unless a file is already there. It
// reports whether a file was written.
func InitConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking config file: %w", err)
	}
	if err := SaveConfig(path, DefaultConfig()); err != nil {
		return false, err
	}
	return true, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("page_size must be between 1 and 100")
	}
	if c.PrefetchRows < 0 {
		return fmt.Errorf("prefetch_rows must not be negative")
	}
	if len(c.Partitions) == 0 {
		return fmt.Errorf("partitions must list at least one status")
	}

	seen := make(map[models.TaskStatus]bool, len(c.Partitions))
	for _, p := range c.Partitions {
		if !p.Valid() {
			return fmt.Errorf("invalid partition %q, must be: OPEN, IN_PROGRESS, or CLOSED", p)
		}
		if seen[p] {
			return fmt.Errorf("duplicate partition %q", p)
		}
		seen[p] = true
	}
	return nil
}
