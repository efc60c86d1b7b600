package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// BackendKind selects the persistence backend implementation.
type BackendKind string

const (
	BackendFile   BackendKind = "file"
	BackendSQLite BackendKind = "sqlite"
	BackendMemory BackendKind = "memory"
)

const (
	defaultDirName        = ".websaver"
	defaultCopyFeedback   = 2 * time.Second
	defaultFetchTimeout   = 5 * time.Second
	defaultUserAgent      = "websaver/0.1"
	defaultExportFileName = "websaver_tabs_export.json"
)

// Config is the complete websaver configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	UI      UIConfig      `yaml:"ui"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig controls where and how the collection is persisted.
type StorageConfig struct {
	Backend BackendKind `yaml:"backend" env:"WEBSAVER_BACKEND"`
	DataDir string      `yaml:"data_dir" env:"WEBSAVER_DATA_DIR"`
	// Compact persists records with short field names
	Compact bool `yaml:"compact" env:"WEBSAVER_COMPACT"`
}

// UIConfig controls the terminal interface.
type UIConfig struct {
	CopyFeedback   time.Duration `yaml:"copy_feedback"`
	ExportFileName string        `yaml:"export_file_name"`
}

// FetchConfig controls page title lookups.
type FetchConfig struct {
	Enabled   bool          `yaml:"enabled" env:"WEBSAVER_FETCH_TITLES"`
	Timeout   time.Duration `yaml:"timeout" env:"WEBSAVER_FETCH_TIMEOUT"`
	UserAgent string        `yaml:"user_agent"`
}

// LoggingConfig controls the session log location.
type LoggingConfig struct {
	Dir string `yaml:"dir" env:"WEBSAVER_LOG_DIR"`
}

// Default returns the configuration used when no file or environment
// overrides exist. Paths are resolved under the user's home directory.
func Default() *Config {
	root := defaultRoot()
	return &Config{
		Storage: StorageConfig{
			Backend: BackendFile,
			DataDir: filepath.Join(root, "data"),
		},
		UI: UIConfig{
			CopyFeedback:   defaultCopyFeedback,
			ExportFileName: defaultExportFileName,
		},
		Fetch: FetchConfig{
			Enabled:   true,
			Timeout:   defaultFetchTimeout,
			UserAgent: defaultUserAgent,
		},
		Logging: LoggingConfig{
			Dir: filepath.Join(root, "logs"),
		},
	}
}

// DefaultPath returns ~/.websaver/config.yaml
func DefaultPath() string {
	return filepath.Join(defaultRoot(), "config.yaml")
}

func defaultRoot() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return defaultDirName
	}
	return filepath.Join(homeDir, defaultDirName)
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides. A missing file is not an error. If path is empty,
// DefaultPath is used.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// No file yet, keep defaults
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv applies WEBSAVER_* environment variables to target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

// Validate checks the configuration and fills derived defaults.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("config: storage.data_dir is required for the %s backend", c.Storage.Backend)
		}
	case BackendMemory:
	case "":
		c.Storage.Backend = BackendFile
		return c.Validate()
	default:
		return fmt.Errorf("config: invalid storage.backend %q (must be 'file', 'sqlite', or 'memory')", c.Storage.Backend)
	}

	if c.UI.CopyFeedback <= 0 {
		return fmt.Errorf("config: ui.copy_feedback must be positive, got %v", c.UI.CopyFeedback)
	}
	if c.UI.ExportFileName == "" {
		c.UI.ExportFileName = defaultExportFileName
	}

	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("config: fetch.timeout must be positive, got %v", c.Fetch.Timeout)
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = defaultUserAgent
	}

	return nil
}
