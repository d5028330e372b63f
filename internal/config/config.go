// Package config loads hitpager configuration from defaults, YAML files
// and HITPAGER_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/hitpager/internal/errors"
)

// ProjectFileName is the per-directory configuration file.
const ProjectFileName = ".hitpager.yaml"

// DataDirName is the default data directory, relative to the project.
const DataDirName = ".hitpager"

// Config represents the complete hitpager configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Index     IndexConfig     `yaml:"index" json:"index"`
	Store     StoreConfig     `yaml:"store" json:"store"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	Transform TransformConfig `yaml:"transform" json:"transform"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
}

// IndexConfig configures the bleve index.
type IndexConfig struct {
	// Path is the index directory. Relative paths resolve against the
	// project directory.
	Path string `yaml:"path" json:"path"`
}

// StoreConfig configures the SQLite record store.
type StoreConfig struct {
	Path        string        `yaml:"path" json:"path"`
	BusyTimeout time.Duration `yaml:"busy_timeout" json:"busy_timeout"`
}

// SearchConfig configures queries and pagination.
type SearchConfig struct {
	// DefaultSize bounds queries run without a limit.
	DefaultSize int `yaml:"default_size" json:"default_size"`

	// PageSize is the default number of results per page.
	PageSize int `yaml:"page_size" json:"page_size"`

	// QueryCacheSize is the number of parsed query strings kept in memory.
	// Zero disables the cache.
	QueryCacheSize int `yaml:"query_cache_size" json:"query_cache_size"`

	// NormalizeOutOfRange clamps requests for pages past the end to the
	// last page instead of failing.
	NormalizeOutOfRange bool `yaml:"normalize_out_of_range" json:"normalize_out_of_range"`

	// Timeout bounds one backend round trip. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Retries is how many times the CLI retries transient backend errors.
	Retries int `yaml:"retries" json:"retries"`
}

// TransformConfig configures hit to record mapping.
type TransformConfig struct {
	// IgnoreMissing skips hits without a stored record instead of failing.
	IgnoreMissing bool `yaml:"ignore_missing" json:"ignore_missing"`

	// IdentifierField reads the record ID from this hit field instead of
	// the hit ID.
	IdentifierField string `yaml:"identifier_field" json:"identifier_field"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	// File is an optional log file; empty logs to stderr only.
	File string `yaml:"file" json:"file"`
}

// MetricsConfig configures Prometheus instrumentation.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// NewConfig returns a Config with defaults applied.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Index: IndexConfig{
			Path: filepath.Join(DataDirName, "index.bleve"),
		},
		Store: StoreConfig{
			Path:        filepath.Join(DataDirName, "records.db"),
			BusyTimeout: 5 * time.Second,
		},
		Search: SearchConfig{
			DefaultSize:    10,
			PageSize:       10,
			QueryCacheSize: 256,
			Timeout:        10 * time.Second,
			Retries:        2,
		},
		Transform: TransformConfig{
			IgnoreMissing: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file:
// $XDG_CONFIG_HOME/hitpager/config.yaml, or ~/.config/hitpager/config.yaml.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "hitpager", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "hitpager", "config.yaml")
	}
	return filepath.Join(home, ".config", "hitpager", "config.yaml")
}

// Load loads configuration for the project in dir. It applies, in order of
// increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/hitpager/config.yaml)
//  3. Project config (.hitpager.yaml in dir)
//  4. Environment variables (HITPAGER_*)
//
// Relative index and store paths are resolved against dir.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadYAML(GetUserConfigPath()); err != nil {
		return nil, err
	}
	if err := cfg.loadYAML(filepath.Join(dir, ProjectFileName)); err != nil {
		return nil, err
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Index.Path = resolve(dir, cfg.Index.Path)
	cfg.Store.Path = resolve(dir, cfg.Store.Path)
	return cfg, nil
}

// loadYAML decodes path over c. Keys absent from the file keep their current
// value. A missing file is not an error.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.New(errors.ErrCodeConfigNotFound, fmt.Sprintf("failed to read config file %s", path), err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithDetail("path", path)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	strs := map[string]*string{
		"HITPAGER_INDEX_PATH":       &c.Index.Path,
		"HITPAGER_STORE_PATH":       &c.Store.Path,
		"HITPAGER_LOG_LEVEL":        &c.Logging.Level,
		"HITPAGER_LOG_FORMAT":       &c.Logging.Format,
		"HITPAGER_LOG_FILE":         &c.Logging.File,
		"HITPAGER_IDENTIFIER_FIELD": &c.Transform.IdentifierField,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"HITPAGER_DEFAULT_SIZE":     &c.Search.DefaultSize,
		"HITPAGER_PAGE_SIZE":        &c.Search.PageSize,
		"HITPAGER_QUERY_CACHE_SIZE": &c.Search.QueryCacheSize,
		"HITPAGER_RETRIES":          &c.Search.Retries,
	}
	for name, dst := range ints {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return envError(name, v, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"HITPAGER_NORMALIZE_OUT_OF_RANGE": &c.Search.NormalizeOutOfRange,
		"HITPAGER_IGNORE_MISSING":         &c.Transform.IgnoreMissing,
		"HITPAGER_METRICS_ENABLED":        &c.Metrics.Enabled,
	}
	for name, dst := range bools {
		if v := os.Getenv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return envError(name, v, err)
			}
			*dst = b
		}
	}

	durations := map[string]*time.Duration{
		"HITPAGER_SEARCH_TIMEOUT": &c.Search.Timeout,
		"HITPAGER_BUSY_TIMEOUT":   &c.Store.BusyTimeout,
	}
	for name, dst := range durations {
		if v := os.Getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return envError(name, v, err)
			}
			*dst = d
		}
	}

	return nil
}

func envError(name, value string, err error) error {
	return errors.ConfigError(fmt.Sprintf("invalid value %q for %s", value, name), err).
		WithDetail("env", name)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch {
	case c.Index.Path == "":
		return errors.ConfigError("index.path must not be empty", nil)
	case c.Store.Path == "":
		return errors.ConfigError("store.path must not be empty", nil)
	case c.Search.DefaultSize < 1:
		return errors.ConfigError(fmt.Sprintf("search.default_size must be at least 1, got %d", c.Search.DefaultSize), nil)
	case c.Search.PageSize < 1:
		return errors.ConfigError(fmt.Sprintf("search.page_size must be at least 1, got %d", c.Search.PageSize), nil)
	case c.Search.QueryCacheSize < 0:
		return errors.ConfigError(fmt.Sprintf("search.query_cache_size must be non-negative, got %d", c.Search.QueryCacheSize), nil)
	case c.Search.Timeout < 0:
		return errors.ConfigError(fmt.Sprintf("search.timeout must be non-negative, got %s", c.Search.Timeout), nil)
	case c.Search.Retries < 0:
		return errors.ConfigError(fmt.Sprintf("search.retries must be non-negative, got %d", c.Search.Retries), nil)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return errors.ConfigError(fmt.Sprintf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level), nil)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return errors.ConfigError(fmt.Sprintf("logging.format must be 'text' or 'json', got %s", c.Logging.Format), nil)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
