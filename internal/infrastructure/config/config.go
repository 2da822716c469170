// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for fishreg configuration.
	DefaultConfigDir = ".fishreg"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatabaseFile is the SQLite file created inside the config directory.
	DefaultDatabaseFile = "fishreg.db"
	// EnvPrefix prefixes every environment override, e.g. FISHREG_LOG_LEVEL.
	EnvPrefix = "FISHREG"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	// reNonAlphanumeric matches characters that aren't alphanumeric or underscore.
	reNonAlphanumeric = regexp.MustCompile(`[^a-z0-9_]`)
	// reMultipleUnderscores matches consecutive underscores.
	reMultipleUnderscores = regexp.MustCompile(`_+`)
)

// Config holds static configuration (read-only after load).
type Config struct {
	Environment string           `yaml:"environment,omitempty" split_words:"true"`
	LogLevel    string           `yaml:"log_level,omitempty" split_words:"true"`
	Database    DatabaseConfig   `yaml:"database,omitempty" envconfig:"DATABASE"`
	Matching    MatchingConfig   `yaml:"matching,omitempty" envconfig:"MATCHING"`
	Duplicates  DuplicatesConfig `yaml:"duplicates,omitempty" envconfig:"DUPLICATES"`
	NameIndex   NameIndexConfig  `yaml:"name_index,omitempty" envconfig:"NAME_INDEX"`
	HTTP        HTTPConfig       `yaml:"http,omitempty" envconfig:"HTTP"`
}

// DatabaseConfig selects and configures the relational store.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver,omitempty" split_words:"true"`
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty" envconfig:"SQLITE"`
	Postgres PostgresConfig `yaml:"postgres,omitempty" envconfig:"POSTGRES"`
}

// SQLiteConfig holds configuration for the SQLite relational database.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database. Relative paths are
	// resolved against the project directory.
	Path string `yaml:"path,omitempty" split_words:"true"`
}

// PostgresConfig holds configuration for the PostgreSQL relational database.
type PostgresConfig struct {
	URL      string `yaml:"url,omitempty" split_words:"true"`
	MinConns int    `yaml:"min_conns,omitempty" split_words:"true"`
	MaxConns int    `yaml:"max_conns,omitempty" split_words:"true"`
}

// MatchingConfig holds acceptance thresholds (0..100) and per-stage scan caps.
type MatchingConfig struct {
	ContactThreshold      int `yaml:"contact_threshold,omitempty" split_words:"true"`
	OrganizationThreshold int `yaml:"organization_threshold,omitempty" split_words:"true"`
	ActionThreshold       int `yaml:"action_threshold,omitempty" split_words:"true"`
	ScopedScanLimit       int `yaml:"scoped_scan_limit,omitempty" split_words:"true"`
	GlobalScanLimit       int `yaml:"global_scan_limit,omitempty" split_words:"true"`
}

// DuplicatesConfig holds duplicate detection settings.
type DuplicatesConfig struct {
	MinScore float64 `yaml:"min_score,omitempty" split_words:"true"`
	Blocking bool    `yaml:"blocking,omitempty" split_words:"true"`
}

// NameIndexConfig holds configuration for the Qdrant name index.
type NameIndexConfig struct {
	Enabled    bool   `yaml:"enabled,omitempty" split_words:"true"`
	Host       string `yaml:"host,omitempty" split_words:"true"`
	Port       int    `yaml:"port,omitempty" split_words:"true"`
	Collection string `yaml:"collection,omitempty" split_words:"true"`
	APIKey     string `yaml:"api_key,omitempty" split_words:"true"`
	Dimensions int    `yaml:"dimensions,omitempty" split_words:"true"`
}

// HTTPConfig holds configuration for the REST server.
type HTTPConfig struct {
	Host            string        `yaml:"host,omitempty" split_words:"true"`
	Port            int           `yaml:"port,omitempty" split_words:"true"`
	ReadTimeout     time.Duration `yaml:"read_timeout,omitempty" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"write_timeout,omitempty" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty" split_words:"true"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Environment: "local",
		LogLevel:    "info",
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			SQLite: SQLiteConfig{Path: filepath.Join(DefaultConfigDir, DefaultDatabaseFile)},
			Postgres: PostgresConfig{
				MinConns: 1,
				MaxConns: 8,
			},
		},
		Matching: MatchingConfig{
			ContactThreshold:      85,
			OrganizationThreshold: 85,
			ActionThreshold:       90,
			ScopedScanLimit:       100,
			GlobalScanLimit:       500,
		},
		Duplicates: DuplicatesConfig{
			MinScore: 0.8,
		},
		NameIndex: NameIndexConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "fishreg_names",
			Dimensions: 256,
		},
		HTTP: HTTPConfig{
			Host:            "0.0.0.0",
			Port:            8090,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load loads configuration from the .fishreg directory in the given path,
// applies FISHREG_* environment overrides and validates the result.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'fishreg init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.resolvePaths(basePath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("reading environment overrides: %w", err)
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" && c.NameIndex.APIKey == "" {
		c.NameIndex.APIKey = key
	}
	return nil
}

func (c *Config) resolvePaths(basePath string) {
	path := strings.TrimSpace(c.Database.SQLite.Path)
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return
	}
	c.Database.SQLite.Path = filepath.Join(basePath, path)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Environment) == "" {
		return errors.New("environment is required")
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Database.SQLite.Path) == "" {
			return errors.New("database.sqlite.path is required for the sqlite driver")
		}
	case DriverPostgres:
		pg := c.Database.Postgres
		if strings.TrimSpace(pg.URL) == "" {
			return errors.New("database.postgres.url is required for the postgres driver")
		}
		if pg.MinConns < 0 {
			return errors.New("database.postgres.min_conns must be >= 0")
		}
		if pg.MaxConns < 1 {
			return errors.New("database.postgres.max_conns must be >= 1")
		}
		if pg.MinConns > pg.MaxConns {
			return fmt.Errorf("database.postgres.min_conns (%d) cannot exceed max_conns (%d)", pg.MinConns, pg.MaxConns)
		}
	default:
		return fmt.Errorf("database.driver %q is not supported (valid: sqlite, postgres)", c.Database.Driver)
	}

	thresholds := map[string]int{
		"matching.contact_threshold":      c.Matching.ContactThreshold,
		"matching.organization_threshold": c.Matching.OrganizationThreshold,
		"matching.action_threshold":       c.Matching.ActionThreshold,
	}
	for name, value := range thresholds {
		if value < 1 || value > 100 {
			return fmt.Errorf("%s must be between 1 and 100, got %d", name, value)
		}
	}
	if c.Matching.ScopedScanLimit < 1 {
		return errors.New("matching.scoped_scan_limit must be >= 1")
	}
	if c.Matching.GlobalScanLimit < 1 {
		return errors.New("matching.global_scan_limit must be >= 1")
	}

	if c.Duplicates.MinScore <= 0 || c.Duplicates.MinScore > 1 {
		return fmt.Errorf("duplicates.min_score must be in (0, 1], got %g", c.Duplicates.MinScore)
	}

	if c.NameIndex.Enabled {
		if strings.TrimSpace(c.NameIndex.Host) == "" {
			return errors.New("name_index.host is required when the name index is enabled")
		}
		if c.NameIndex.Port < 1 || c.NameIndex.Port > 65535 {
			return fmt.Errorf("name_index.port %d is out of range", c.NameIndex.Port)
		}
		if SanitizeCollectionName(c.NameIndex.Collection) == "" {
			return errors.New("name_index.collection is required when the name index is enabled")
		}
		if c.NameIndex.Dimensions < 16 {
			return errors.New("name_index.dimensions must be >= 16")
		}
	}

	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d is out of range", c.HTTP.Port)
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 || c.HTTP.ShutdownTimeout <= 0 {
		return errors.New("http timeouts must be positive")
	}
	return nil
}

// ConfigDir returns the path to the .fishreg config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// Exists checks if a fishreg config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}

// SanitizeCollectionName converts a name to a valid Qdrant collection name.
// It returns "" when nothing usable remains.
func SanitizeCollectionName(name string) string {
	// Convert to lowercase
	name = strings.ToLower(name)

	// Replace spaces and hyphens with underscores
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")

	// Remove any characters that aren't alphanumeric or underscore
	name = reNonAlphanumeric.ReplaceAllString(name, "")

	// Remove consecutive underscores
	name = reMultipleUnderscores.ReplaceAllString(name, "_")

	return strings.Trim(name, "_")
}
