// Package config loads gomemory configuration.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables prefixed GOMEMORY_ (GOMEMORY_STORE_ROOT, ...)
//  2. YAML config file (~/.config/gomemory/config.yaml or --config)
//  3. Built-in defaults
//
// Environment variables map to keys by dropping the prefix, lowercasing, and
// splitting section from field at the first underscore:
//
//	GOMEMORY_STORE_ROOT           -> store.root
//	GOMEMORY_SEARCH_DEFAULT_LIMIT -> search.default_limit
//	GOMEMORY_LOG_LEVEL            -> log.level
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/dshills/gomemory-mcp/internal/logging"
	"github.com/dshills/gomemory-mcp/internal/storage"
)

const (
	// EnvPrefix prefixes every environment override
	EnvPrefix = "GOMEMORY_"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Config is the complete gomemory configuration
type Config struct {
	Store  StoreConfig    `koanf:"store"`
	Search SearchConfig   `koanf:"search"`
	Log    logging.Config `koanf:"log"`
}

// StoreConfig selects and tunes the knowledge repository
type StoreConfig struct {
	Root      string `koanf:"root"`
	Backend   string `koanf:"backend"`
	CacheSize int    `koanf:"cache_size"`
	Watch     bool   `koanf:"watch"`
}

// SearchConfig tunes the search orchestrator
type SearchConfig struct {
	DefaultLimit int `koanf:"default_limit"`
	Workers      int `koanf:"workers"`
}

const defaultYAML = `
store:
  root: "~/.gomemory/knowledge"
  backend: file
  cache_size: 256
  watch: false
search:
  default_limit: 10
  workers: 8
log:
  level: info
  format: json
`

// DefaultPath returns ~/.config/gomemory/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "gomemory", "config.yaml"), nil
}

// Load reads configuration from defaults, the YAML file at path (the
// default path when empty; a missing default file is not an error), and
// the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider([]byte(defaultYAML)), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	content, err := readConfigFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No user config
	case err != nil:
		return nil, err
	default:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Store.Root, err = ExpandHome(cfg.Store.Root)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks configuration values
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Store.Root) == "" {
		return errors.New("store.root must not be empty")
	}
	switch c.Store.Backend {
	case storage.BackendFile, storage.BackendSQLite:
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", storage.BackendFile, storage.BackendSQLite, c.Store.Backend)
	}
	if c.Store.CacheSize < 0 {
		return fmt.Errorf("store.cache_size must be >= 0, got %d", c.Store.CacheSize)
	}
	if c.Search.DefaultLimit < 0 {
		return fmt.Errorf("search.default_limit must be >= 0, got %d", c.Search.DefaultLimit)
	}
	if c.Search.Workers < 1 {
		return fmt.Errorf("search.workers must be >= 1, got %d", c.Search.Workers)
	}
	return c.Log.Validate()
}

// envKey maps GOMEMORY_SECTION_FIELD_NAME to section.field_name
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
