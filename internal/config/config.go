// Package config loads and validates the TOML configuration file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Logging contains log output configuration.
type Logging struct {
	Dir    string `toml:"dir"`
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Indexer contains the Torznab gateway configuration. An empty base URL
// means no indexer is configured; searches then return no results.
type Indexer struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	SearchAliases  bool   `toml:"search_aliases"`
}

// Oracle contains the optional semantic similarity endpoint
// configuration.
type Oracle struct {
	Enabled        bool    `toml:"enabled"`
	BaseURL        string  `toml:"base_url"`
	APIKey         string  `toml:"api_key"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	MatchThreshold float64 `toml:"match_threshold"`
}

// Matching tunes the grouping and selection stages.
type Matching struct {
	GroupingThreshold float64 `toml:"grouping_threshold"`
	MinimumIndexers   int     `toml:"minimum_indexers"`
	AcceptUnmatched   bool    `toml:"accept_unmatched"`
}

// Catalog contains catalog database settings and fetch bounds.
type Catalog struct {
	DatabasePath string `toml:"database_path"`
	FetchCap     int    `toml:"fetch_cap"`
	BatchSize    int    `toml:"batch_size"`
}

// Config is the full application configuration.
type Config struct {
	Logging  Logging  `toml:"logging"`
	Indexer  Indexer  `toml:"indexer"`
	Oracle   Oracle   `toml:"oracle"`
	Matching Matching `toml:"matching"`
	Catalog  Catalog  `toml:"catalog"`
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return expandHome("~/.config/fetcharr/config.toml")
}

// Load reads the TOML file at path over the defaults, normalizes paths,
// and validates the result. A missing file is an error; use Default for
// an unconfigured starting point.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s does not exist (run \"fetcharr config init\")", path)
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize trims string fields and expands home-relative paths.
func (c *Config) normalize() {
	c.Logging.Dir = expandHome(strings.TrimSpace(c.Logging.Dir))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Indexer.BaseURL = strings.TrimSpace(c.Indexer.BaseURL)
	c.Indexer.APIKey = strings.TrimSpace(c.Indexer.APIKey)
	c.Oracle.BaseURL = strings.TrimSpace(c.Oracle.BaseURL)
	c.Oracle.APIKey = strings.TrimSpace(c.Oracle.APIKey)
	c.Catalog.DatabasePath = expandHome(strings.TrimSpace(c.Catalog.DatabasePath))
}

// Validate checks invariants that would otherwise surface as confusing
// runtime behavior.
func (c *Config) Validate() error {
	var problems []string
	if c.Matching.GroupingThreshold <= 0 || c.Matching.GroupingThreshold > 1 {
		problems = append(problems, "matching.grouping_threshold must be in (0, 1]")
	}
	if c.Matching.MinimumIndexers < 0 {
		problems = append(problems, "matching.minimum_indexers must not be negative")
	}
	if c.Oracle.Enabled && c.Oracle.BaseURL == "" {
		problems = append(problems, "oracle.base_url required when oracle.enabled is true")
	}
	if c.Oracle.MatchThreshold <= 0 || c.Oracle.MatchThreshold > 1 {
		problems = append(problems, "oracle.match_threshold must be in (0, 1]")
	}
	if c.Catalog.DatabasePath == "" {
		problems = append(problems, "catalog.database_path is required")
	}
	if c.Catalog.FetchCap <= 0 {
		problems = append(problems, "catalog.fetch_cap must be positive")
	}
	if c.Catalog.BatchSize <= 0 || c.Catalog.BatchSize > c.Catalog.FetchCap {
		problems = append(problems, "catalog.batch_size must be positive and not exceed catalog.fetch_cap")
	}
	if c.Indexer.TimeoutSeconds < 0 || c.Oracle.TimeoutSeconds < 0 {
		problems = append(problems, "timeouts must not be negative")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported", c.Logging.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// EnsureDirectories creates the directories the application writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Logging.Dir, filepath.Dir(c.Catalog.DatabasePath)}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample configuration to path, refusing
// to overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
