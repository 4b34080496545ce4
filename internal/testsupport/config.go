// Package testsupport provides shared helpers for tests: temp-dir scoped
// configuration and a seeded catalog store.
package testsupport

import (
	"path/filepath"
	"testing"

	"fetcharr/internal/config"
)

// ConfigOption allows callers to customize the generated test
// configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp paths per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Logging.Dir = filepath.Join(base, "logs")
	cfg.Catalog.DatabasePath = filepath.Join(base, "catalog.db")

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// WithIndexer points the config at a Torznab endpoint.
func WithIndexer(baseURL, apiKey string) ConfigOption {
	return func(c *config.Config) {
		c.Indexer.BaseURL = baseURL
		c.Indexer.APIKey = apiKey
	}
}

// WithAcceptUnmatched enables unmatched-release acceptance with the given
// indexer minimum.
func WithAcceptUnmatched(minIndexers int) ConfigOption {
	return func(c *config.Config) {
		c.Matching.AcceptUnmatched = true
		c.Matching.MinimumIndexers = minIndexers
	}
}
