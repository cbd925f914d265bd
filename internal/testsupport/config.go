// Package testsupport provides shared fixtures for package tests: temp-backed
// configs and stores.
package testsupport

import (
	"path/filepath"
	"testing"

	"inkwell/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.DataDir = filepath.Join(base, "data")
	cfg.LogDir = filepath.Join(base, "logs")
	cfg.APIBind = "127.0.0.1:0"
	cfg.PublicURL = "https://blog-admin.test"
	cfg.TextGen.APIKey = "test"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithMail configures a mail endpoint so notification paths activate in tests.
func WithMail(endpoint, from, to string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Mail.Endpoint = endpoint
		cfg.Mail.From = from
		cfg.Mail.To = to
	}
}

// WithCompetitorURLs sets the research competitor URL list.
func WithCompetitorURLs(urls ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Research.CompetitorURLs = urls
	}
}
