package testsupport

import (
	"path/filepath"
	"testing"

	"plexshelf/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Plex.URL = "http://127.0.0.1:32400"
	cfgVal.Plex.Token = "test"
	cfgVal.API.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithPlexURL points the Plex client at a test server.
func WithPlexURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Plex.URL = url
	}
}

// WithSupersedePolicy sets how approving a second match for an item behaves.
func WithSupersedePolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.SupersedePolicy = policy
	}
}

// WithThresholds overrides the confidence floor and auto-approve threshold.
func WithThresholds(floor, autoApprove int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.ConfidenceThreshold = floor
		b.cfg.Matching.AutoApproveThreshold = autoApprove
	}
}

// WithEnrichment enables enrichment with the given provider.
func WithEnrichment(provider string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Enrichment.Enabled = true
		b.cfg.Enrichment.Provider = provider
		b.cfg.Enrichment.MinIntervalMillis = 0
		if b.cfg.LLM.APIKey == "" {
			b.cfg.LLM.APIKey = "test"
		}
	}
}

// WithAPIToken requires bearer authentication on the HTTP API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.Token = token
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
