package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"plexshelf/internal/config"
)

func TestLoadDefaultConfigUsesEnvAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("PLEX_TOKEN", "plex-secret")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "plexshelf")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Plex.Token != "plex-secret" {
		t.Fatalf("expected Plex token from env, got %q", cfg.Plex.Token)
	}
	if cfg.Plex.LibraryName != "Audiobooks" {
		t.Fatalf("unexpected library name %q", cfg.Plex.LibraryName)
	}
	if cfg.Matching.ConfidenceThreshold != 70 || cfg.Matching.AutoApproveThreshold != 95 {
		t.Fatalf("unexpected thresholds: %+v", cfg.Matching)
	}
	if !cfg.Matching.FuzzyEnabled {
		t.Fatal("expected fuzzy matching enabled by default")
	}
	if cfg.Enrichment.Enabled {
		t.Fatal("expected enrichment disabled by default")
	}
	if cfg.Matching.SupersedePolicy != config.SupersedeReplace {
		t.Fatalf("unexpected supersede policy %q", cfg.Matching.SupersedePolicy)
	}
	if cfg.API.Bind != "127.0.0.1:7490" {
		t.Fatalf("unexpected api bind: %q", cfg.API.Bind)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if filepath.Dir(cfg.DatabasePath()) != cfg.Paths.DataDir {
		t.Fatalf("database path %q outside data dir", cfg.DatabasePath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "plexshelf.toml")

	type payload struct {
		Plex struct {
			URL   string `toml:"url"`
			Token string `toml:"token"`
		} `toml:"plex"`
		Matching struct {
			ConfidenceThreshold  int    `toml:"confidence_threshold"`
			AutoApproveThreshold int    `toml:"auto_approve_threshold"`
			SupersedePolicy      string `toml:"supersede_policy"`
		} `toml:"matching"`
		Enrichment struct {
			Enabled  bool   `toml:"enabled"`
			Provider string `toml:"provider"`
		} `toml:"enrichment"`
	}
	custom := payload{}
	custom.Plex.URL = "http://plex.local:32400/"
	custom.Plex.Token = "abc123"
	custom.Matching.ConfidenceThreshold = 60
	custom.Matching.AutoApproveThreshold = 90
	custom.Matching.SupersedePolicy = "REJECT"
	custom.Enrichment.Enabled = true
	custom.Enrichment.Provider = "google-books"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Plex.URL != "http://plex.local:32400" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Plex.URL)
	}
	if cfg.Matching.ConfidenceThreshold != 60 || cfg.Matching.AutoApproveThreshold != 90 {
		t.Fatalf("unexpected thresholds: %+v", cfg.Matching)
	}
	if cfg.Matching.SupersedePolicy != config.SupersedeReject {
		t.Fatalf("expected supersede policy normalized, got %q", cfg.Matching.SupersedePolicy)
	}
	if cfg.Enrichment.Provider != config.ProviderGoogleBooks {
		t.Fatalf("expected provider alias normalized, got %q", cfg.Enrichment.Provider)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "threshold above range",
			mutate:  func(c *config.Config) { c.Matching.ConfidenceThreshold = 120 },
			wantErr: "matching.confidence_threshold",
		},
		{
			name: "auto approve below floor",
			mutate: func(c *config.Config) {
				c.Matching.ConfidenceThreshold = 80
				c.Matching.AutoApproveThreshold = 70
			},
			wantErr: "auto_approve_threshold",
		},
		{
			name:    "unknown supersede policy",
			mutate:  func(c *config.Config) { c.Matching.SupersedePolicy = "merge" },
			wantErr: "supersede_policy",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *config.Config) { c.Enrichment.Provider = "tmdb" },
			wantErr: "enrichment.provider",
		},
		{
			name: "llm enrichment without key",
			mutate: func(c *config.Config) {
				c.Enrichment.Enabled = true
				c.Enrichment.Provider = config.ProviderLLM
				c.LLM.APIKey = ""
			},
			wantErr: "llm.api_key",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *config.Config) { c.Enrichment.Concurrency = 0 },
			wantErr: "enrichment.concurrency",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePlexRequiresToken(t *testing.T) {
	cfg := config.Default()
	if err := cfg.ValidatePlex(); err == nil || !strings.Contains(err.Error(), "plex.token") {
		t.Fatalf("expected token error, got %v", err)
	}
	cfg.Plex.Token = "x"
	if err := cfg.ValidatePlex(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLLMKeyFallsBackToOpenAIEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENROUTER_API_KEY", "")
	os.Unsetenv("OPENROUTER_API_KEY")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	path := filepath.Join(t.TempDir(), "missing.toml")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := cfg.GetLLM().APIKey; got != "sk-test" {
		t.Fatalf("expected OPENAI_API_KEY fallback, got %q", got)
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Matching.AutoApproveThreshold != 95 {
		t.Fatalf("unexpected auto approve threshold %d", cfg.Matching.AutoApproveThreshold)
	}
}
