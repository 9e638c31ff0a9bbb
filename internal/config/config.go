package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"plexshelf/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Plex contains connection settings for the Plex Media Server that hosts the
// audiobook library.
type Plex struct {
	URL            string `toml:"url"`
	Token          string `toml:"token"`
	LibraryName    string `toml:"library_name"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Matching contains thresholds for the series matching engine. All scores are
// integers on the 0-100 scale.
type Matching struct {
	ConfidenceThreshold  int    `toml:"confidence_threshold"`
	AutoApproveThreshold int    `toml:"auto_approve_threshold"`
	FuzzyEnabled         bool   `toml:"fuzzy_enabled"`
	FuzzyThreshold       int    `toml:"fuzzy_threshold"`
	AuthorThreshold      int    `toml:"author_threshold"`
	SeriesMergeThreshold int    `toml:"series_merge_threshold"`
	SupersedePolicy      string `toml:"supersede_policy"`
}

// Enrichment controls the optional external series lookup.
type Enrichment struct {
	Enabled                bool   `toml:"enabled"`
	Provider               string `toml:"provider"`
	Concurrency            int    `toml:"concurrency"`
	TimeoutSeconds         int    `toml:"timeout_seconds"`
	MinIntervalMillis      int    `toml:"min_interval_ms"`
	RateLimitBackoffSecond int    `toml:"rate_limit_backoff_seconds"`
	DefaultConfidence      int    `toml:"default_confidence"`
}

// LLM contains connection settings for the chat-completions enrichment provider.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// GoogleBooks contains settings for the Google Books enrichment provider.
type GoogleBooks struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// API contains the HTTP control surface settings.
type API struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for PlexShelf.
//
// Configuration sections by subsystem:
//   - Paths: database and log directories
//   - Plex: catalog source and collection sink
//   - Matching: engine thresholds and the approval supersede policy
//   - Enrichment: external lookup toggle, provider choice, and rate limits
//   - LLM: chat-completions provider connection
//   - GoogleBooks: Google Books provider connection
//   - API: HTTP bind address and bearer token
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Plex        Plex        `toml:"plex"`
	Matching    Matching    `toml:"matching"`
	Enrichment  Enrichment  `toml:"enrichment"`
	LLM         LLM         `toml:"llm"`
	GoogleBooks GoogleBooks `toml:"google_books"`
	API         API         `toml:"api"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("plexshelf.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "plexshelf.db")
}

// RunLockPath returns the file used to serialize matching runs across processes.
func (c *Config) RunLockPath() string {
	return filepath.Join(c.Paths.DataDir, "matching.lock")
}

// PlexTimeout returns the Plex request timeout.
func (c *Config) PlexTimeout() time.Duration {
	return time.Duration(c.Plex.TimeoutSeconds) * time.Second
}

// EnrichmentTimeout returns the per-lookup timeout.
func (c *Config) EnrichmentTimeout() time.Duration {
	return time.Duration(c.Enrichment.TimeoutSeconds) * time.Second
}

// EnrichmentMinInterval returns the minimum spacing between provider calls.
func (c *Config) EnrichmentMinInterval() time.Duration {
	return time.Duration(c.Enrichment.MinIntervalMillis) * time.Millisecond
}

// RateLimitBackoff returns how long the provider is skipped after a 429.
func (c *Config) RateLimitBackoff() time.Duration {
	return time.Duration(c.Enrichment.RateLimitBackoffSecond) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the resolved chat-completions settings.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the LLM connection settings used by the enrichment provider.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}
