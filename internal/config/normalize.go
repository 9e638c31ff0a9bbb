package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePlex()
	c.normalizeMatching()
	c.normalizeEnrichment()
	c.normalizeLLM()
	c.normalizeGoogleBooks()
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePlex() {
	c.Plex.URL = strings.TrimRight(strings.TrimSpace(c.Plex.URL), "/")
	if c.Plex.URL == "" {
		if value, ok := os.LookupEnv("PLEX_URL"); ok {
			c.Plex.URL = strings.TrimRight(strings.TrimSpace(value), "/")
		}
	}
	if c.Plex.URL == "" {
		c.Plex.URL = defaultPlexURL
	}
	c.Plex.Token = strings.TrimSpace(c.Plex.Token)
	if c.Plex.Token == "" {
		if value, ok := os.LookupEnv("PLEX_TOKEN"); ok {
			c.Plex.Token = strings.TrimSpace(value)
		}
	}
	c.Plex.LibraryName = strings.TrimSpace(c.Plex.LibraryName)
	if c.Plex.LibraryName == "" {
		c.Plex.LibraryName = defaultPlexLibraryName
	}
	if c.Plex.TimeoutSeconds <= 0 {
		c.Plex.TimeoutSeconds = defaultPlexTimeoutSeconds
	}
}

func (c *Config) normalizeMatching() {
	c.Matching.SupersedePolicy = strings.ToLower(strings.TrimSpace(c.Matching.SupersedePolicy))
	if c.Matching.SupersedePolicy == "" {
		c.Matching.SupersedePolicy = SupersedeReplace
	}
	if c.Matching.AuthorThreshold == 0 {
		c.Matching.AuthorThreshold = defaultAuthorThreshold
	}
	if c.Matching.SeriesMergeThreshold == 0 {
		c.Matching.SeriesMergeThreshold = defaultSeriesMergeThreshold
	}
}

func (c *Config) normalizeEnrichment() {
	c.Enrichment.Provider = strings.ToLower(strings.TrimSpace(c.Enrichment.Provider))
	switch c.Enrichment.Provider {
	case "":
		c.Enrichment.Provider = defaultEnrichmentProvider
	case "openai", "openrouter":
		c.Enrichment.Provider = ProviderLLM
	case "googlebooks", "google-books":
		c.Enrichment.Provider = ProviderGoogleBooks
	}
	if c.Enrichment.Concurrency <= 0 {
		c.Enrichment.Concurrency = defaultEnrichmentConcurrency
	}
	if c.Enrichment.TimeoutSeconds <= 0 {
		c.Enrichment.TimeoutSeconds = defaultEnrichmentTimeout
	}
	if c.Enrichment.MinIntervalMillis < 0 {
		c.Enrichment.MinIntervalMillis = 0
	}
	if c.Enrichment.RateLimitBackoffSecond <= 0 {
		c.Enrichment.RateLimitBackoffSecond = defaultRateLimitBackoff
	}
	if c.Enrichment.DefaultConfidence <= 0 {
		c.Enrichment.DefaultConfidence = defaultEnrichmentConfidence
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeGoogleBooks() {
	c.GoogleBooks.BaseURL = strings.TrimRight(strings.TrimSpace(c.GoogleBooks.BaseURL), "/")
	if c.GoogleBooks.BaseURL == "" {
		c.GoogleBooks.BaseURL = defaultGoogleBooksBaseURL
	}
	c.GoogleBooks.APIKey = strings.TrimSpace(c.GoogleBooks.APIKey)
	if c.GoogleBooks.APIKey == "" {
		if value, ok := os.LookupEnv("GOOGLE_BOOKS_API_KEY"); ok {
			c.GoogleBooks.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("PLEXSHELF_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
