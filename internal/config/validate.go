package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateEnrichment(); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"plex.timeout_seconds":       c.Plex.TimeoutSeconds,
		"enrichment.concurrency":     c.Enrichment.Concurrency,
		"enrichment.timeout_seconds": c.Enrichment.TimeoutSeconds,
		"llm.timeout_seconds":        c.LLM.TimeoutSeconds,
	}); err != nil {
		return err
	}
	return nil
}

// ValidatePlex reports whether Plex access is configured. Only the commands
// that talk to Plex call it, so matching and review work offline.
func (c *Config) ValidatePlex() error {
	if strings.TrimSpace(c.Plex.URL) == "" {
		return errors.New("plex.url must be set")
	}
	if strings.TrimSpace(c.Plex.Token) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("plex.token is required. Set PLEX_TOKEN env var or edit %s (create with 'plexshelf config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateMatching() error {
	m := c.Matching
	if err := ensurePercentMap(map[string]int{
		"matching.confidence_threshold":   m.ConfidenceThreshold,
		"matching.auto_approve_threshold": m.AutoApproveThreshold,
		"matching.fuzzy_threshold":        m.FuzzyThreshold,
		"matching.author_threshold":       m.AuthorThreshold,
		"matching.series_merge_threshold": m.SeriesMergeThreshold,
	}); err != nil {
		return err
	}
	if m.AutoApproveThreshold < m.ConfidenceThreshold {
		return errors.New("matching.auto_approve_threshold must be >= matching.confidence_threshold")
	}
	switch m.SupersedePolicy {
	case SupersedeReplace, SupersedeReject:
	default:
		return fmt.Errorf("matching.supersede_policy must be %q or %q", SupersedeReplace, SupersedeReject)
	}
	return nil
}

func (c *Config) validateEnrichment() error {
	e := c.Enrichment
	if e.DefaultConfidence > 100 {
		return errors.New("enrichment.default_confidence must be between 0 and 100")
	}
	switch e.Provider {
	case ProviderLLM, ProviderGoogleBooks:
	default:
		return fmt.Errorf("enrichment.provider must be %q or %q", ProviderLLM, ProviderGoogleBooks)
	}
	if e.Enabled && e.Provider == ProviderLLM && strings.TrimSpace(c.LLM.APIKey) == "" {
		return errors.New("llm.api_key must be set when enrichment uses the llm provider (or set OPENROUTER_API_KEY)")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func ensurePercentMap(values map[string]int) error {
	for key, value := range values {
		if value < 0 || value > 100 {
			return fmt.Errorf("%s must be between 0 and 100", key)
		}
	}
	return nil
}
