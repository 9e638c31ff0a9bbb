package enrichment

import (
	"fmt"
	"log/slog"

	"plexshelf/internal/config"
	"plexshelf/internal/seriesmatch"
	"plexshelf/internal/services"
	"plexshelf/internal/services/llm"
)

// New assembles the configured provider stack: provider, then throttle, then
// cache, so cached answers skip the pacing delay. It returns nil when
// enrichment is disabled.
func New(cfg *config.Config, logger *slog.Logger) (seriesmatch.Lookup, error) {
	if cfg == nil || !cfg.Enrichment.Enabled {
		return nil, nil
	}
	provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	throttled := NewThrottled(provider, cfg.EnrichmentMinInterval(), cfg.RateLimitBackoff())
	return AsLookup(NewCached(throttled), logger), nil
}

func newProvider(cfg *config.Config) (Provider, error) {
	switch cfg.Enrichment.Provider {
	case config.ProviderLLM:
		settings := cfg.GetLLM()
		client := llm.NewClient(llm.Config{
			APIKey:         settings.APIKey,
			BaseURL:        settings.BaseURL,
			Model:          settings.Model,
			Referer:        settings.Referer,
			Title:          settings.Title,
			TimeoutSeconds: settings.TimeoutSeconds,
		}, llm.WithRetryMaxAttempts(2))
		return NewLLMProvider(client, cfg.Enrichment.DefaultConfidence), nil
	case config.ProviderGoogleBooks:
		return NewGoogleBooksProvider(cfg.GoogleBooks.BaseURL, cfg.GoogleBooks.APIKey, cfg.EnrichmentTimeout()), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "enrichment", "new provider",
			fmt.Sprintf("unknown provider %q", cfg.Enrichment.Provider), nil)
	}
}
