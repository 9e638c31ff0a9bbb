package config

const (
	defaultConfigPath            = "~/.config/plexshelf/config.toml"
	defaultDataDir               = "~/.local/share/plexshelf"
	defaultLogDir                = "~/.local/share/plexshelf/logs"
	defaultPlexURL               = "http://127.0.0.1:32400"
	defaultPlexLibraryName       = "Audiobooks"
	defaultPlexTimeoutSeconds    = 30
	defaultConfidenceThreshold   = 70
	defaultAutoApproveThreshold  = 95
	defaultFuzzyThreshold        = 70
	defaultAuthorThreshold       = 80
	defaultSeriesMergeThreshold  = 90
	defaultEnrichmentProvider    = ProviderLLM
	defaultEnrichmentConcurrency = 4
	defaultEnrichmentTimeout     = 20
	defaultEnrichmentMinInterval = 2000
	defaultRateLimitBackoff      = 60
	defaultEnrichmentConfidence  = 80
	defaultLLMBaseURL            = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel              = "openai/gpt-4o-mini"
	defaultLLMReferer            = "https://github.com/plexshelf/plexshelf"
	defaultLLMTitle              = "PlexShelf Series Lookup"
	defaultLLMTimeoutSeconds     = 30
	defaultGoogleBooksBaseURL    = "https://www.googleapis.com/books/v1"
	defaultAPIBind               = "127.0.0.1:7490"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Enrichment provider identifiers.
const (
	ProviderLLM         = "llm"
	ProviderGoogleBooks = "google_books"
)

// Supersede policies applied when a second match is approved for an item.
const (
	SupersedeReplace = "supersede"
	SupersedeReject  = "reject"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Plex: Plex{
			URL:            defaultPlexURL,
			LibraryName:    defaultPlexLibraryName,
			TimeoutSeconds: defaultPlexTimeoutSeconds,
		},
		Matching: Matching{
			ConfidenceThreshold:  defaultConfidenceThreshold,
			AutoApproveThreshold: defaultAutoApproveThreshold,
			FuzzyEnabled:         true,
			FuzzyThreshold:       defaultFuzzyThreshold,
			AuthorThreshold:      defaultAuthorThreshold,
			SeriesMergeThreshold: defaultSeriesMergeThreshold,
			SupersedePolicy:      SupersedeReplace,
		},
		Enrichment: Enrichment{
			Enabled:                false,
			Provider:               defaultEnrichmentProvider,
			Concurrency:            defaultEnrichmentConcurrency,
			TimeoutSeconds:         defaultEnrichmentTimeout,
			MinIntervalMillis:      defaultEnrichmentMinInterval,
			RateLimitBackoffSecond: defaultRateLimitBackoff,
			DefaultConfidence:      defaultEnrichmentConfidence,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		GoogleBooks: GoogleBooks{
			BaseURL: defaultGoogleBooksBaseURL,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
