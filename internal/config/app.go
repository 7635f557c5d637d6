package config

import (
	"fmt"
	"math"
	"time"

	"catchup-feed/internal/querymatch"

	rootconfig "catchup-feed/pkg/config"
)

// LLMConfig selects and credentials the two LLM backends the orchestrator's
// extraction stage routes between.
type LLMConfig struct {
	// PrimaryProvider is "claude" or "ollama".
	PrimaryProvider string
	// FallbackEnabled controls whether a fallback backend is wired into the
	// Router at all. When false, a primary failure is returned directly.
	FallbackEnabled bool
	// FallbackProvider is the provider used when FallbackEnabled is true,
	// and must differ from PrimaryProvider.
	FallbackProvider string

	ClaudeAPIKey  string
	ClaudeModel   string
	OllamaBaseURL string
	OllamaModel   string

	MaxConcurrent int
}

// OrchestratorDefaults carries the environment-tunable defaults that seed
// orchestrator.Config.
type OrchestratorDefaults struct {
	MaxSearchResults      int
	MaxArticlesToProcess  int
	MaxConcurrentArticles int
	HTTPTimeout           time.Duration
	PerArticleTimeout     time.Duration
	ExtractionBudget      time.Duration
	MinRelevanceScore     float64
	Weights               querymatch.Weights
	SessionTTL            time.Duration
	ContentCacheTTL       time.Duration
}

// SocialPlatformConfig is the per-platform credential and routing config for
// one of the five supported social platforms.
type SocialPlatformConfig struct {
	// Mode is "scrapecreators" or "disabled". There is no first-party API
	// integration for any platform, so "native" is not a supported mode.
	Mode         string
	APIKey       string
	BaseURL      string
	EndpointPath string
}

// SocialConfig holds per-platform social content fetch configuration.
type SocialConfig struct {
	YouTube   SocialPlatformConfig
	Twitter   SocialPlatformConfig
	Facebook  SocialPlatformConfig
	Instagram SocialPlatformConfig
	Google    SocialPlatformConfig
}

// DiscoveryConfig carries the source registry path and the Google Custom
// Search credential shared by every api-kind source (each source supplies
// its own search engine id via its request_data.cx field).
type DiscoveryConfig struct {
	SourcesPath  string
	GoogleAPIKey string
}

// ServerConfig holds the HTTP listener's tunables.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration

	// RateLimitEnabled turns on per-IP request rate limiting at the edge of
	// the handler chain. CORS is configured separately, directly from its
	// own CORS_ALLOWED_ORIGINS etc. environment variables, since it is
	// fail-closed and has no sensible always-on default.
	RateLimitEnabled bool
	// RateLimitPerMinute is the maximum number of requests a single client
	// IP may make in a one-minute sliding window.
	RateLimitPerMinute int
}

// AppConfig is the root application configuration, loaded once at process
// startup from the environment.
type AppConfig struct {
	LLM          LLMConfig
	Orchestrator OrchestratorDefaults
	Social       SocialConfig
	Discovery    DiscoveryConfig
	Server       ServerConfig
}

// LoadAppConfig loads AppConfig from the environment, falling back to the
// defaults below for anything unset or unparsable.
func LoadAppConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		LLM: LLMConfig{
			PrimaryProvider:  rootconfig.GetEnvString("LLM_PRIMARY_PROVIDER", "claude"),
			FallbackEnabled:  rootconfig.GetEnvBool("LLM_FALLBACK_ENABLED", true),
			FallbackProvider: rootconfig.GetEnvString("LLM_FALLBACK_PROVIDER", "ollama"),
			ClaudeAPIKey:     rootconfig.GetEnvString("CLAUDE_API_KEY", ""),
			ClaudeModel:      rootconfig.GetEnvString("CLAUDE_MODEL", "claude-3-5-sonnet-latest"),
			OllamaBaseURL:    rootconfig.GetEnvString("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:      rootconfig.GetEnvString("OLLAMA_MODEL", "llama3.1"),
			MaxConcurrent:    rootconfig.GetEnvInt("LLM_MAX_CONCURRENT", 4),
		},
		Orchestrator: OrchestratorDefaults{
			MaxSearchResults:      rootconfig.GetEnvInt("MAX_SEARCH_RESULTS", 20),
			MaxArticlesToProcess:  rootconfig.GetEnvInt("MAX_ARTICLES_TO_PROCESS", 10),
			MaxConcurrentArticles: rootconfig.GetEnvInt("MAX_CONCURRENT_SCRAPES", 4),
			HTTPTimeout:           rootconfig.GetEnvDuration("HTTP_TIMEOUT", 30*time.Second),
			PerArticleTimeout:     rootconfig.GetEnvDuration("PER_ARTICLE_LLM_TIMEOUT", 60*time.Second),
			ExtractionBudget:      rootconfig.GetEnvDuration("EXTRACTION_BUDGET", 300*time.Second),
			MinRelevanceScore:     rootconfig.GetEnvFloat("MIN_RELEVANCE_SCORE", 0.1),
			Weights: querymatch.Weights{
				Text:     rootconfig.GetEnvFloat("WEIGHT_TEXT", 0.4),
				Location: rootconfig.GetEnvFloat("WEIGHT_LOCATION", 0.25),
				Date:     rootconfig.GetEnvFloat("WEIGHT_DATE", 0.2),
				Type:     rootconfig.GetEnvFloat("WEIGHT_TYPE", 0.15),
			},
			SessionTTL:      rootconfig.GetEnvDuration("SESSION_TTL", 24*time.Hour),
			ContentCacheTTL: rootconfig.GetEnvDuration("CONTENT_CACHE_TTL", 6*time.Hour),
		},
		Social: SocialConfig{
			YouTube:   loadSocialPlatform("YOUTUBE"),
			Twitter:   loadSocialPlatform("TWITTER"),
			Facebook:  loadSocialPlatform("FACEBOOK"),
			Instagram: loadSocialPlatform("INSTAGRAM"),
			Google:    loadSocialPlatform("GOOGLE"),
		},
		Discovery: DiscoveryConfig{
			SourcesPath:  rootconfig.GetEnvString("SOURCES_CONFIG_PATH", "sources.yaml"),
			GoogleAPIKey: rootconfig.GetEnvString("GOOGLE_CSE_API_KEY", ""),
		},
		Server: ServerConfig{
			Addr:               rootconfig.GetEnvString("SEARCHD_ADDR", ":8080"),
			ReadTimeout:        rootconfig.GetEnvDuration("SEARCHD_READ_TIMEOUT", 10*time.Second),
			ShutdownTimeout:    rootconfig.GetEnvDuration("SEARCHD_SHUTDOWN_TIMEOUT", 5*time.Second),
			RateLimitEnabled:   rootconfig.GetEnvBool("SEARCHD_RATE_LIMIT_ENABLED", true),
			RateLimitPerMinute: rootconfig.GetEnvInt("SEARCHD_RATE_LIMIT_PER_MINUTE", 100),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid application configuration: %w", err)
	}
	return cfg, nil
}

func loadSocialPlatform(prefix string) SocialPlatformConfig {
	return SocialPlatformConfig{
		Mode:         rootconfig.GetEnvString(prefix+"_SOCIAL_MODE", "disabled"),
		APIKey:       rootconfig.GetEnvString(prefix+"_SCRAPECREATORS_API_KEY", ""),
		BaseURL:      rootconfig.GetEnvString(prefix+"_SCRAPECREATORS_BASE_URL", "https://api.scrapecreators.com"),
		EndpointPath: rootconfig.GetEnvString(prefix+"_SCRAPECREATORS_ENDPOINT", ""),
	}
}

// Validate checks cross-field invariants LoadAppConfig cannot express as
// simple per-key defaults.
func (c *AppConfig) Validate() error {
	switch c.LLM.PrimaryProvider {
	case "claude", "ollama":
	default:
		return fmt.Errorf("LLM_PRIMARY_PROVIDER must be \"claude\" or \"ollama\", got %q", c.LLM.PrimaryProvider)
	}
	if c.LLM.FallbackEnabled {
		switch c.LLM.FallbackProvider {
		case "claude", "ollama":
		default:
			return fmt.Errorf("LLM_FALLBACK_PROVIDER must be \"claude\" or \"ollama\", got %q", c.LLM.FallbackProvider)
		}
		if c.LLM.FallbackProvider == c.LLM.PrimaryProvider {
			return fmt.Errorf("LLM_FALLBACK_PROVIDER must differ from LLM_PRIMARY_PROVIDER")
		}
	}
	if c.LLM.PrimaryProvider == "claude" && c.LLM.ClaudeAPIKey == "" {
		return fmt.Errorf("CLAUDE_API_KEY is required when LLM_PRIMARY_PROVIDER is \"claude\"")
	}
	if c.LLM.MaxConcurrent <= 0 {
		return fmt.Errorf("LLM_MAX_CONCURRENT must be positive")
	}

	o := c.Orchestrator
	if o.MaxSearchResults <= 0 {
		return fmt.Errorf("MAX_SEARCH_RESULTS must be positive")
	}
	if o.MaxArticlesToProcess <= 0 {
		return fmt.Errorf("MAX_ARTICLES_TO_PROCESS must be positive")
	}
	if o.MaxConcurrentArticles <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_SCRAPES must be positive")
	}
	if err := rootconfig.ValidatePositiveDuration(o.HTTPTimeout); err != nil {
		return fmt.Errorf("HTTP_TIMEOUT: %w", err)
	}
	if err := rootconfig.ValidatePositiveDuration(o.PerArticleTimeout); err != nil {
		return fmt.Errorf("PER_ARTICLE_LLM_TIMEOUT: %w", err)
	}
	if err := rootconfig.ValidateNonNegativeDuration(o.ExtractionBudget); err != nil {
		return fmt.Errorf("EXTRACTION_BUDGET: %w", err)
	}
	if o.MinRelevanceScore < 0 || o.MinRelevanceScore > 1 {
		return fmt.Errorf("MIN_RELEVANCE_SCORE must be between 0.0 and 1.0")
	}
	if err := rootconfig.ValidatePositiveDuration(o.SessionTTL); err != nil {
		return fmt.Errorf("SESSION_TTL: %w", err)
	}
	if err := rootconfig.ValidatePositiveDuration(o.ContentCacheTTL); err != nil {
		return fmt.Errorf("CONTENT_CACHE_TTL: %w", err)
	}

	sum := o.Weights.Text + o.Weights.Location + o.Weights.Date + o.Weights.Type
	if math.Abs(sum-1.0) > 0.01 {
		return fmt.Errorf("relevance weights must sum to 1.0, got %.3f", sum)
	}

	for name, p := range map[string]SocialPlatformConfig{
		"YOUTUBE": c.Social.YouTube, "TWITTER": c.Social.Twitter, "FACEBOOK": c.Social.Facebook,
		"INSTAGRAM": c.Social.Instagram, "GOOGLE": c.Social.Google,
	} {
		switch p.Mode {
		case "disabled", "scrapecreators":
		default:
			return fmt.Errorf("%s_SOCIAL_MODE must be \"disabled\" or \"scrapecreators\", got %q", name, p.Mode)
		}
		if p.Mode == "scrapecreators" && p.APIKey == "" {
			return fmt.Errorf("%s_SCRAPECREATORS_API_KEY is required when %s_SOCIAL_MODE is \"scrapecreators\"", name, name)
		}
	}

	if c.Discovery.SourcesPath == "" {
		return fmt.Errorf("SOURCES_CONFIG_PATH must not be empty")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("SEARCHD_ADDR must not be empty")
	}
	if err := rootconfig.ValidatePositiveDuration(c.Server.ReadTimeout); err != nil {
		return fmt.Errorf("SEARCHD_READ_TIMEOUT: %w", err)
	}
	if err := rootconfig.ValidatePositiveDuration(c.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("SEARCHD_SHUTDOWN_TIMEOUT: %w", err)
	}
	if c.Server.RateLimitEnabled && c.Server.RateLimitPerMinute <= 0 {
		return fmt.Errorf("SEARCHD_RATE_LIMIT_PER_MINUTE must be positive when rate limiting is enabled")
	}

	return nil
}
