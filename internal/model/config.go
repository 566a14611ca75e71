package model

import "time"

// Config is the complete runtime configuration
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Sources     SourcesConfig     `yaml:"sources"`
	LLM         LLMConfig         `yaml:"llm"`
	Output      OutputConfig      `yaml:"output"`
}

// HTTPConfig configures outbound HTTP behavior for searchers
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty"`
	NoProxy      string        `yaml:"no_proxy,omitempty"`
}

// CacheConfig configures the response cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// ConcurrencyConfig configures worker counts and per-source rate limits
type ConcurrencyConfig struct {
	ClaimWorkers      int     `yaml:"claim_workers"`       // Claims verified in parallel per request
	BatchWorkers      int     `yaml:"batch_workers"`       // Requests processed in parallel in batch mode
	RequestsPerSecond float64 `yaml:"requests_per_second"` // Per-source-domain search rate
	Burst             int     `yaml:"burst"`
}

// SourcesConfig configures per-source API access
type SourcesConfig struct {
	TwitterBearerToken string `yaml:"twitter_bearer_token,omitempty"`
	BlueskyBaseURL     string `yaml:"bluesky_base_url"`
	NewsAPIKey         string `yaml:"news_api_key,omitempty"`
	NewsBaseURL        string `yaml:"news_base_url"`
	GovBaseURL         string `yaml:"gov_base_url"`
}

// LLMConfig configures the extraction and response-assembly collaborators
type LLMConfig struct {
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key,omitempty"`
	BaseURL   string        `yaml:"base_url,omitempty"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxTokens int           `yaml:"max_tokens"`
}

// OutputConfig configures CLI output
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Veridex/0.1 (+https://github.com/ppiankov/veridex)",
			MaxBodyBytes: 2_000_000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".veridex-cache",
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			ClaimWorkers:      4,
			BatchWorkers:      4,
			RequestsPerSecond: 2,
			Burst:             5,
		},
		Sources: SourcesConfig{
			BlueskyBaseURL: "https://public.api.bsky.app",
			NewsBaseURL:    "https://newsapi.org",
			GovBaseURL:     "https://www.usa.gov",
		},
		LLM: LLMConfig{
			Model:     "gpt-4o-mini",
			Timeout:   30 * time.Second,
			MaxTokens: 800,
		},
	}
}
