package cli

import (
	"os"

	"github.com/ppiankov/veridex/internal/cache"
	"github.com/ppiankov/veridex/internal/extract"
	"github.com/ppiankov/veridex/internal/model"
	"github.com/ppiankov/veridex/internal/pipeline"
	"github.com/ppiankov/veridex/internal/respond"
	"github.com/ppiankov/veridex/internal/search"
	"github.com/ppiankov/veridex/internal/source"
	"github.com/ppiankov/veridex/internal/verify"
	"github.com/ppiankov/veridex/internal/worker"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// loadConfig builds the runtime configuration from defaults, the config
// file, and environment variables. Flags layer on top in each command.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	if v := viper.GetString("sources.twitter_bearer_token"); v != "" {
		cfg.Sources.TwitterBearerToken = v
	}
	if v := viper.GetString("sources.news_api_key"); v != "" {
		cfg.Sources.NewsAPIKey = v
	}
	if v := viper.GetString("sources.bluesky_base_url"); v != "" {
		cfg.Sources.BlueskyBaseURL = v
	}
	if v := viper.GetString("sources.news_base_url"); v != "" {
		cfg.Sources.NewsBaseURL = v
	}
	if v := viper.GetString("sources.gov_base_url"); v != "" {
		cfg.Sources.GovBaseURL = v
	}
	if v := viper.GetString("llm.model"); v != "" {
		cfg.LLM.Model = v
	}
	if v := viper.GetString("llm.api_key"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := viper.GetString("llm.base_url"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := viper.GetString("cache.dir"); v != "" {
		cfg.Cache.Dir = v
	}

	// Credentials usually arrive via the environment rather than the file.
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Sources.TwitterBearerToken == "" {
		cfg.Sources.TwitterBearerToken = os.Getenv("TWITTER_BEARER_TOKEN")
	}
	if cfg.Sources.NewsAPIKey == "" {
		cfg.Sources.NewsAPIKey = os.Getenv("NEWS_API_KEY")
	}

	cfg.Output.Verbose = verbose
	return cfg
}

// buildSearchers wires the per-source search capabilities that the current
// configuration can actually serve. Sources whose credentials are missing are
// left out of the map; the verifier logs and skips them.
func buildSearchers(cfg *model.Config, logger *zap.Logger) map[string]search.Searcher {
	limiter := worker.NewLimiter(cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.Burst)

	searchers := make(map[string]search.Searcher)
	if cfg.Sources.TwitterBearerToken != "" {
		register(searchers, search.NewTwitterSearcher(cfg.HTTP, cfg.Sources.TwitterBearerToken, limiter, logger))
	}
	register(searchers, search.NewBlueskySearcher(cfg.HTTP, cfg.Sources.BlueskyBaseURL, limiter, logger))
	if cfg.Sources.NewsAPIKey != "" {
		register(searchers, search.NewNewsSearcher(cfg.HTTP, cfg.Sources.NewsBaseURL, cfg.Sources.NewsAPIKey, limiter, logger))
	}
	register(searchers, search.NewGovernmentSearcher(cfg.HTTP, cfg.Sources.GovBaseURL, limiter, logger))
	return searchers
}

// register keys a searcher by its own declared source identifier so the
// capability map can never drift from result attribution.
func register(m map[string]search.Searcher, s search.Searcher) {
	m[s.SourceID()] = s
}

// buildPipeline assembles the full fact-check pipeline from configuration.
func buildPipeline(cfg *model.Config, logger *zap.Logger) (*pipeline.Pipeline, error) {
	extractor, err := extract.NewLLMExtractor(cfg.LLM, logger)
	if err != nil {
		return nil, err
	}

	var assembler respond.Assembler
	if llmAssembler, err := respond.NewLLMAssembler(cfg.LLM, logger); err == nil {
		assembler = llmAssembler
	} else {
		assembler = respond.NewTemplateAssembler(logger)
	}

	registry := source.Default()
	verifier := verify.NewVerifier(registry, buildSearchers(cfg, logger), nil, nil, logger)

	var store cache.Cache
	if cfg.Cache.Enabled {
		store = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	return pipeline.New(extractor, extract.NewMergeCombiner(), verifier, assembler, store, cfg, logger), nil
}
