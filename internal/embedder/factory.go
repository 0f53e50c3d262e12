package embedder

import (
	"fmt"
	"strings"
	"time"
)

// Environment variables consulted when no API key is configured explicitly
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// Config holds embedder configuration
type Config struct {
	// Provider is gemini, openai, local, or auto ("" means auto)
	Provider string

	// GeminiAPIKey and OpenAIAPIKey select the key for each remote provider
	GeminiAPIKey string
	OpenAIAPIKey string

	Model     string
	BaseURL   string
	Dimension int
	Timeout   time.Duration
	CacheSize int

	// Breaker wraps the provider in a circuit breaker when set
	Breaker *BreakerConfig
}

// DetectProvider resolves "auto" to a concrete provider: Gemini when its key
// is present, then OpenAI, otherwise local
func DetectProvider(cfg Config) string {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider != "" && provider != ProviderAuto {
		return provider
	}

	if cfg.GeminiAPIKey != "" {
		return ProviderGemini
	}
	if cfg.OpenAIAPIKey != "" {
		return ProviderOpenAI
	}
	return ProviderLocal
}

// New creates an embedder with explicit configuration
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	opts := []Option{
		WithModel(cfg.Model),
		WithBaseURL(cfg.BaseURL),
		WithDimension(cfg.Dimension),
		WithTimeout(cfg.Timeout),
	}

	var (
		emb Embedder
		err error
	)
	switch provider := DetectProvider(cfg); provider {
	case ProviderGemini:
		emb, err = NewGeminiProvider(cfg.GeminiAPIKey, cache, opts...)
	case ProviderOpenAI:
		emb, err = NewOpenAIProvider(cfg.OpenAIAPIKey, cache, opts...)
	case ProviderLocal:
		emb, err = NewLocalProvider(cache, cfg.Dimension)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Breaker != nil {
		emb = NewBreaker(emb, *cfg.Breaker)
	}
	return emb, nil
}
