package analyzer

import (
	"fmt"
	"strings"
	"time"
)

// Config selects and configures an analyzer
type Config struct {
	// Provider is gemini, local, or auto ("" means auto)
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// New creates an analyzer. Auto picks Gemini when an API key is present.
func New(cfg Config) (Analyzer, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" || provider == "auto" {
		provider = ProviderLocal
		if cfg.APIKey != "" {
			provider = ProviderGemini
		}
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiAnalyzer(cfg.APIKey,
			WithModel(cfg.Model),
			WithBaseURL(cfg.BaseURL),
			WithTimeout(cfg.Timeout),
		)
	case ProviderLocal:
		return NewLocalAnalyzer(), nil
	default:
		return nil, fmt.Errorf("unknown analyzer provider %q", cfg.Provider)
	}
}
