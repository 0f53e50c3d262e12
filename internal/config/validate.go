package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	validDrivers           = []string{"sqlite", "postgres"}
	validEmbedderProviders = []string{"auto", "gemini", "openai", "local"}
	validAnalyzerProviders = []string{"auto", "gemini", "local"}
	validLogFormats        = []string{"json", "console"}
)

// Validate checks the configuration and reports every problem at once
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if !slices.Contains(validDrivers, strings.ToLower(c.Database.Driver)) {
		errs = append(errs, fmt.Errorf("database.driver must be one of %v, got %q", validDrivers, c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}

	if c.Uploads.Dir == "" {
		errs = append(errs, errors.New("uploads.dir is required"))
	}
	if c.Uploads.MaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("uploads.max_bytes must be positive, got %d", c.Uploads.MaxBytes))
	}

	provider := strings.ToLower(c.Embedder.Provider)
	switch {
	case !slices.Contains(validEmbedderProviders, provider):
		errs = append(errs, fmt.Errorf("embedder.provider must be one of %v, got %q", validEmbedderProviders, c.Embedder.Provider))
	case provider == "gemini" && c.Embedder.GeminiAPIKey == "":
		errs = append(errs, errors.New("embedder.gemini_api_key is required for the gemini provider"))
	case provider == "openai" && c.Embedder.OpenAIAPIKey == "":
		errs = append(errs, errors.New("embedder.openai_api_key is required for the openai provider"))
	}
	if c.Embedder.Dimension < 0 {
		errs = append(errs, fmt.Errorf("embedder.dimension cannot be negative, got %d", c.Embedder.Dimension))
	}

	provider = strings.ToLower(c.Analyzer.Provider)
	switch {
	case !slices.Contains(validAnalyzerProviders, provider):
		errs = append(errs, fmt.Errorf("analyzer.provider must be one of %v, got %q", validAnalyzerProviders, c.Analyzer.Provider))
	case provider == "gemini" && c.Analyzer.APIKey == "":
		errs = append(errs, errors.New("analyzer.api_key is required for the gemini provider"))
	}

	if c.Ingest.Workers < 1 {
		errs = append(errs, fmt.Errorf("ingest.workers must be at least 1, got %d", c.Ingest.Workers))
	}
	if c.Ingest.RatePerSecond < 0 {
		errs = append(errs, fmt.Errorf("ingest.rate_per_second cannot be negative, got %v", c.Ingest.RatePerSecond))
	}

	if c.Search.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("search.cache_size cannot be negative, got %d", c.Search.CacheSize))
	}

	if !slices.Contains(validLogFormats, strings.ToLower(c.Logging.Format)) {
		errs = append(errs, fmt.Errorf("logging.format must be one of %v, got %q", validLogFormats, c.Logging.Format))
	}

	return errors.Join(errs...)
}
