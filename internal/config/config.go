// Package config loads MediaSense configuration.
//
// Values are layered, later layers winning:
//
//  1. built-in defaults
//  2. a YAML file (MEDIASENSE_CONFIG, else config.yaml or config.yml)
//  3. environment variables
//
// A .env file in the working directory is loaded into the environment
// first when present. Well-known variables such as PORT, DATABASE_URL and
// GEMINI_API_KEY map onto their keys; any key can also be set as
// MEDIASENSE_<SECTION>_<KEY>, e.g. MEDIASENSE_INGEST_WORKERS=8.
package config

import (
	"time"
)

// Config is the full application configuration
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Uploads  UploadsConfig  `koanf:"uploads"`
	Embedder EmbedderConfig `koanf:"embedder"`
	Analyzer AnalyzerConfig `koanf:"analyzer"`
	Ingest   IngestConfig   `koanf:"ingest"`
	Search   SearchConfig   `koanf:"search"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// DatabaseConfig selects the storage backend
type DatabaseConfig struct {
	Driver string `koanf:"driver"` // sqlite or postgres
	DSN    string `koanf:"dsn"`    // file path or postgres:// URL
}

// UploadsConfig configures on-disk media storage
type UploadsConfig struct {
	Dir      string `koanf:"dir"`
	MaxBytes int64  `koanf:"max_bytes"`
}

// EmbedderConfig configures the embedding provider
type EmbedderConfig struct {
	Provider     string        `koanf:"provider"` // auto, gemini, openai, local
	GeminiAPIKey string        `koanf:"gemini_api_key"`
	OpenAIAPIKey string        `koanf:"openai_api_key"`
	Model        string        `koanf:"model"`
	BaseURL      string        `koanf:"base_url"`
	Dimension    int           `koanf:"dimension"`
	Timeout      time.Duration `koanf:"timeout"`
	CacheSize    int           `koanf:"cache_size"`
	Breaker      bool          `koanf:"breaker"`
}

// AnalyzerConfig configures media description
type AnalyzerConfig struct {
	Provider string        `koanf:"provider"` // auto, gemini, local
	APIKey   string        `koanf:"api_key"`  // defaults to embedder.gemini_api_key
	Model    string        `koanf:"model"`
	BaseURL  string        `koanf:"base_url"`
	Timeout  time.Duration `koanf:"timeout"`
}

// IngestConfig configures the analysis pipeline
type IngestConfig struct {
	Workers       int           `koanf:"workers"`
	RatePerSecond float64       `koanf:"rate_per_second"`
	Burst         int           `koanf:"burst"`
	Timeout       time.Duration `koanf:"timeout"`
}

// SearchConfig configures the search response cache
type SearchConfig struct {
	CacheSize    int           `koanf:"cache_size"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
	EmbedTimeout time.Duration `koanf:"embed_timeout"`
}

// LoggingConfig configures zerolog
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}
