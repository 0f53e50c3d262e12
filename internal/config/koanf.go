package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file path
const ConfigPathEnvVar = "MEDIASENSE_CONFIG"

// envPrefix marks MEDIASENSE_<SECTION>_<KEY> variables
const envPrefix = "mediasense_"

// DefaultConfigPaths are searched in order when ConfigPathEnvVar is unset
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

// envMappings maps well-known variables onto config keys
var envMappings = map[string]string{
	"port":           "server.port",
	"host":           "server.host",
	"cors_origins":   "server.cors_origins",
	"database_url":   "database.dsn",
	"db_driver":      "database.driver",
	"upload_dir":     "uploads.dir",
	"gemini_api_key": "embedder.gemini_api_key",
	"openai_api_key": "embedder.openai_api_key",
	"log_level":      "logging.level",
	"log_format":     "logging.format",
}

// sliceConfigPaths are split on commas when set from the environment
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute, // uploads analyze synchronously
			ShutdownTimeout: 15 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "data/mediasense.db",
		},
		Uploads: UploadsConfig{
			Dir:      "uploads",
			MaxBytes: 100 << 20,
		},
		Embedder: EmbedderConfig{
			Provider:  "auto",
			Timeout:   30 * time.Second,
			CacheSize: 10000,
			Breaker:   true,
		},
		Analyzer: AnalyzerConfig{
			Provider: "auto",
			Timeout:  2 * time.Minute,
		},
		Ingest: IngestConfig{
			Workers:       4,
			RatePerSecond: 2,
			Burst:         4,
			Timeout:       5 * time.Minute,
		},
		Search: SearchConfig{
			CacheSize:    1000,
			CacheTTL:     time.Minute,
			EmbedTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Default returns the built-in configuration
func Default() *Config {
	return defaultConfig()
}

// Load reads configuration from defaults, the config file and the
// environment, then validates it
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file; "" skips the file layer
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// applyDerived fills values that default to other values
func (c *Config) applyDerived() {
	if c.Analyzer.APIKey == "" {
		c.Analyzer.APIKey = c.Embedder.GeminiAPIKey
	}
	if strings.HasPrefix(c.Database.DSN, "postgres://") || strings.HasPrefix(c.Database.DSN, "postgresql://") {
		c.Database.Driver = "postgres"
	}
}

// findConfigFile returns the first config file that exists, or ""
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps an environment variable name to a config key, or
// "" to ignore it
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// MEDIASENSE_SECTION_KEY -> section.key
	if rest, ok := strings.CutPrefix(key, envPrefix); ok {
		section, name, found := strings.Cut(rest, "_")
		if !found || section == "" || name == "" {
			return ""
		}
		return section + "." + name
	}

	return ""
}

// processSliceFields converts comma-separated strings into slices
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
