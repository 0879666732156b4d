// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// RedisConfig provides Redis connection settings for the price cache.
type RedisConfig interface {
	GetRedisURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// ProviderConfig provides settings for the price estimation provider.
type ProviderConfig interface {
	GetProviderBackend() string
	GetProviderModel() string
	GetGeminiAPIKey() string
	GetMoonshotAPIKey() string
}

// ValuationConfig provides settings for the valuation pipeline.
type ValuationConfig interface {
	GetValuationStrategy() string
	GetPriceCacheTTLDays() int
}

// Supported provider backends.
const (
	BackendGemini   = "gemini"
	BackendMoonshot = "moonshot"
)

// Supported extraction strategies.
const (
	StrategyStrict      = "strict"
	StrategyMultiSource = "multisource"
	StrategyFreeText    = "freetext"
)

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env               string
	HTTPAddr          string
	DatabaseURL       string
	RedisURL          string
	CORSAllowAll      bool
	CORSOrigins       []string
	CORSAllowCreds    bool
	ProviderBackend   string
	ProviderModel     string
	GeminiAPIKey      string
	MoonshotAPIKey    string
	ValuationStrategy string
	PriceCacheTTLDays int
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// RedisConfig implementation
func (c *Config) GetRedisURL() string { return c.RedisURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// ProviderConfig implementation
func (c *Config) GetProviderBackend() string { return c.ProviderBackend }
func (c *Config) GetProviderModel() string   { return c.ProviderModel }
func (c *Config) GetGeminiAPIKey() string    { return c.GeminiAPIKey }
func (c *Config) GetMoonshotAPIKey() string  { return c.MoonshotAPIKey }

// ValuationConfig implementation
func (c *Config) GetValuationStrategy() string { return c.ValuationStrategy }
func (c *Config) GetPriceCacheTTLDays() int    { return c.PriceCacheTTLDays }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	backend := strings.ToLower(getEnv("PROVIDER_BACKEND", BackendGemini))

	model := getEnv("PROVIDER_MODEL", "")
	if model == "" {
		switch backend {
		case BackendMoonshot:
			model = "kimi-k2-turbo-preview"
		default:
			model = "gemini-2.0-flash"
		}
	}

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		CORSAllowAll:      corsAllowAll,
		CORSOrigins:       corsOrigins,
		CORSAllowCreds:    strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		ProviderBackend:   backend,
		ProviderModel:     model,
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		MoonshotAPIKey:    getEnv("MOONSHOT_API_KEY", ""),
		ValuationStrategy: strings.ToLower(getEnv("VALUATION_STRATEGY", StrategyMultiSource)),
		PriceCacheTTLDays: mustInt(getEnv("PRICE_CACHE_TTL_DAYS", "90")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	switch cfg.ProviderBackend {
	case BackendGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when PROVIDER_BACKEND is gemini")
		}
	case BackendMoonshot:
		if cfg.MoonshotAPIKey == "" {
			return nil, fmt.Errorf("MOONSHOT_API_KEY is required when PROVIDER_BACKEND is moonshot")
		}
	default:
		return nil, fmt.Errorf("unknown PROVIDER_BACKEND %q", cfg.ProviderBackend)
	}
	switch cfg.ValuationStrategy {
	case StrategyStrict, StrategyMultiSource, StrategyFreeText:
	default:
		return nil, fmt.Errorf("unknown VALUATION_STRATEGY %q", cfg.ValuationStrategy)
	}
	if cfg.PriceCacheTTLDays < 0 {
		return nil, fmt.Errorf("PRICE_CACHE_TTL_DAYS cannot be negative")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
