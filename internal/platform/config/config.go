// Package config loads application configuration from environment variables.
// All variables use the KOULUTUS_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	AI         AIConfig
	Generation GenerationConfig
	Log        LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL keeps
// content and credits in memory.
type DatabaseConfig struct {
	URL         string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// CacheConfig holds Redis connection settings. An empty URL disables the
// content cache.
type CacheConfig struct {
	URL        string
	ContentTTL int // seconds
}

// ContentTTLDuration returns ContentTTL as a time.Duration.
func (c CacheConfig) ContentTTLDuration() time.Duration {
	return time.Duration(c.ContentTTL) * time.Second
}

// AIConfig holds configuration for all AI providers.
type AIConfig struct {
	Anthropic    APIKeyConfig
	OpenAI       APIKeyConfig
	Groq         APIKeyConfig
	OpenRouter   APIKeyConfig
	Ollama       OllamaConfig
	DefaultModel string // "provider/model"
	Temperature  float64
}

// APIKeyConfig holds settings for providers that only need a key.
type APIKeyConfig struct {
	APIKey string
}

// OllamaConfig holds self-hosted Ollama settings.
type OllamaConfig struct {
	Enabled bool
	URL     string
}

// GenerationConfig holds content generation settings.
type GenerationConfig struct {
	Timeout         int // seconds
	MaxTokens       int
	StartingCredits int // balance of a user seen for the first time
}

// TimeoutDuration returns Timeout as a time.Duration.
func (g GenerationConfig) TimeoutDuration() time.Duration {
	return time.Duration(g.Timeout) * time.Second
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with KOULUTUS_ prefix.
func Load() (*Config, error) {
	temperature, err := envFloat("KOULUTUS_AI_TEMPERATURE", 0.7)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("KOULUTUS_SERVER_PORT", 8080),
			Host: envStr("KOULUTUS_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:         envStr("KOULUTUS_DATABASE_URL", ""),
			MaxConns:    envInt("KOULUTUS_DATABASE_MAX_CONNS", 25),
			MinConns:    envInt("KOULUTUS_DATABASE_MIN_CONNS", 5),
			AutoMigrate: envBool("KOULUTUS_DATABASE_AUTO_MIGRATE", true),
		},
		Cache: CacheConfig{
			URL:        envStr("KOULUTUS_CACHE_URL", ""),
			ContentTTL: envInt("KOULUTUS_CACHE_CONTENT_TTL", 600),
		},
		AI: AIConfig{
			Anthropic: APIKeyConfig{
				APIKey: envStr("KOULUTUS_AI_ANTHROPIC_API_KEY", ""),
			},
			OpenAI: APIKeyConfig{
				APIKey: envStr("KOULUTUS_AI_OPENAI_API_KEY", ""),
			},
			Groq: APIKeyConfig{
				APIKey: envStr("KOULUTUS_AI_GROQ_API_KEY", ""),
			},
			OpenRouter: APIKeyConfig{
				APIKey: envStr("KOULUTUS_AI_OPENROUTER_API_KEY", ""),
			},
			Ollama: OllamaConfig{
				Enabled: envBool("KOULUTUS_AI_OLLAMA_ENABLED", false),
				URL:     envStr("KOULUTUS_AI_OLLAMA_URL", "http://localhost:11434"),
			},
			DefaultModel: envStr("KOULUTUS_AI_DEFAULT_MODEL", "anthropic/claude-sonnet-4-6"),
			Temperature:  temperature,
		},
		Generation: GenerationConfig{
			Timeout:         envInt("KOULUTUS_GENERATION_TIMEOUT", 180),
			MaxTokens:       envInt("KOULUTUS_GENERATION_MAX_TOKENS", 8192),
			StartingCredits: envInt("KOULUTUS_GENERATION_STARTING_CREDITS", 20),
		},
		Log: LogConfig{
			Level:  envStr("KOULUTUS_LOG_LEVEL", "info"),
			Format: envStr("KOULUTUS_LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if !c.HasAIProvider() {
		return fmt.Errorf("at least one AI provider must be configured")
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("KOULUTUS_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("KOULUTUS_LOG_LEVEL must be debug, info, warn or error, got %q", c.Log.Level)
	}

	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("KOULUTUS_AI_TEMPERATURE must be between 0 and 2, got %v", c.AI.Temperature)
	}

	if c.Generation.StartingCredits < 0 {
		return fmt.Errorf("KOULUTUS_GENERATION_STARTING_CREDITS must not be negative")
	}

	return nil
}

// HasAIProvider returns true if at least one AI provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.AI.Anthropic.APIKey != "" ||
		c.AI.OpenAI.APIKey != "" ||
		c.AI.Groq.APIKey != "" ||
		c.AI.OpenRouter.APIKey != "" ||
		c.AI.Ollama.Enabled
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// envFloat rejects unparsable values, since a silently ignored sampling
// setting is hard to notice.
func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}
