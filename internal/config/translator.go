package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Translator backend identifiers accepted by TRANSLATOR_TYPE.
const (
	TranslatorMyMemory = "mymemory"
	TranslatorClaude   = "claude"
	TranslatorOpenAI   = "openai"
)

// TranslatorConfig selects and configures the translation backend.
type TranslatorConfig struct {
	// Type is one of mymemory, claude or openai. Default: mymemory
	Type string

	// Timeout bounds one translation request. Default: 20s
	Timeout time.Duration

	MyMemory MyMemoryConfig
	Claude   LLMConfig
	OpenAI   LLMConfig
}

// MyMemoryConfig configures the free MyMemory translation API.
type MyMemoryConfig struct {
	// BaseURL. Default: https://api.mymemory.translated.net
	BaseURL string
	// Email raises the anonymous daily quota when set.
	Email string
}

// LLMConfig configures a prompt-driven translation backend.
type LLMConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// LoadTranslatorConfig loads translator configuration from environment variables.
// Returns a config with defaults if environment variables are not set.
func LoadTranslatorConfig() (*TranslatorConfig, error) {
	config := &TranslatorConfig{
		Type:    strings.ToLower(getEnvOrDefault("TRANSLATOR_TYPE", TranslatorMyMemory)),
		Timeout: getEnvDuration("TRANSLATOR_TIMEOUT", 20*time.Second),
		MyMemory: MyMemoryConfig{
			BaseURL: getEnvOrDefault("MYMEMORY_BASE_URL", "https://api.mymemory.translated.net"),
			Email:   os.Getenv("MYMEMORY_EMAIL"),
		},
		Claude: LLMConfig{
			APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
			Model:     getEnvOrDefault("CLAUDE_MODEL", "claude-sonnet-4-5-20250929"),
			MaxTokens: getEnvInt("TRANSLATOR_MAX_TOKENS", 1024),
		},
		OpenAI: LLMConfig{
			APIKey:    os.Getenv("OPENAI_API_KEY"),
			Model:     getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
			MaxTokens: getEnvInt("TRANSLATOR_MAX_TOKENS", 1024),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid translator configuration: %w", err)
	}

	return config, nil
}

// Validate checks configuration correctness.
func (c *TranslatorConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("TRANSLATOR_TIMEOUT must be positive")
	}

	switch c.Type {
	case TranslatorMyMemory:
		if c.MyMemory.BaseURL == "" {
			return fmt.Errorf("MYMEMORY_BASE_URL cannot be empty")
		}
	case TranslatorClaude:
		if c.Claude.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when TRANSLATOR_TYPE=claude")
		}
		if c.Claude.MaxTokens <= 0 {
			return fmt.Errorf("TRANSLATOR_MAX_TOKENS must be positive")
		}
	case TranslatorOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when TRANSLATOR_TYPE=openai")
		}
		if c.OpenAI.MaxTokens <= 0 {
			return fmt.Errorf("TRANSLATOR_MAX_TOKENS must be positive")
		}
	default:
		return fmt.Errorf("TRANSLATOR_TYPE must be mymemory, claude or openai, got %q", c.Type)
	}

	return nil
}

// getEnvOrDefault returns environment variable value or default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses integer environment variable with default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration parses duration environment variable with default.
// Supports formats like "30s", "1m", "2h".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
