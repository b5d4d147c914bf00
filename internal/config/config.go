// Package config provides configuration for the backend.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the backend configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Chat completion API
	OpenAIURL    string
	OpenAIAPIKey string

	// Breach database API
	HIBPURL    string
	HIBPAPIKey string

	// Timeouts
	LLMTimeout time.Duration
}

// Load loads configuration from a .env file (if present) and the environment.
// Missing API keys are not an error here; they surface as authentication
// failures from the respective upstream service.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:     getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:  getEnv("DATABASE_URL", "file:breachchat.db?cache=shared&mode=rwc"),
		OpenAIURL:    getEnv("OPENAI_API_URL", "https://api.openai.com"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		HIBPURL:      getEnv("HIBP_API_URL", "https://haveibeenpwned.com"),
		HIBPAPIKey:   getEnv("HIBP_API_KEY", ""),
		LLMTimeout:   time.Duration(getEnvInt("LLM_TIMEOUT_MS", 120000)) * time.Millisecond,
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
