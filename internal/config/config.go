// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime configuration for the server. Every knob is
// passed explicitly to the component that needs it; nothing reads the
// environment after startup.
type Config struct {
	// HTTP server
	Port string

	// Storage
	GoogleCloudProject string
	UploadsBucket      string
	UseMemoryStore     bool

	// Generative model
	GeminiAPIKey    string
	GeminiModel     string
	Temperature     float64
	MaxOutputTokens int32
}

// Load reads configuration from environment variables, applying defaults
// suitable for local development.
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8111"),
		GoogleCloudProject: getEnv("GOOGLE_CLOUD_PROJECT", ""),
		UploadsBucket:      getEnv("UPLOADS_BUCKET", ""),
		UseMemoryStore:     getEnvBool("USE_MEMORY_STORE", false) || getEnv("ENV", "") == "local",
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		Temperature:        getEnvFloat("GEMINI_TEMPERATURE", 0),
		MaxOutputTokens:    int32(getEnvInt("GEMINI_MAX_OUTPUT_TOKENS", 4096)),
	}
}

// Validate checks that production-only settings are present when the
// in-memory store is not in use.
func (c *Config) Validate() error {
	if c.UseMemoryStore {
		return nil
	}
	if c.GoogleCloudProject == "" {
		return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required unless USE_MEMORY_STORE=true")
	}
	if c.UploadsBucket == "" {
		return fmt.Errorf("UPLOADS_BUCKET is required unless USE_MEMORY_STORE=true")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
