// Package config loads and validates application configuration from
// environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the directory shell.
// Values are populated by Load from environment variables.
type Config struct {
	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory is loaded first if present, so local
// development does not need exported variables.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg := Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
