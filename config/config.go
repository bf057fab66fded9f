// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	// CatalogPath is the CSV file holding the priced catalog.
	CatalogPath string
	// QuoteTitle is printed on exported quotes.
	QuoteTitle string
	// ArchiveExports records every Excel export in the quotes collection.
	ArchiveExports bool
	// SessionTTL is how long an idle estimate session is kept in memory.
	SessionTTL time.Duration
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	return &Config{
		CatalogPath:    getEnv("QUOTE_CATALOG_PATH", "materials.csv"),
		QuoteTitle:     getEnv("QUOTE_TITLE", "Interior Estimate"),
		ArchiveExports: getEnvAsBool("QUOTE_ARCHIVE", true),
		SessionTTL:     getEnvAsDuration("QUOTE_SESSION_TTL", 12*time.Hour),
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.CatalogPath) == "" {
		return fmt.Errorf("QUOTE_CATALOG_PATH is required")
	}
	if strings.TrimSpace(c.QuoteTitle) == "" {
		return fmt.Errorf("QUOTE_TITLE must not be blank")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("QUOTE_SESSION_TTL must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := cast.ToDurationE(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}
	return value
}
