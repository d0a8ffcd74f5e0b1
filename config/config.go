package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime settings, loaded from environment variables.
type Config struct {
	Host           string
	Port           string
	AllowedOrigins string
	DatabaseURL    string

	CacheTTL       time.Duration
	SourceTimeout  time.Duration
	BatchDelay     time.Duration
	MatchThreshold int
	Strategy       string

	RateLimitPerSecond float64
	RefreshSchedule    string
	MaxScrapeWorkers   int
}

// Load reads the configuration from the environment, with the reference
// deployment's defaults.
func Load() *Config {
	return &Config{
		Host:           getEnv("HOST", "0.0.0.0"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),

		CacheTTL:       getEnvDuration("CACHE_TTL", 12*time.Hour),
		SourceTimeout:  getEnvDuration("SOURCE_TIMEOUT", 30*time.Second),
		BatchDelay:     getEnvDuration("BATCH_DELAY", 1500*time.Millisecond),
		MatchThreshold: getEnvInt("MATCH_THRESHOLD", 60),
		Strategy:       getEnv("PRICING_STRATEGY", "competitive"),

		RateLimitPerSecond: getEnvFloat("RATE_LIMIT_PER_SECOND", 5),
		RefreshSchedule:    getEnv("REFRESH_SCHEDULE", "0 0 */12 * * *"),
		MaxScrapeWorkers:   getEnvInt("MAX_SCRAPE_WORKERS", 5),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
