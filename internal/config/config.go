package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port               string
	AllowedOrigins     []string
	LogLevel           string
	MaxUploadRecords   int
	MaxBodyBytes       int64
	RateLimitRPS       float64
	RateLimitBurst     int
	RateLimitRedisAddr string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		// Empty means the in-process limiter is used instead of Redis.
		RateLimitRedisAddr: getEnv("RATE_LIMIT_REDIS_ADDR", ""),
	}

	maxRecords, err := strconv.Atoi(getEnv("MAX_UPLOAD_RECORDS", "1000"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_RECORDS: %w", err)
	}
	if maxRecords < 1 {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_RECORDS: must be at least 1")
	}
	config.MaxUploadRecords = maxRecords

	maxBody, err := strconv.ParseInt(getEnv("MAX_BODY_BYTES", "1048576"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_BODY_BYTES: %w", err)
	}
	config.MaxBodyBytes = maxBody

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	config.RateLimitRPS = rps

	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}
	config.RateLimitBurst = burst

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
