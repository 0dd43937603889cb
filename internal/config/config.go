package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Database URLs
	PostgresURL string
	RedisURL    string

	// Battle Service
	TurnTimeout       time.Duration
	PlayerTimeout     time.Duration
	BattleTimeout     time.Duration
	MaxConcurrentGame int
	PRNGSeed          int64
	UsePRNGSeed       bool

	// WAMP
	Realm string

	// Idempotency
	IdempotencyTTL time.Duration
}

// Load loads configuration from environment variables.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "development"),

		TurnTimeout:       getEnvDuration("TURN_TIMEOUT", 60*time.Second),
		PlayerTimeout:     getEnvDuration("PLAYER_TIMEOUT", 5*time.Minute),
		BattleTimeout:     getEnvDuration("BATTLE_TIMEOUT", 2*time.Hour),
		MaxConcurrentGame: getEnvInt("MAX_CONCURRENT_BATTLES", 1000),

		Realm: getEnv("WAMP_REALM", "battler"),

		IdempotencyTTL: getEnvDuration("IDEMPOTENCY_TTL", 5*time.Minute),
	}

	if seedStr := os.Getenv("PRNG_SEED"); seedStr != "" {
		seed, err := strconv.ParseInt(seedStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid PRNG_SEED: %w", err)
		}
		cfg.PRNGSeed = seed
		cfg.UsePRNGSeed = true
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	rawOrigins := strings.Split(origins, ",")
	for _, o := range rawOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	// Critical configuration - fail if missing
	var err error
	if cfg.PostgresURL, err = getEnvRequired("POSTGRES_URL"); err != nil {
		return nil, err
	}
	if cfg.RedisURL, err = getEnvRequired("REDIS_URL"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
