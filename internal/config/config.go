// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"
)

// Config collects every environment-driven setting in one place.
type Config struct {
	Port        string
	DatabaseURL string
	RedisAddr   string
	RedisDB     int

	MaxRounds   int
	PoolTTL     time.Duration
	TokenExpiry time.Duration
}

// Load reads the environment (godotenv has already populated it from .env
// in main) and applies defaults.
func Load() Config {
	return Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		RedisDB:     getEnvInt("REDIS_DB", 0),
		MaxRounds:   getEnvInt("GAME_MAX_ROUNDS", 10),
		PoolTTL:     getEnvDuration("MATCHMAKING_POOL_TTL", 10*time.Minute),
		TokenExpiry: getEnvDuration("TOKEN_EXPIRE_TIME", 72*time.Hour),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
