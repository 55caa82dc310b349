// Package config loads runtime settings from the environment.
// A .env file in the working directory is honoured for local development.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	HTTPAddr string

	DatabaseURL string
	// DBDriver selects the database/sql driver behind gorm. "postgres" uses
	// lib/pq, an empty value keeps the pgx default.
	DBDriver string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	AllowedOrigins []string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, err := parseIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	ttlHours, err := parseIntEnv("JWT_TTL_HOURS", 72)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:       getEnvOrDefault("HTTP_ADDR", ":8080"),
		DatabaseURL:    getEnvOrDefault("DATABASE_URL", "host=localhost user=user password=password dbname=roomchat port=5432 sslmode=disable"),
		DBDriver:       strings.TrimSpace(os.Getenv("DB_DRIVER")),
		RedisAddr:      getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        redisDB,
		JWTSecret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:      getEnvOrDefault("JWT_ISSUER", "roomchat-service"),
		JWTTTL:         time.Duration(ttlHours) * time.Hour,
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
