// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// MongoDB content database
	MongoURI string
	MongoDB  string

	// PostgreSQL analytics database
	PGHost     string
	PGPort     string
	PGUser     string
	PGPassword string
	PGName     string

	// Valkey (Redis-compatible cache and sessions)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Token validation
	JWTSecret string
	JWTIssuer string

	// Cron shared secret; empty disables the cron endpoints.
	CronSecret string

	// S3-compatible photo storage (optional)
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		MongoURI: envOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  envOrDefault("MONGO_DB", "birdatlas"),

		PGHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		PGPort:     envOrDefault("POSTGRES_PORT", "5432"),
		PGUser:     envOrDefault("POSTGRES_USER", "birdatlas"),
		PGPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		PGName:     envOrDefault("POSTGRES_DB", "birdatlas"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		JWTSecret: envOrDefault("JWT_SECRET", "dev-secret-do-not-use-live"),
		JWTIssuer: envOrDefault("JWT_ISSUER", "birdatlas"),

		CronSecret: os.Getenv("CRON_SECRET"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "birdatlas-photos"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),
	}

	if cfg.Env == "production" {
		if cfg.PGPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.JWTSecret == "dev-secret-do-not-use-live" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
	}

	return cfg, nil
}

// AnalyticsDSN returns the PostgreSQL connection string.
func (c *Config) AnalyticsDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGName,
	)
}

// ValkeyAddr returns the Valkey connection address (host:port).
func (c *Config) ValkeyAddr() string {
	return fmt.Sprintf("%s:%s", c.ValkeyHost, c.ValkeyPort)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
