// Package config reads the application configuration from environment
// variables. Only derived invariants are validated here; the database is
// deliberately optional, since the audit trail is the only thing that
// needs one.
package config

import (
	"os"
	"strconv"
	"time"

	"transitvet/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Artifacts ArtifactConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds the optional audit database settings. An empty URL
// disables the audit trail.
type DatabaseConfig struct {
	URL         string
	AutoMigrate bool
}

// ArtifactConfig holds the locations of the paired training artifacts
type ArtifactConfig struct {
	ModelPath string
	StatsPath string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:    loadServerConfig(),
		Database:  loadDatabaseConfig(),
		Artifacts: loadArtifactConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:         getEnvOrDefault("PORT", "8080"),
		ReadTimeout:  getEnvDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getEnvDurationOrDefault("SERVER_WRITE_TIMEOUT", 60*time.Second),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:         getEnvOrDefault("DATABASE_URL", ""),
		AutoMigrate: getEnvBoolOrDefault("DB_AUTO_MIGRATE", true),
	}
}

func loadArtifactConfig() ArtifactConfig {
	return ArtifactConfig{
		ModelPath: getEnvOrDefault("MODEL_PATH", "artifacts/koi_classifier.gob"),
		StatsPath: getEnvOrDefault("STATS_PATH", "artifacts/reference_stats.json"),
	}
}

func validateConfig(config *Config) error {
	if config.Artifacts.ModelPath == "" {
		return errors.ConfigInvalid("model path is required")
	}
	if config.Artifacts.StatsPath == "" {
		return errors.ConfigInvalid("statistics path is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
