package config

import (
	"os"
	"strconv"

	"bmcount/domain/brunnermunzel"
	"bmcount/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Test     TestConfig
	Database DatabaseConfig
	LogLevel string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// TestConfig holds the default Brunner-Munzel options and batch limits
type TestConfig struct {
	Options          brunnermunzel.Options
	BatchConcurrency int
	MaxBatchSize     int
}

// DatabaseConfig holds the optional count source connection
type DatabaseConfig struct {
	URL     string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:   *loadServerConfig(),
		Database: *loadDatabaseConfig(),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	testConfig, err := loadTestConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load test configuration")
	}
	config.Test = *testConfig

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadTestConfig() (*TestConfig, error) {
	opts, err := brunnermunzel.ParseOptions(
		os.Getenv("BM_ALTERNATIVE"),
		os.Getenv("BM_DISTRIBUTION"),
		os.Getenv("BM_NAN_POLICY"),
	)
	if err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}

	return &TestConfig{
		Options:          opts,
		BatchConcurrency: getEnvIntOrDefault("BATCH_CONCURRENCY", 8),
		MaxBatchSize:     getEnvIntOrDefault("MAX_BATCH_SIZE", 1000),
	}, nil
}

func loadDatabaseConfig() *DatabaseConfig {
	url := os.Getenv("DATABASE_URL")
	return &DatabaseConfig{
		URL:     url,
		Enabled: url != "",
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Test.BatchConcurrency < 1 {
		return errors.ConfigInvalid("BATCH_CONCURRENCY must be at least 1")
	}
	if config.Test.MaxBatchSize < 1 {
		return errors.ConfigInvalid("MAX_BATCH_SIZE must be at least 1")
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

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
