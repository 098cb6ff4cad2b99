package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Env      string
	LogLevel string

	// Remote appointment service
	ServiceBaseURL string
	AuthToken      string
	RequestTimeout time.Duration

	// Appointment list polling
	PollInterval time.Duration

	// Session tokens
	SessionSecret string

	// Sandbox service (cmd/stubserver)
	StubPort string
	StubSeed bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ServiceBaseURL: getEnv("SERVICE_BASE_URL", "http://localhost:8080"),
		AuthToken:      getEnv("SERVICE_AUTH_TOKEN", ""),
		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 15*time.Second),
		PollInterval:   getEnvAsDuration("POLL_INTERVAL", 10*time.Second),
		SessionSecret:  getEnv("SESSION_SECRET", ""),
		StubPort:       getEnv("STUB_PORT", "8080"),
		StubSeed:       getEnvAsBool("STUB_SEED", true),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
