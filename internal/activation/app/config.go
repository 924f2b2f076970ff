package app

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	SigningKey     []byte        // Required: HMAC key for activation tokens (min 32 bytes)
	TokenTTL       time.Duration // Optional: activation token validity window (default: 48h)
	InternalAPIKey string        // Optional: key guarding provisioning endpoints (empty locks them)
	PublicBaseURL  string        // Optional: origin activation links point at (default: http://localhost:8080)

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./activation.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired-record cleanup interval (default: 1h)
}

// LoadConfig reads configuration from the environment. The signing key is the
// only hard requirement; everything else has workable defaults.
func LoadConfig() (Config, error) {
	cfg := Config{
		SigningKey:           []byte(os.Getenv("ACTIVATION_SIGNING_KEY")),
		TokenTTL:             getEnvDurationOrDefault("ACTIVATION_TOKEN_TTL", 48*time.Hour),
		InternalAPIKey:       os.Getenv("ACTIVATION_INTERNAL_API_KEY"),
		PublicBaseURL:        getEnvOrDefault("ACTIVATION_PUBLIC_BASE_URL", "http://localhost:8080"),
		DatabaseFile:         getEnvOrDefault("ACTIVATION_DATABASE_FILE", "activation.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if len(cfg.SigningKey) == 0 {
		return Config{}, errors.New("ACTIVATION_SIGNING_KEY is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
