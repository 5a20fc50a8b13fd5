package config

import (
	"os"
	"time"
)

// Storage backend names.
const (
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

type Config struct {
	// Route-planning backend
	RouteBackendURL string
	RouteTimeout    time.Duration

	// Speech-to-text backend
	DeepgramURL      string
	DeepgramAPIKey   string
	DeepgramModel    string
	DeepgramLanguage string
	DeepgramTimeout  time.Duration

	// Storage
	StorageBackend string
	RedisURL       string
	SQLitePath     string

	// NATS configuration
	NatsURL           string
	NatsSubjectPrefix string
	NatsTimeout       time.Duration

	// Service configuration
	ServiceName string
}

func Load() *Config {
	return &Config{
		// Route backend settings
		RouteBackendURL: getEnv("ROUTE_BACKEND_URL", "https://aigpsbackend.vercel.app"),
		RouteTimeout:    getDurationEnv("ROUTE_TIMEOUT", 30*time.Second),

		// Transcription settings
		DeepgramURL:      getEnv("DEEPGRAM_URL", "https://api.deepgram.com"),
		DeepgramAPIKey:   getEnv("DEEPGRAM_API_KEY", ""),
		DeepgramModel:    getEnv("DEEPGRAM_MODEL", "nova-2"),
		DeepgramLanguage: getEnv("DEEPGRAM_LANGUAGE", "en"),
		DeepgramTimeout:  getDurationEnv("DEEPGRAM_TIMEOUT", 30*time.Second),

		// Storage settings
		StorageBackend: getEnv("STORAGE_BACKEND", StorageSQLite),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SQLitePath:     getEnv("SQLITE_PATH", "assist.db"),

		// NATS settings
		NatsURL:           getEnv("NATS_URL", "nats://localhost:4222"),
		NatsSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "assist."),
		NatsTimeout:       getDurationEnv("NATS_TIMEOUT", 30*time.Second),

		// Service settings
		ServiceName: getEnv("SERVICE_NAME", "tripbuddy-assist"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
