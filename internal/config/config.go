package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Physics sessions
	PhysicsTickMs      int
	PhysicsSeed        int64
	SessionIdleMinutes int
	SnapshotTTLMinutes int
	MaxSessions        int
	// longest host clock jump a session catches up in one step
	MaxCatchUpMs float64

	// Security
	JWTSecret       string
	APIKeyHash      string
	TokenTTLMinutes int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/pinball?sslmode=disable"),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Physics sessions
		PhysicsTickMs:      getEnvInt("PHYSICS_TICK_MS", 16),
		PhysicsSeed:        int64(getEnvInt("PHYSICS_SEED", 1)),
		SessionIdleMinutes: getEnvInt("SESSION_IDLE_MINUTES", 30),
		SnapshotTTLMinutes: getEnvInt("SNAPSHOT_TTL_MINUTES", 60),
		MaxSessions:        getEnvInt("MAX_SESSIONS", 64),
		MaxCatchUpMs:       getEnvFloat("MAX_CATCH_UP_MS", 250),

		// Security
		JWTSecret:       getEnv("JWT_SECRET", "change-me-in-production"),
		APIKeyHash:      getEnv("API_KEY_HASH", ""),
		TokenTTLMinutes: getEnvInt("TOKEN_TTL_MINUTES", 60),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
