// Package config centralizes application settings. Values come from the
// environment, optionally seeded from a .env file in development.
package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// AppName doubles as the Postgres schema the app operates in.
const AppName = "tripbot"

// Load reads a .env file if one exists. Missing files are fine; real
// deployments set the environment directly.
func Load() {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Error loading .env file: %v", err)
		}
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Port returns the HTTP listen port.
func Port() string {
	return getEnv("PORT", "8080")
}

// RedisAddr returns the Redis address for the session store, empty when
// sessions should stay in memory.
func RedisAddr() string {
	return os.Getenv("REDIS_ADDR")
}

// CacheDir returns the directory for provider response caches.
func CacheDir() string {
	return getEnv("CACHE_DIR", "cache")
}

// GatewayKind selects the message transport: "channel", "rabbitmq" or
// "pubsub".
func GatewayKind() string {
	return getEnv("GATEWAY", "channel")
}
