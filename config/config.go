// Package config loads server configuration from the environment, with a
// .env file honored in development via godotenv.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr       string
	DBPath         string
	JWTSecret      string
	HolidayBaseURL string
}

// Load reads .env if present, then the environment. Flags in main override
// the result.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		DBPath:         getenv("DB_PATH", "collection.db"),
		JWTSecret:      getenv("JWT_SECRET", "dev-secret-change-me"),
		HolidayBaseURL: getenv("HOLIDAY_API_URL", ""),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
