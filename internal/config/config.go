package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort string

	// Database settings. DatabaseType selects the dialect; sqlite uses
	// DatabasePath, postgres and mysql use DatabaseURL.
	DatabaseType   string
	DatabasePath   string
	DatabaseURL    string
	MigrationsPath string

	// Deck files (one JSON file per deck).
	DecksPath string

	// Session token secrets. The user and admin surfaces sign tokens
	// independently so an admin secret rotation does not log users out.
	AuthSessionSecret  string
	AdminSessionSecret string
	AdminPassword      string

	UserSessionDuration  time.Duration
	AdminSessionDuration time.Duration

	// Email notifications (Amazon SES). Disabled when FromEmail is empty.
	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string

	// Google OAuth sign-in. Disabled when the client ID is empty.
	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectBase  string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env.local or .env file is loaded first if present, so local development
// does not need exported variables.
func Load() *Config {
	loadDotEnv()

	return &Config{
		ServerPort:     getEnv("PORT", "8080"),
		DatabaseType:   getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./recalltrainer.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		DecksPath:      getEnv("DECKS_PATH", "./decks"),

		AuthSessionSecret:  getEnv("AUTH_SESSION_SECRET", ""),
		AdminSessionSecret: getEnv("ADMIN_SESSION_SECRET", ""),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),

		UserSessionDuration:  7 * 24 * time.Hour,
		AdminSessionDuration: 8 * time.Hour,

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "Recall Trainer"),
		AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:8080"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectBase:  getEnv("OAUTH_REDIRECT_BASE_URL", ""),
	}
}

// loadDotEnv loads .env.local then .env, ignoring missing files.
func loadDotEnv() {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			log.Printf("Warning: failed to load %s: %v", name, err)
		}
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
