package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session backends
const (
	BackendKeyring = "keyring"
	BackendSQLite  = "sqlite"
	BackendMemory  = "memory"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP Configuration
	Server ServerConfig

	// Session Configuration
	Session SessionConfig

	// Logging Configuration
	Logging LoggingConfig
}

// ServerConfig holds web app configuration
type ServerConfig struct {
	ListenAddr  string
	BaseURL     string   // Used by the CLI to open the app
	CORSOrigins []string // Origins allowed to call /api
}

// SessionConfig holds session persistence and sign-in configuration
type SessionConfig struct {
	Backend        string // keyring, sqlite, memory
	DBPath         string // sqlite backend only
	KeyringService string // keyring backend only
	LoginDelay     time.Duration
	TokenSecret    string // empty = random per process
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	backend := strings.ToLower(getEnv("SESSION_BACKEND", BackendKeyring))
	switch backend {
	case BackendKeyring, BackendSQLite, BackendMemory:
	default:
		return nil, fmt.Errorf("invalid SESSION_BACKEND %q, must be one of: keyring, sqlite, memory", backend)
	}

	loginDelay, err := time.ParseDuration(getEnv("LOGIN_DELAY", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_DELAY: %w", err)
	}
	if loginDelay < 0 {
		return nil, fmt.Errorf("invalid LOGIN_DELAY: must not be negative")
	}

	var origins []string
	for _, origin := range strings.Split(getEnv("CORS_ORIGINS", "http://localhost:5173"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}

	return &Config{
		Server: ServerConfig{
			ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
			BaseURL:     strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
			CORSOrigins: origins,
		},
		Session: SessionConfig{
			Backend:        backend,
			DBPath:         getEnv("SESSION_DB_PATH", "clipnest.sqlite"),
			KeyringService: getEnv("KEYRING_SERVICE", "clipnest"),
			LoginDelay:     loginDelay,
			TokenSecret:    os.Getenv("TOKEN_SECRET"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
