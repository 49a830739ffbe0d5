package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the server reads from the environment.
type Config struct {
	Port              string
	DSN               string
	DBMaxOpenConns    int
	DBLogLevel        string // silent, error, warn, info
	JWTSecret         string
	AllowedOrigins    []string
	AllowRegistration bool
	GeminiAPIKey      string
	BillSweepInterval time.Duration // 0 disables the overdue sweep
	LogLevel          string
	Production        bool
}

const defaultJWTSecret = "change_me_stock_ledger_dev_secret"

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from any getenv-style lookup.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:              getenv("PORT"),
		DSN:               getenv("DB_DSN"),
		DBLogLevel:        strings.ToLower(getenv("DB_LOG_LEVEL")),
		JWTSecret:         getenv("JWT_SECRET"),
		AllowedOrigins:    splitAndTrim(getenv("ALLOWED_ORIGINS")),
		AllowRegistration: getenv("ALLOW_REGISTRATION") == "true",
		GeminiAPIKey:      getenv("GEMINI_API_KEY"),
		LogLevel:          strings.ToLower(getenv("LOG_LEVEL")),
		Production:        getenv("APP_ENV") == "production",
	}

	if cfg.DSN == "" {
		return nil, errors.New("DB_DSN not set: please configure your database")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.DBLogLevel == "" {
		cfg.DBLogLevel = "warn"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if cfg.JWTSecret == "" {
		if cfg.Production {
			return nil, errors.New("JWT_SECRET must be set when APP_ENV=production")
		}
		cfg.JWTSecret = defaultJWTSecret
	}

	cfg.DBMaxOpenConns = 10
	if v := getenv("DB_MAX_OPEN_CONNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("DB_MAX_OPEN_CONNS must be a positive integer, got %q", v)
		}
		cfg.DBMaxOpenConns = n
	}

	if v := getenv("BILL_SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("BILL_SWEEP_INTERVAL must be a duration like 1h, got %q", v)
		}
		cfg.BillSweepInterval = d
	}

	return cfg, nil
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
