package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL       string
	DBAutoMigrate     bool
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	HTTPAddr  string
	JWTSecret string
	JWTIssuer string

	ResendAPIKey     string
	EmailFrom        string
	ReviewInboxEmail string
	AppBaseURL       string

	RedisURL string

	NotifyWorkers   int
	NotifyQueueSize int

	LogLevel string
}

// Load reads configuration from the environment, loading .env first when
// one exists.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("error load env %s", err)
	}

	cfg := Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		DBAutoMigrate:     envBool("DB_AUTO_MIGRATE", false),
		DBMaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 20),
		DBMaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		HTTPAddr:          envString("HTTP_ADDR", ":8080"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWTIssuer:         os.Getenv("JWT_ISSUER"),
		ResendAPIKey:      os.Getenv("RESEND_API_KEY"),
		EmailFrom:         os.Getenv("EMAIL_FROM"),
		ReviewInboxEmail:  os.Getenv("REVIEW_INBOX_EMAIL"),
		AppBaseURL:        os.Getenv("APP_BASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		NotifyWorkers:     envInt("NOTIFY_WORKERS", 2),
		NotifyQueueSize:   envInt("NOTIFY_QUEUE_SIZE", 100),
		LogLevel:          envString("LOG_LEVEL", "info"),
	}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

func envString(key string, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return value
}

func envBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return value
}
