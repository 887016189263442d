package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	DBDriver    string
	DatabaseURL string
	DBPath      string
	RedisURL    string

	MeiliSearchHost string
	MeiliMasterKey  string

	StorageDriver          string
	MediaRoot              string
	MediaURL               string
	CloudinaryURL          string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	JWTSecret          string
	SessionTTL         time.Duration
	SessionRememberTTL time.Duration

	AdminUsername string
	AdminEmail    string
	AdminPassword string

	MaxResumeBytes int64

	RateLimitLoginAttempts int64
	RateLimitLoginWindow   time.Duration
	RateLimitApply         time.Duration
	FormRatePerSecond      float64
	FormRateBurst          int
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DBDriver:    getEnv("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBPath:      getEnv("DB_PATH", "jobportal.db"),
		RedisURL:    os.Getenv("REDIS_URL"),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		StorageDriver:          getEnv("STORAGE_DRIVER", "local"),
		MediaRoot:              getEnv("MEDIA_ROOT", "media"),
		MediaURL:               getEnv("MEDIA_URL", "/media/"),
		CloudinaryURL:          os.Getenv("CLOUDINARY_URL"),
		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:       os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:    os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "jobportal"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@jobportal.local"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	if cfg.JWTSecret == "" {
		if cfg.AppEnv == "production" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret-change-me"
	}

	var err error
	if cfg.SessionTTL, err = parseDuration(getEnv("SESSION_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	if cfg.SessionRememberTTL, err = parseDuration(getEnv("SESSION_REMEMBER_TTL", "720h")); err != nil {
		return nil, fmt.Errorf("invalid SESSION_REMEMBER_TTL: %w", err)
	}
	if cfg.RateLimitLoginWindow, err = parseDuration(getEnv("RATE_LIMIT_LOGIN_WINDOW", "15m")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_LOGIN_WINDOW: %w", err)
	}
	if cfg.RateLimitApply, err = parseDuration(getEnv("RATE_LIMIT_APPLY", "10s")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_APPLY: %w", err)
	}

	if cfg.MaxResumeBytes, err = strconv.ParseInt(getEnv("MAX_RESUME_BYTES", "5242880"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid MAX_RESUME_BYTES: %w", err)
	}
	if cfg.RateLimitLoginAttempts, err = strconv.ParseInt(getEnv("RATE_LIMIT_LOGIN_ATTEMPTS", "10"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_LOGIN_ATTEMPTS: %w", err)
	}
	if cfg.FormRatePerSecond, err = strconv.ParseFloat(getEnv("FORM_RATE_PER_SECOND", "2"), 64); err != nil {
		return nil, fmt.Errorf("invalid FORM_RATE_PER_SECOND: %w", err)
	}
	if cfg.FormRateBurst, err = strconv.Atoi(getEnv("FORM_RATE_BURST", "10")); err != nil {
		return nil, fmt.Errorf("invalid FORM_RATE_BURST: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
