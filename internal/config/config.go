package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        string
	DatabaseURL string
	LogLevel    string

	MongoURI string
	MongoDB  string

	SessionSecret string
	JWTSecret     string
	JWTTTL        time.Duration

	OAuth    OAuthConfig
	Geocoder GeocoderConfig
	SMTP     SMTPConfig
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	RedirectURL        string
}

func (c OAuthConfig) Enabled() bool {
	return c.GoogleClientID != ""
}

type GeocoderConfig struct {
	BaseURL   string
	UserAgent string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

func (c *Config) Production() bool {
	return c.Env == "production"
}

// Load reads .env (if present) and the process environment.
// The returned bool reports whether a .env file was loaded.
func Load() (*Config, bool, error) {
	loaded := godotenv.Load() == nil
	cfg, err := FromEnv()
	return cfg, loaded, err
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Env:         getenv("APP_ENV", "development"),
		Port:        getenv("PORT", "8083"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		MongoURI: os.Getenv("MONGO_URI"),
		MongoDB:  getenv("MONGO_DB", "surfmarket"),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		JWTSecret:     os.Getenv("JWT_SECRET"),

		OAuth: OAuthConfig{
			GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:        os.Getenv("OAUTH_REDIRECT_URL"),
		},
		Geocoder: GeocoderConfig{
			BaseURL:   getenv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
			UserAgent: getenv("GEOCODER_USER_AGENT", "surf-market/1.0"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("MAIL_FROM"),
		},
	}

	required := []struct{ key, val string }{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"MONGO_URI", cfg.MongoURI},
		{"SESSION_SECRET", cfg.SessionSecret},
		{"JWT_SECRET", cfg.JWTSecret},
	}
	for _, r := range required {
		if r.val == "" {
			return nil, fmt.Errorf("%s is required", r.key)
		}
	}

	ttl, err := time.ParseDuration(getenv("JWT_TTL", "72h"))
	if err != nil {
		return nil, fmt.Errorf("JWT_TTL: %w", err)
	}
	cfg.JWTTTL = ttl

	port, err := strconv.Atoi(getenv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("SMTP_PORT: %w", err)
	}
	cfg.SMTP.Port = port

	if cfg.OAuth.Enabled() && cfg.OAuth.RedirectURL == "" {
		return nil, fmt.Errorf("OAUTH_REDIRECT_URL is required when GOOGLE_CLIENT_ID is set")
	}
	if cfg.SMTP.Enabled() && cfg.SMTP.From == "" {
		return nil, fmt.Errorf("MAIL_FROM is required when SMTP_HOST is set")
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
