package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs at startup. Values come from the
// environment; a .env file is loaded first when present.
type Config struct {
	Port        string
	AppOrigin   string
	DatabaseURL string

	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	// Development disables the Secure flag on auth cookies so the app can
	// run over plain http locally.
	Development bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		AppOrigin:          getEnv("APP_ORIGIN", "http://localhost:3000"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		AccessTokenSecret:  []byte(getEnv("JWT_ACCESS_SECRET", "dev-access-secret")),
		RefreshTokenSecret: []byte(getEnv("JWT_REFRESH_SECRET", "dev-refresh-secret")),
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    30 * 24 * time.Hour,
		SMTPHost:           os.Getenv("SMTP_HOST"),
		SMTPPort:           587,
		SMTPUsername:       os.Getenv("SMTP_USERNAME"),
		SMTPPassword:       os.Getenv("SMTP_PASSWORD"),
		MailFrom:           getEnv("MAIL_FROM", "no-reply@coachlink.app"),
		Development:        os.Getenv("APP_ENV") != "production",
	}

	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		cfg.SMTPPort = port
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
