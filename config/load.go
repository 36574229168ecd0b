package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "local_dev_secret"

// Load reads the environment, after merging a .env file when one exists.
func Load() (App, error) {
	_ = godotenv.Load()

	cfg := App{
		Port:          getenv("APP_PORT", "8080"),
		Env:           getenv("APP_ENV", "dev"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		UseMockDB:     os.Getenv("USE_MOCK_DB") == "true",
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		ClickHouse: ClickHouse{
			Host:     os.Getenv("CLICKHOUSE_HOST"),
			Database: getenv("CLICKHOUSE_DATABASE", "default"),
			User:     getenv("CLICKHOUSE_USER", "default"),
			Password: os.Getenv("CLICKHOUSE_PASSWORD"),
			UseTLS:   os.Getenv("CLICKHOUSE_USE_TLS") == "true",
		},
	}

	if cfg.DatabaseURL == "" && !cfg.UseMockDB {
		return App{}, fmt.Errorf("DATABASE_URL is required when USE_MOCK_DB is not set")
	}
	var err error
	if cfg.JWTSecret, err = JWTSecret(); err != nil {
		return App{}, err
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if cfg.TelegramChatID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return App{}, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
	}
	if cfg.NotifyTimeout, err = duration("NOTIFY_TIMEOUT", 5*time.Second); err != nil {
		return App{}, err
	}
	if cfg.SweepInterval, err = duration("OVERDUE_SWEEP_INTERVAL", 0); err != nil {
		return App{}, err
	}

	cfg.ClickHouse.Port = 9000
	if v := os.Getenv("CLICKHOUSE_PORT"); v != "" {
		if cfg.ClickHouse.Port, err = strconv.Atoi(v); err != nil {
			return App{}, fmt.Errorf("invalid CLICKHOUSE_PORT: %w", err)
		}
	}
	return cfg, nil
}

// JWTSecret returns JWT_SECRET. Outside dev it must be set.
func JWTSecret() (string, error) {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		return v, nil
	}
	if env := getenv("APP_ENV", "dev"); env != "dev" {
		return "", fmt.Errorf("JWT_SECRET is required when APP_ENV is %q", env)
	}
	return devJWTSecret, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func duration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", k, err)
	}
	return d, nil
}
