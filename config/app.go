package config

import "time"

type App struct {
	Port        string
	Env         string
	DatabaseURL string
	JWTSecret   string
	UseMockDB   bool

	TelegramToken  string
	TelegramChatID int64
	NotifyTimeout  time.Duration

	// SweepInterval runs the overdue sweep inside the API process; zero disables it.
	SweepInterval time.Duration

	ClickHouse ClickHouse
}

type ClickHouse struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	UseTLS   bool
}

// Enabled reports whether a lending journal should be opened.
func (c ClickHouse) Enabled() bool { return c.Host != "" }

func (a App) Dev() bool { return a.Env == "dev" }

func (a App) TelegramEnabled() bool { return a.TelegramToken != "" && a.TelegramChatID != 0 }
