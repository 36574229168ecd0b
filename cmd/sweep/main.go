// Command sweep runs the overdue check once and exits. Schedule it with cron.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"libraryapi/config"
	borrowingrepo "libraryapi/repository/borrowing"
	telegramrepo "libraryapi/repository/telegram"
	borrowingsvc "libraryapi/service/borrowing"
	"libraryapi/service/notify"
	"libraryapi/util/database"
	"libraryapi/util/httpx"
	"libraryapi/util/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.UseMockDB {
		log.Fatal("sweep needs DATABASE_URL; USE_MOCK_DB has nothing to scan")
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer db.Close()

	var n notify.Notifier = notify.LogNotifier{Log: logger}
	if cfg.TelegramEnabled() {
		tg, err := telegramrepo.New(cfg.TelegramToken, cfg.TelegramChatID, httpx.Client())
		if err != nil {
			logger.Fatal("telegram connect failed", zap.Error(err))
		}
		n = tg
	}

	sqlDB := db.SQLX()
	defer sqlDB.Close()

	sweep := borrowingsvc.NewSweep(borrowingrepo.NewOverdueReader(sqlDB), notify.NewDispatcher(n, cfg.NotifyTimeout, logger), logger)
	rep, err := sweep.Run(ctx)
	if err != nil {
		logger.Error("overdue sweep failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("overdue sweep done", zap.Int("found", rep.Found), zap.Int("sent", rep.Sent), zap.Int("failed", rep.Failed))
}
