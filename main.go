// Package main runs the library lending API.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"libraryapi/app/echoServer"
	bookctrl "libraryapi/app/echoServer/controller/book"
	borrowingctrl "libraryapi/app/echoServer/controller/borrowing"
	"libraryapi/config"
	bookrepo "libraryapi/repository/book"
	borrowingrepo "libraryapi/repository/borrowing"
	"libraryapi/repository/journal"
	"libraryapi/repository/memory"
	telegramrepo "libraryapi/repository/telegram"
	booksvc "libraryapi/service/book"
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

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// storage
	var (
		books      booksvc.Repo
		borrowings borrowingsvc.Repo
		overdue    borrowingsvc.OverdueReader
		ping       func(context.Context) error
	)
	if cfg.UseMockDB {
		logger.Warn("using in-memory store, data is lost on exit")
		store := memory.New()
		books, borrowings, overdue = store.Books(), store.Borrowings(), store.Borrowings()
	} else {
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("db connect failed", zap.Error(err))
		}
		defer db.Close()
		sqlDB := db.SQLX()
		defer sqlDB.Close()

		books = bookrepo.New(db.Pool)
		borrowings = borrowingrepo.New(db.Pool)
		overdue = borrowingrepo.NewOverdueReader(sqlDB)
		ping = db.Ping
	}

	// notifications
	var n notify.Notifier = notify.LogNotifier{Log: logger}
	if cfg.TelegramEnabled() {
		tg, err := telegramrepo.New(cfg.TelegramToken, cfg.TelegramChatID, httpx.Client())
		if err != nil {
			logger.Warn("telegram unavailable, logging notifications instead", zap.Error(err))
		} else {
			n = tg
		}
	}
	dispatcher := notify.NewDispatcher(n, cfg.NotifyTimeout, logger)

	// lending journal
	var j borrowingsvc.Journal = journal.Nop{}
	if cfg.ClickHouse.Enabled() {
		ch, err := journal.NewClickHouse(cfg.ClickHouse.Host, cfg.ClickHouse.Port, cfg.ClickHouse.Database,
			cfg.ClickHouse.User, cfg.ClickHouse.Password, cfg.ClickHouse.UseTLS)
		if err != nil {
			logger.Warn("lending journal disabled", zap.Error(err))
		} else {
			defer ch.Close()
			if err := ch.Initialize(ctx); err != nil {
				logger.Warn("lending journal init failed", zap.Error(err))
			}
			j = ch
		}
	}

	// services
	bs := booksvc.New(books)
	ledger := borrowingsvc.New(borrowings,
		borrowingsvc.WithNotifier(dispatcher),
		borrowingsvc.WithJournal(j),
		borrowingsvc.WithLogger(logger),
	)

	e := echoServer.New(echoServer.C{
		Book:      &bookctrl.Controller{Svc: bs, Log: logger},
		Borrowing: &borrowingctrl.Controller{Svc: ledger, Log: logger},
		JWTSecret: cfg.JWTSecret,
		Log:       logger,
		Ping:      ping,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.SweepInterval > 0 {
		sweep := borrowingsvc.NewSweep(overdue, dispatcher, logger)
		g.Go(func() error {
			sweep.RunEvery(gctx, cfg.SweepInterval)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
	dispatcher.Wait()
	logger.Info("shutdown complete")
}
