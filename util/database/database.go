package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sethvargo/go-retry"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, stmt string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, stmt string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, stmt string, args ...any) pgx.Row
}

type Pool interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

type DB struct{ Pool *pgxpool.Pool }

// New opens a pool and waits for the server to answer, retrying with backoff
// while the database is still starting.
func New(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	b := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		p.Close()
		return nil, err
	}
	return &DB{Pool: p}, nil
}

func (d *DB) Ping(ctx context.Context) error { return d.Pool.Ping(ctx) }

// SQLX exposes the pool through database/sql for code that scans into structs.
func (d *DB) SQLX() *sqlx.DB {
	return sqlx.NewDb(stdlib.OpenDBFromPool(d.Pool), "pgx")
}

// OpenSQL opens a database/sql handle through the pgx driver, for tools such as goose.
func OpenSQL(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() { d.Pool.Close() }
