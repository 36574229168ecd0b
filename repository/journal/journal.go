// Package journal appends borrow and return events to ClickHouse for reporting.
package journal

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"

	"libraryapi/model"
)

type ClickHouse struct {
	conn clickhouse.Conn
}

func NewClickHouse(host string, port int, database, user, password string, useTLS bool) (*ClickHouse, error) {
	options := &clickhouse.Options{
		Addr:     []string{fmt.Sprintf("%s:%d", host, port)},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
	}
	if useTLS {
		options.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}
	return &ClickHouse{conn: conn}, nil
}

// Initialize creates the events table if it is missing.
func (j *ClickHouse) Initialize(ctx context.Context) error {
	return j.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS lending_events (
			kind LowCardinality(String),
			borrowing_id Int64,
			book_id Int64,
			user_id Int64,
			date Date,
			recorded_at DateTime
		) ENGINE = MergeTree()
		ORDER BY (date, borrowing_id)
	`)
}

func (j *ClickHouse) Record(ctx context.Context, ev model.LendingEvent) error {
	err := j.conn.Exec(ctx, `INSERT INTO lending_events (kind, borrowing_id, book_id, user_id, date, recorded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		string(ev.Kind), ev.BorrowingID, ev.BookID, ev.UserID, ev.Date, ev.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to record lending event: %w", err)
	}
	return nil
}

func (j *ClickHouse) Close() error { return j.conn.Close() }

// Nop discards events. It is used when no ClickHouse is configured.
type Nop struct{}

func (Nop) Record(context.Context, model.LendingEvent) error { return nil }
