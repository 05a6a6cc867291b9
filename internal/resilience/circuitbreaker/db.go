package circuitbreaker

import (
	"context"
	"database/sql"
	"time"
)

// DBConfig returns configuration for the article store.
// Opens after 5 consecutive failures, 30 second timeout.
func DBConfig() Config {
	return Config{
		Name:             "database",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 1.0,
		MinRequests:      5,
	}
}

// DB guards a *sql.DB with a circuit breaker so that an unavailable article
// store fails fast instead of stalling every chunk of an ingestion run.
// It satisfies the small query interface the Postgres repositories use.
type DB struct {
	cb *CircuitBreaker
	db *sql.DB
}

// NewDB wraps db with the DBConfig breaker.
func NewDB(db *sql.DB) *DB {
	return NewDBWithConfig(db, DBConfig())
}

// NewDBWithConfig wraps db with a breaker built from cfg.
func NewDBWithConfig(db *sql.DB, cfg Config) *DB {
	return &DB{cb: New(cfg), db: db}
}

// ExecContext executes a statement through the breaker.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return Do(d.cb, func() (sql.Result, error) {
		return d.db.ExecContext(ctx, query, args...)
	})
}

// QueryContext executes a query through the breaker.
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return Do(d.cb, func() (*sql.Rows, error) {
		return d.db.QueryContext(ctx, query, args...)
	})
}

// QueryRowContext bypasses the breaker: sql.Row defers its error until Scan.
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, query, args...)
}

// Breaker exposes the underlying breaker for health reporting.
func (d *DB) Breaker() *CircuitBreaker {
	return d.cb
}
