// Package sqlite is the relational store of the storefront: connection
// management, schema migrations, WAL checkpointing and the repositories.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/skateshop/storefront/internal/api/metrics"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultBusyTimeout = 5 * time.Second

	memoryPath = ":memory:"
)

// Config captures the settings for opening the database.
type Config struct {
	Path        string
	Timeout     time.Duration
	BusyTimeout time.Duration
}

// Open opens the database in WAL mode with foreign keys enforced, verifies
// connectivity and applies pending migrations.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	db, err := sql.Open("sqlite", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if cfg.Path == memoryPath {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// dsn builds a modernc.org/sqlite DSN. Pragmas are passed in the DSN so that
// every pooled connection gets them, not only the first one.
func dsn(cfg Config) string {
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = defaultBusyTimeout
	}

	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")

	return "file:" + cfg.Path + "?" + q.Encode()
}

// Checkpoint runs PRAGMA wal_checkpoint with the given mode (PASSIVE, FULL,
// RESTART or TRUNCATE).
func Checkpoint(ctx context.Context, db *sql.DB, mode string) error {
	_, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint("+mode+")")
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.StoreCheckpointsTotal.WithLabelValues(mode, result).Inc()
	if err != nil {
		return fmt.Errorf("wal checkpoint %s: %w", mode, err)
	}
	return nil
}

// Shutdown flushes the write-ahead log into the main database file and closes
// the connection pool. It is the last thing to run before the process exits.
func Shutdown(ctx context.Context, db *sql.DB, log zerolog.Logger) error {
	if err := Checkpoint(ctx, db, "FULL"); err != nil {
		log.Error().Err(err).Msg("final checkpoint failed")
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	log.Info().Msg("database closed")
	return nil
}
