package dedup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"iris/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements domain.DedupStore using SQLite. Records carry an
// expires_at timestamp; anything past it counts as never seen.
type SQLiteStore struct {
	db        *sql.DB
	retention time.Duration
	logger    *slog.Logger
}

func NewSQLiteStore(dbPath string, retention time.Duration, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Set connection pool (single connection for SQLite)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, retention: retention, logger: logger}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS seen_messages (
		message_id  TEXT PRIMARY KEY,
		first_seen  DATETIME DEFAULT CURRENT_TIMESTAMP,
		expires_at  DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_seen_expires ON seen_messages(expires_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// HasSeen reports whether a live record exists for the message id.
func (s *SQLiteStore) HasSeen(ctx context.Context, messageID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM seen_messages WHERE message_id = ? AND expires_at > ?`,
		messageID, time.Now().UTC(),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("%w: has_seen: %v", domain.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// MarkSeen upserts the record with a fresh expiry. Expired rows are purged
// opportunistically on the same write path.
func (s *SQLiteStore) MarkSeen(ctx context.Context, messageID string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO seen_messages (message_id, expires_at) VALUES (?, ?)
		 ON CONFLICT(message_id) DO UPDATE SET expires_at = excluded.expires_at`,
		messageID, now.Add(s.retention),
	)
	if err != nil {
		return fmt.Errorf("%w: mark_seen: %v", domain.ErrStoreUnavailable, err)
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM seen_messages WHERE expires_at <= ?`, now,
	); err != nil {
		s.logger.Warn("dedup purge failed", "error", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
