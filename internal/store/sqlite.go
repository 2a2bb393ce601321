package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aura-events/backend/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS event_snapshots (
    id INTEGER PRIMARY KEY,
    version INTEGER NOT NULL,
    payload TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);`

// SQLite stores the snapshot in a single-file database; used for local runs without Postgres.
type SQLite struct {
	sqlDB *sql.DB
}

// OpenSQLite opens (and creates if needed) a snapshot database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &SQLite{sqlDB: sqlDB}, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Load implements EventStore.
func (s *SQLite) Load(ctx context.Context) (*models.Snapshot, error) {
	var (
		version int64
		payload string
	)
	err := s.sqlDB.QueryRowContext(ctx, `SELECT version, payload FROM event_snapshots WHERE id = ?`, snapshotRowID).
		Scan(&version, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.Snapshot{}, nil
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	snap.Version = version
	return &snap, nil
}

// Save implements EventStore.
func (s *SQLite) Save(ctx context.Context, snap *models.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	now := time.Now().UTC().UnixMilli()

	var result sql.Result
	if snap.Version == 0 {
		result, err = s.sqlDB.ExecContext(ctx, `INSERT OR IGNORE INTO event_snapshots (id, version, payload, updated_at)
VALUES (?, 1, ?, ?)`, snapshotRowID, string(payload), now)
	} else {
		result, err = s.sqlDB.ExecContext(ctx, `UPDATE event_snapshots
SET version = version + 1, payload = ?, updated_at = ?
WHERE id = ? AND version = ?`, string(payload), now, snapshotRowID, snap.Version)
	}
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save snapshot rows affected: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	snap.Version++
	return nil
}
