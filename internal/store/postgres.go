package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-events/backend/internal/models"
)

// snapshotRowID is the single row holding the snapshot.
const snapshotRowID = 1

// Postgres stores the snapshot as one JSONB row guarded by a version column.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres snapshot store. The event_snapshots table comes from the embedded migrations.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Load implements EventStore. A missing row is an empty snapshot at version 0.
func (p *Postgres) Load(ctx context.Context) (*models.Snapshot, error) {
	const q = `SELECT version, payload FROM event_snapshots WHERE id = $1`
	var (
		version int64
		payload []byte
	)
	err := p.pool.QueryRow(ctx, q, snapshotRowID).Scan(&version, &payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.Snapshot{}, nil
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	snap.Version = version
	return &snap, nil
}

// Save implements EventStore with a compare-and-swap on version.
func (p *Postgres) Save(ctx context.Context, snap *models.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var affected int64
	if snap.Version == 0 {
		tag, err := tx.Exec(ctx, `INSERT INTO event_snapshots (id, version, payload, updated_at)
			VALUES ($1, 1, $2, NOW())
			ON CONFLICT (id) DO NOTHING`, snapshotRowID, payload)
		if err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		affected = tag.RowsAffected()
	} else {
		tag, err := tx.Exec(ctx, `UPDATE event_snapshots
			SET version = version + 1, payload = $2, updated_at = NOW()
			WHERE id = $1 AND version = $3`, snapshotRowID, payload, snap.Version)
		if err != nil {
			return fmt.Errorf("update snapshot: %w", err)
		}
		affected = tag.RowsAffected()
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	snap.Version++
	return nil
}
