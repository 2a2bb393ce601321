// Package store persists the whole scheduling snapshot atomically.
package store

import (
	"context"
	"errors"

	"github.com/aura-events/backend/internal/models"
)

// ErrVersionConflict is returned by Save when the snapshot changed since it was loaded.
var ErrVersionConflict = errors.New("snapshot version conflict")

// EventStore loads and saves the whole snapshot. Save is all-or-nothing and must reject a snapshot
// whose Version is not the currently stored one. On success the stored version is Version+1 and the
// passed snapshot's Version is updated to match.
type EventStore interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snap *models.Snapshot) error
}
