package store

import (
	"context"
	"sync"

	"github.com/aura-events/backend/internal/models"
)

// Memory is an in-process EventStore. Load and Save hand out deep copies.
type Memory struct {
	mu   sync.Mutex
	snap *models.Snapshot
	// FailSave, when set, is returned by the next Save calls instead of persisting.
	FailSave error
}

// NewMemory creates a Memory store seeded with snap (nil means empty).
func NewMemory(snap *models.Snapshot) *Memory {
	if snap == nil {
		snap = &models.Snapshot{}
	}
	return &Memory{snap: snap.Clone()}
}

// Load implements EventStore.
func (m *Memory) Load(ctx context.Context) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.Clone(), nil
}

// Save implements EventStore.
func (m *Memory) Save(ctx context.Context, snap *models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave != nil {
		return m.FailSave
	}
	if snap.Version != m.snap.Version {
		return ErrVersionConflict
	}
	snap.Version++
	m.snap = snap.Clone()
	return nil
}
