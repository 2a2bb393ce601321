package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/notify"
	"github.com/aura-events/backend/internal/scheduling"
	"github.com/aura-events/backend/internal/store"
)

type staticSource struct {
	users []models.User
	err   error
}

func (s staticSource) ListDirectory(context.Context) ([]models.User, error) {
	return s.users, s.err
}

func TestSyncDirectoryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory(&models.Snapshot{Users: []models.User{{ID: "A", Name: "userA"}}})
	sched := scheduling.New(st, notify.Nop{})
	src := staticSource{users: []models.User{
		{ID: "A", Name: "userA"},
		{ID: "B", Name: "userB", Surname: "Smith", Role: models.RoleOrganizer},
	}}

	require.NoError(t, SyncDirectory(ctx, src, sched, nil))
	require.NoError(t, SyncDirectory(ctx, src, sched, nil))

	snap, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Users, 2)
	b, ok := snap.User("B")
	require.True(t, ok)
	assert.Equal(t, models.RoleOrganizer, b.Role)
}

func TestSyncDirectorySourceError(t *testing.T) {
	sched := scheduling.New(store.NewMemory(nil), notify.Nop{})
	err := SyncDirectory(context.Background(), staticSource{err: errors.New("db down")}, sched, nil)
	assert.Error(t, err)
}
