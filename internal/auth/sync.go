package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/scheduling"
)

// DirectorySource lists registered accounts as directory entries.
type DirectorySource interface {
	ListDirectory(ctx context.Context) ([]models.User, error)
}

// SyncDirectory copies every account into the scheduling directory. Existing entries are left alone,
// so it is safe to run on every start, and it rebuilds the directory for stores that do not persist.
func SyncDirectory(ctx context.Context, src DirectorySource, dst Directory, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	users, err := src.ListDirectory(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	added := 0
	for _, u := range users {
		err := dst.AddUser(ctx, u)
		switch {
		case err == nil:
			added++
		case errors.Is(err, scheduling.ErrUserExists):
		default:
			return fmt.Errorf("add user %s: %w", u.ID, err)
		}
	}
	logger.Info("user directory synced", zap.Int("accounts", len(users)), zap.Int("added", added))
	return nil
}
