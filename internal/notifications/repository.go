package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-events/backend/internal/models"
)

// Inbox stores delivered notifications per recipient.
type Inbox interface {
	Insert(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipientID string, ids []uuid.UUID) (int64, error)
}

// Repository handles notification inbox persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a notifications repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert writes a notification and fills ID and CreatedAt.
func (r *Repository) Insert(ctx context.Context, n *models.Notification) error {
	const q = `INSERT INTO notifications (id, recipient_id, message, metadata)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, created_at`
	var metadata []byte
	if len(n.Metadata) > 0 {
		metadata = n.Metadata
	}
	return r.pool.QueryRow(ctx, q, n.RecipientID, n.Message, metadata).Scan(&n.ID, &n.CreatedAt)
}

// ListByRecipient returns the newest notifications for a recipient.
func (r *Repository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	const q = `SELECT id, recipient_id, message, metadata, read_at, created_at
		FROM notifications
		WHERE recipient_id = $1 AND ($2 = FALSE OR read_at IS NULL)
		ORDER BY created_at DESC
		LIMIT $3`
	rows, err := r.pool.Query(ctx, q, recipientID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Notification, error) {
		var n models.Notification
		err := row.Scan(&n.ID, &n.RecipientID, &n.Message, &n.Metadata, &n.ReadAt, &n.CreatedAt)
		return n, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan notifications: %w", err)
	}
	return list, nil
}

// MarkRead marks the recipient's notifications as read. An empty ids marks all of them.
func (r *Repository) MarkRead(ctx context.Context, recipientID string, ids []uuid.UUID) (int64, error) {
	var (
		tag pgconn.CommandTag
		err error
	)
	if len(ids) == 0 {
		tag, err = r.pool.Exec(ctx, `UPDATE notifications SET read_at = NOW()
			WHERE recipient_id = $1 AND read_at IS NULL`, recipientID)
	} else {
		strIDs := make([]string, len(ids))
		for i, id := range ids {
			strIDs[i] = id.String()
		}
		tag, err = r.pool.Exec(ctx, `UPDATE notifications SET read_at = NOW()
			WHERE recipient_id = $1 AND read_at IS NULL AND id = ANY($2::uuid[])`, recipientID, strIDs)
	}
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	return tag.RowsAffected(), nil
}
