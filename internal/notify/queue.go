package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/aura-events/backend/pkg/queue"
)

// Enqueuer is the subset of queue.Queue used by QueueEmitter.
type Enqueuer interface {
	EnqueueNotification(ctx context.Context, payload queue.NotificationPayload) error
}

// QueueEmitter hands notifications to the delivery worker through the Redis job queue.
type QueueEmitter struct {
	q      Enqueuer
	logger *zap.Logger
}

// NewQueueEmitter creates an emitter backed by q.
func NewQueueEmitter(q Enqueuer, logger *zap.Logger) *QueueEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueEmitter{q: q, logger: logger}
}

// Push implements Emitter. Enqueue failures are logged and dropped.
func (e *QueueEmitter) Push(ctx context.Context, n Notification) {
	err := e.q.EnqueueNotification(ctx, queue.NotificationPayload{
		RecipientID: n.Recipient,
		Message:     n.Text,
		Metadata:    n.Metadata,
		EmittedAt:   n.At,
	})
	if err != nil {
		e.logger.Error("enqueue notification failed", zap.Error(err), zap.String("recipient_id", n.Recipient))
	}
}
