package media

import (
	"context"

	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/queue"
)

// PurgeEnqueuer is the subset of queue.Queue used by QueuePurger.
type PurgeEnqueuer interface {
	EnqueueMediaPurge(ctx context.Context, payload queue.MediaPurgePayload) error
}

// QueuePurger defers blob deletion to the worker through the Redis job queue.
type QueuePurger struct {
	q      PurgeEnqueuer
	logger *zap.Logger
}

// NewQueuePurger creates a purger backed by q.
func NewQueuePurger(q PurgeEnqueuer, logger *zap.Logger) *QueuePurger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueuePurger{q: q, logger: logger}
}

// Purge implements scheduling.MediaPurger. Failures are logged; the reference is already gone.
func (p *QueuePurger) Purge(ctx context.Context, media []models.Media) {
	for _, m := range media {
		err := p.q.EnqueueMediaPurge(ctx, queue.MediaPurgePayload{EventID: m.EventID, Key: m.Key})
		if err != nil {
			p.logger.Error("enqueue media purge failed", zap.Error(err), zap.String("key", m.Key))
		}
	}
}

// DirectPurger deletes blobs inline; used when no queue is configured.
type DirectPurger struct {
	objects ObjectStore
	logger  *zap.Logger
}

// NewDirectPurger creates a purger that deletes from objects.
func NewDirectPurger(objects ObjectStore, logger *zap.Logger) *DirectPurger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectPurger{objects: objects, logger: logger}
}

// Purge implements scheduling.MediaPurger.
func (p *DirectPurger) Purge(ctx context.Context, media []models.Media) {
	for _, m := range media {
		if err := p.objects.Delete(ctx, m.Key); err != nil {
			p.logger.Warn("delete media object failed", zap.Error(err), zap.String("key", m.Key))
		}
	}
}
