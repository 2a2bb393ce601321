package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/realtime"
	"github.com/aura-events/backend/pkg/queue"
)

// Inbox persists delivered notifications.
type Inbox interface {
	Insert(ctx context.Context, n *models.Notification) error
}

// Publisher pushes an event to a user's live channel.
type Publisher interface {
	PublishUserEvent(ctx context.Context, userID, event string, payload []byte) error
}

// ObjectDeleter removes a media blob.
type ObjectDeleter interface {
	Delete(ctx context.Context, key string) error
}

// JobQueue is the subset of queue.Queue the processor consumes.
type JobQueue interface {
	Dequeue(ctx context.Context, keys ...string) (*queue.Job, string, error)
	Retry(ctx context.Context, key string, job *queue.Job) error
}

// Processor executes queued jobs: notification delivery and media purges.
type Processor struct {
	inbox   Inbox
	pub     Publisher
	objects ObjectDeleter
	queue   JobQueue
	backoff time.Duration
	logger  *zap.Logger
}

// NewProcessor creates a job processor. A nil objects store leaves purge jobs to be retried into the DLQ.
func NewProcessor(inbox Inbox, pub Publisher, objects ObjectDeleter, q JobQueue, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{inbox: inbox, pub: pub, objects: objects, queue: q, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeNotification:
		var payload queue.NotificationPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
		return p.deliver(ctx, payload)
	case queue.JobTypeMediaPurge:
		var payload queue.MediaPurgePayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
		return p.purge(ctx, payload)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// deliver stores the notification in the recipient's inbox, then pushes it live.
// A failed live push is not retried; the inbox already has the row.
func (p *Processor) deliver(ctx context.Context, payload queue.NotificationPayload) error {
	if payload.RecipientID == "" {
		return fmt.Errorf("notification without recipient")
	}
	n := &models.Notification{RecipientID: payload.RecipientID, Message: payload.Message}
	if len(payload.Metadata) > 0 {
		meta, err := json.Marshal(payload.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		n.Metadata = meta
	}
	if err := p.inbox.Insert(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	if p.pub == nil {
		return nil
	}
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := p.pub.PublishUserEvent(ctx, n.RecipientID, realtime.EventNotification, body); err != nil {
		p.logger.Warn("live push failed", zap.Error(err), zap.String("recipient_id", n.RecipientID))
	}
	return nil
}

func (p *Processor) purge(ctx context.Context, payload queue.MediaPurgePayload) error {
	if p.objects == nil {
		return fmt.Errorf("media storage not configured")
	}
	if err := p.objects.Delete(ctx, payload.Key); err != nil {
		return fmt.Errorf("delete %s: %w", payload.Key, err)
	}
	p.logger.Info("media purged", zap.String("event_id", payload.EventID.String()), zap.String("key", payload.Key))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("worker stopping")
			return
		default:
		}

		job, key, err := p.queue.Dequeue(ctx, queue.QueueNotifications, queue.QueueMediaPurge)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(ctx, key, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *Processor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
