package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SweepFunc emits due live and reminder notifications.
type SweepFunc func(ctx context.Context) error

// Sweeper runs the scheduling sweep on a fixed interval so reminders go out even when nobody lists events.
type Sweeper struct {
	sweep    SweepFunc
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeper creates a sweeper. A non-positive interval disables it.
func NewSweeper(sweep SweepFunc, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{sweep: sweep, interval: interval, logger: logger}
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("sweeper disabled")
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopping")
			return
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("sweep failed", zap.Error(err))
			}
		}
	}
}
