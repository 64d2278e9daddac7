package app

import (
	"context"
	"time"

	"github.com/cherrydine/cherrydine/config"
	"github.com/cherrydine/cherrydine/pkg/logger"
	"github.com/cherrydine/cherrydine/pkg/metrics"
	"github.com/cherrydine/cherrydine/pkg/queue"
	"github.com/cherrydine/cherrydine/pkg/schedule"
)

// Scheduler registers the maintenance tasks. The caller starts it.
func (a *Application) Scheduler() (*schedule.Scheduler, error) {
	s, err := schedule.New()
	if err != nil {
		return nil, err
	}
	if err := s.Every("orders.sample-open", time.Minute, a.sampleOpenOrders); err != nil {
		return nil, err
	}
	if err := s.Daily("queue.prune-failed", 3, 0, a.pruneFailedJobs); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *Application) sampleOpenOrders(ctx context.Context) error {
	n, err := a.Orders.CountOpen(ctx)
	if err != nil {
		return err
	}
	metrics.OpenOrders.Set(float64(n))
	return nil
}

func (a *Application) pruneFailedJobs(ctx context.Context) error {
	n, err := queue.PruneFailed(ctx, a.DB, config.FailedJobTTL())
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Info("queue: pruned failed jobs", "count", n)
	}
	return nil
}
