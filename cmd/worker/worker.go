package main

import (
	"context"
	"time"

	"bookstore/pkg/config"
	"bookstore/pkg/logger"
)

const purgeInterval = time.Hour

// Relay is the outbox relay driven by the worker.
type Relay interface {
	ProcessBatch(ctx context.Context) (int, error)
	PurgePublished(ctx context.Context, retention time.Duration) (int64, error)
}

// Worker polls the outbox and purges old published messages.
type Worker struct {
	relay Relay
	cfg   config.OutboxConfig
	log   *logger.Logger
}

// NewWorker creates a new outbox worker.
func NewWorker(relay Relay, cfg config.OutboxConfig, log *logger.Logger) *Worker {
	return &Worker{
		relay: relay,
		cfg:   cfg,
		log:   log.WithComponent("worker"),
	}
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	purgeTicker := time.NewTicker(purgeInterval)
	defer purgeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		case <-purgeTicker.C:
			w.purge(ctx)
		}
	}
}

// drain processes full batches back to back until the outbox runs dry.
func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			if ctx.Err() == nil {
				w.log.Errorw("outbox batch failed", "error", err)
			}
			return
		}
		if n > 0 {
			w.log.Debugw("outbox batch delivered", "count", n)
		}
		if n < w.cfg.BatchSize {
			return
		}
	}
}

func (w *Worker) purge(ctx context.Context) {
	if w.cfg.Retention <= 0 {
		return
	}
	n, err := w.relay.PurgePublished(ctx, w.cfg.Retention)
	if err != nil {
		w.log.Errorw("outbox purge failed", "error", err)
		return
	}
	if n > 0 {
		w.log.Infow("purged published outbox messages", "count", n)
	}
}
