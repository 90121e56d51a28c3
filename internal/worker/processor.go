// Package worker runs the conversion worker pool. Each worker blocks on the
// queue, then waits for one of the global processing slots before touching
// the job, so admission order is preserved and at most MaxConcurrent jobs
// run at once across the pool.
package worker

import (
	"context"
	"fmt"
	"log"
	"os"

	"reelforge/internal/config"
	"reelforge/internal/jobs"
	"reelforge/internal/models"
	"reelforge/internal/queue"
	"reelforge/internal/telemetry"
)

// Handler executes one queue item kind.
type Handler func(ctx context.Context, item models.QueueItem) error

// Processor drives the worker execution loop.
type Processor struct {
	cfg      config.Config
	queue    queue.Queue
	store    *jobs.Store
	slots    *jobs.Slots
	handlers map[string]Handler
}

func NewProcessor(cfg config.Config, q queue.Queue, st *jobs.Store, slots *jobs.Slots) *Processor {
	return &Processor{
		cfg:      cfg,
		queue:    q,
		store:    st,
		slots:    slots,
		handlers: make(map[string]Handler),
	}
}

// RegisterHandler binds a handler to a queue item kind.
func (p *Processor) RegisterHandler(kind string, handler Handler) {
	if kind == "" || handler == nil {
		return
	}
	p.handlers[kind] = handler
}

// Run consumes the queue until context cancellation. It is intended to be
// launched once per worker goroutine.
func (p *Processor) Run(ctx context.Context) error {
	for {
		item, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("worker: dequeue: %v", err)
			continue
		}
		if depth, err := p.queue.Depth(ctx); err == nil {
			telemetry.QueueDepthGauge.Set(float64(depth))
		}

		if err := p.slots.Acquire(ctx); err != nil {
			return err
		}
		telemetry.ActiveJobsGauge.Set(float64(p.slots.Active()))

		p.store.MarkProcessing(item.ID)
		err = p.runItem(ctx, item)
		p.slots.Release()
		telemetry.ActiveJobsGauge.Set(float64(p.slots.Active()))

		if err != nil {
			p.store.MarkError(item.ID, err.Error())
			telemetry.JobsFailed.Inc()
			log.Printf("worker: job %s failed: %v", item.ID, err)
			continue
		}
		telemetry.JobsCompleted.Inc()
	}
}

func (p *Processor) runItem(ctx context.Context, item models.QueueItem) error {
	handler, ok := p.handlers[item.Kind]
	if !ok {
		return fmt.Errorf("no handler registered for kind %q", item.Kind)
	}
	defer func() {
		if item.InputPath != "" {
			if err := os.Remove(item.InputPath); err != nil && !os.IsNotExist(err) {
				log.Printf("worker: remove input %s: %v", item.InputPath, err)
			}
		}
	}()
	return handler(ctx, item)
}
