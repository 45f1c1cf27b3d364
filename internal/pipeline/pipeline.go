// Package pipeline publishes prediction batches on a fixed schedule.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
	"github.com/ljjun8453/BLEP-Contest/internal/domain"
	"github.com/ljjun8453/BLEP-Contest/internal/observability"
)

// BatchSource produces a fresh prediction batch for every registry location.
type BatchSource interface {
	Snapshot(ctx context.Context) domain.PredictionBatch
}

// BatchLoader writes a prediction batch to the destination.
type BatchLoader interface {
	PublishBatch(ctx context.Context, batch domain.PredictionBatch) error
}

// Options tune the publish schedule.
type Options struct {
	Interval       time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultOptions publishes every 10 minutes and retries a failed publish
// twice.
func DefaultOptions() Options {
	return Options{
		Interval:       10 * time.Minute,
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
	}
}

// Pipeline runs a prediction pass every interval and loads the result.
type Pipeline struct {
	source  BatchSource
	loader  BatchLoader
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
	opts    Options
}

// New creates a Pipeline. A nil clock uses real time.
func New(src BatchSource, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, opts Options, clock clockwork.Clock) *Pipeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Pipeline{
		source:  src,
		loader:  l,
		logger:  logger,
		metrics: metrics,
		clock:   clock,
		opts:    opts,
	}
}

// Run publishes one batch immediately and then one per interval until the
// context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("scheduled publisher started", "interval", p.opts.Interval)
	p.metrics.PublisherRunning.Set(1)
	defer p.metrics.PublisherRunning.Set(0)

	ticker := p.clock.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	p.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("scheduled publisher stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			p.runOnce(ctx)
		}
	}
}

// runOnce scores and loads one batch. A batch that still fails after
// MaxAttempts is dropped; the next tick produces a fresh one.
func (p *Pipeline) runOnce(ctx context.Context) {
	batch := p.source.Snapshot(ctx)
	if len(batch.Predictions) == 0 || ctx.Err() != nil {
		return
	}

	backoff := p.opts.InitialBackoff
	for attempt := 1; ; attempt++ {
		err := p.loader.PublishBatch(ctx, batch)
		if err == nil {
			p.metrics.MessagesPublished.Add(float64(len(batch.Predictions)))
			p.logger.Debug("scheduled batch published", "batch_id", batch.ID, "count", len(batch.Predictions))
			return
		}
		if ctx.Err() != nil {
			return
		}
		p.metrics.PublishErrors.Inc()
		p.logger.Error("publish batch failed", "batch_id", batch.ID, "attempt", attempt, "error", err)

		if attempt >= p.opts.MaxAttempts {
			p.logger.Warn("dropping batch after retries", "batch_id", batch.ID, "attempts", attempt)
			return
		}
		if !retry.SleepWithContext(ctx, backoff) {
			return
		}
		backoff = retry.NextBackoff(backoff, p.opts.MaxBackoff)
	}
}
