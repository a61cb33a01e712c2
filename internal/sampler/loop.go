package sampler

import (
	"context"
	"log/slog"
	"time"

	"github.com/joescharf/worktime/internal/engine"
	"github.com/joescharf/worktime/internal/models"
)

// Tracker is the part of engine.Tracker the loop drives.
type Tracker interface {
	Status() *engine.Status
	Tick(ctx context.Context, appName string) error
	CheckIdle(ctx context.Context) (*models.TrackingEvent, error)
}

// Loop samples activity on a fixed interval while tracking and runs the
// auto-stop watchdog on every interval.
type Loop struct {
	tracker  Tracker
	sampler  Sampler
	interval time.Duration
	logger   *slog.Logger
}

// NewLoop creates a sampling loop. A nil logger uses slog.Default().
func NewLoop(t Tracker, s Sampler, interval time.Duration, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Loop{tracker: t, sampler: s, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled. Ticks are handed to a worker; when the
// worker is still busy with the previous tick the new one is dropped so the
// ticker itself never blocks.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	work := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-work:
				l.Step(ctx)
			}
		}
	}()

	l.logger.Info("sampler loop started", "interval", l.interval)
	for {
		select {
		case <-ctx.Done():
			<-done
			l.logger.Info("sampler loop stopped")
			return ctx.Err()
		case <-ticker.C:
			select {
			case work <- struct{}{}:
			default:
				l.logger.Warn("previous sample still running, skipping tick")
			}
		}
	}
}

// Step runs one sampling round: it records activity when the sampler sees
// any, then runs the watchdog. A failed sample counts as no activity.
func (l *Loop) Step(ctx context.Context) {
	if l.tracker.Status().IsTracking {
		sctx, cancel := context.WithTimeout(ctx, l.interval)
		app, err := l.sampler.Sample(sctx)
		cancel()
		if err != nil {
			l.logger.Debug("no activity sampled", "error", err)
		} else if err := l.tracker.Tick(ctx, app); err != nil {
			l.logger.Debug("tick ignored", "error", err)
		}
	}

	ev, err := l.tracker.CheckIdle(ctx)
	if err != nil {
		l.logger.Error("idle check failed", "error", err)
		return
	}
	if ev != nil {
		l.logger.Info("tracking auto-stopped by watchdog", "project", ev.ProjectID, "seconds", ev.Seconds)
	}
}
