package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SweepFunc performs one retention pass.
type SweepFunc func(ctx context.Context) (int, error)

// Janitor runs a sweep on a fixed interval until stopped.
type Janitor struct {
	sweep    SweepFunc
	interval time.Duration
	logger   *slog.Logger
	stop     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// NewJanitor creates a new janitor
func NewJanitor(interval time.Duration, sweep SweepFunc, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		sweep:    sweep,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start begins sweeping
func (j *Janitor) Start(ctx context.Context) {
	j.wg.Add(1)
	go j.run(ctx)
	j.logger.Info("worker.janitor.started", "interval", j.interval.String())
}

// Stop gracefully stops the janitor
func (j *Janitor) Stop() {
	j.once.Do(func() { close(j.stop) })
	j.wg.Wait()
	j.logger.Info("worker.janitor.stopped")
}

func (j *Janitor) run(ctx context.Context) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stop:
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *Janitor) runOnce(ctx context.Context) {
	start := time.Now()
	n, err := j.sweep(ctx)
	if err != nil {
		j.logger.Error("worker.janitor.sweep_failed", "error", err)
		return
	}
	if n > 0 {
		j.logger.Info("worker.janitor.swept", "removed", n, "elapsed_ms", time.Since(start).Milliseconds())
	}
}
