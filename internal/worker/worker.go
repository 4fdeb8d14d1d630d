package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"reelforge/internal/apperr"
)

// Task is one unit of work executed on its own goroutine.
type Task func(ctx context.Context)

// Pool runs tasks on dedicated goroutines, at most maxConcurrent at a time.
// Admitted tasks beyond that wait for a slot; admission itself is bounded by
// maxConcurrent+maxPending.
type Pool struct {
	logger        *slog.Logger
	maxConcurrent int
	maxPending    int
	slots         chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	admitted int
	running  int
	closed   bool
}

type Option func(*Pool)

func WithMaxConcurrent(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.maxConcurrent = n
		}
	}
}

func WithMaxPending(n int) Option {
	return func(p *Pool) {
		if n >= 0 {
			p.maxPending = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPool creates a new pool
func NewPool(opts ...Option) *Pool {
	p := &Pool{
		logger:        slog.Default(),
		maxConcurrent: 4,
		maxPending:    64,
	}
	for _, o := range opts {
		o(p)
	}
	p.slots = make(chan struct{}, p.maxConcurrent)
	p.ctx, p.cancel = context.WithCancel(context.Background())
	return p
}

// Admission is reserved capacity for one task. It must be either run or released.
type Admission struct {
	pool *Pool
	once sync.Once
}

// Admit reserves capacity or fails with apperr.ErrBusy.
func (p *Pool) Admit() (*Admission, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, fmt.Errorf("%w: pool is shutting down", apperr.ErrBusy)
	}
	if p.admitted >= p.maxConcurrent+p.maxPending {
		return nil, fmt.Errorf("%w: %d jobs in flight", apperr.ErrBusy, p.admitted)
	}
	p.admitted++
	// Counted under mu so Stop never waits on a zero counter while an
	// admission is outstanding.
	p.wg.Add(1)
	return &Admission{pool: p}, nil
}

// Release returns unused capacity. Go releases automatically when the task ends.
func (a *Admission) Release() {
	a.once.Do(a.pool.leave)
}

// Go starts task on its own goroutine. The task waits for a free slot and is
// always invoked exactly once; its context is cancelled when ctx is done or
// the pool stops, including while it is still waiting for a slot.
func (a *Admission) Go(ctx context.Context, name string, task Task) {
	p := a.pool
	go func() {
		defer a.Release()

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(p.ctx, cancel)
		defer stop()

		select {
		case p.slots <- struct{}{}:
			defer func() { <-p.slots }()
		case <-runCtx.Done():
			p.logger.Info("worker.task.cancelled_before_start", "task", name)
		}

		p.setRunning(1)
		defer p.setRunning(-1)
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("worker.task.panic", "task", name, "panic", r, "stack", string(debug.Stack()))
			}
		}()
		task(runCtx)
	}()
}

func (p *Pool) leave() {
	p.mu.Lock()
	p.admitted--
	p.mu.Unlock()
	p.wg.Done()
}

func (p *Pool) setRunning(delta int) {
	p.mu.Lock()
	p.running += delta
	p.mu.Unlock()
}

// Stats reports running and waiting task counts.
func (p *Pool) Stats() (running, waiting int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running, p.admitted - p.running
}

// Capacity returns the concurrency and pending limits.
func (p *Pool) Capacity() (maxConcurrent, maxPending int) {
	return p.maxConcurrent, p.maxPending
}

// Stop rejects new admissions and waits for admitted tasks to drain. When ctx
// expires first, remaining tasks are cancelled and ctx.Err() is returned.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); p.wg.Wait() }()

	select {
	case <-ctx.Done():
		p.cancel()
		p.logger.Warn("worker.pool.stop_interrupted")
		return ctx.Err()
	case <-done:
		p.cancel()
		p.logger.Info("worker.pool.stopped")
		return nil
	}
}
