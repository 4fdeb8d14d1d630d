package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"reelforge/internal/apperr"
)

// TestPoolBoundsConcurrency verifies no more than maxConcurrent tasks run at once.
func TestPoolBoundsConcurrency(t *testing.T) {
	p := NewPool(WithMaxConcurrent(2), WithMaxPending(10))

	var current, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		adm, err := p.Admit()
		if err != nil {
			t.Fatalf("Admit() error = %v", err)
		}
		wg.Add(1)
		adm.Go(context.Background(), "t", func(ctx context.Context) {
			defer wg.Done()
			n := atomic.AddInt32(&current, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&current, -1)
		})
	}
	wg.Wait()

	if peak > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", peak)
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

// TestPoolAdmitRejectsWhenFull verifies admission is capped and released capacity is reusable.
func TestPoolAdmitRejectsWhenFull(t *testing.T) {
	p := NewPool(WithMaxConcurrent(1), WithMaxPending(1))

	a1, err := p.Admit()
	if err != nil {
		t.Fatalf("Admit() #1 error = %v", err)
	}
	if _, err := p.Admit(); err != nil {
		t.Fatalf("Admit() #2 error = %v", err)
	}
	if _, err := p.Admit(); !errors.Is(err, apperr.ErrBusy) {
		t.Fatalf("Admit() #3 error = %v, want ErrBusy", err)
	}

	a1.Release()
	a1.Release()
	if _, err := p.Admit(); err != nil {
		t.Fatalf("Admit() after release error = %v", err)
	}
	if _, err := p.Admit(); !errors.Is(err, apperr.ErrBusy) {
		t.Fatalf("double Release() freed two slots")
	}
}

// TestPoolRecoversPanics verifies a panicking task does not take down the pool.
func TestPoolRecoversPanics(t *testing.T) {
	p := NewPool(WithMaxConcurrent(1))

	adm, _ := p.Admit()
	adm.Go(context.Background(), "boom", func(ctx context.Context) { panic("boom") })

	done := make(chan struct{})
	adm2, _ := p.Admit()
	adm2.Go(context.Background(), "ok", func(ctx context.Context) { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("task after panic never ran")
	}
	_ = p.Stop(context.Background())
}

// TestPoolCancelWhileWaiting verifies a waiting task still runs once with a cancelled context.
func TestPoolCancelWhileWaiting(t *testing.T) {
	p := NewPool(WithMaxConcurrent(1))
	release := make(chan struct{})

	adm, _ := p.Admit()
	adm.Go(context.Background(), "blocker", func(ctx context.Context) { <-release })

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan error, 1)
	adm2, _ := p.Admit()
	adm2.Go(ctx, "waiter", func(ctx context.Context) { got <- ctx.Err() })

	cancel()
	select {
	case err := <-got:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("waiter ctx.Err() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("cancelled waiter was never invoked")
	}

	close(release)
	_ = p.Stop(context.Background())
}

// TestPoolStopRejectsAdmission verifies a stopped pool refuses new work.
func TestPoolStopRejectsAdmission(t *testing.T) {
	p := NewPool()
	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if _, err := p.Admit(); !errors.Is(err, apperr.ErrBusy) {
		t.Fatalf("Admit() after Stop error = %v, want ErrBusy", err)
	}
}

// TestPoolStopWaitsForAdmittedTask verifies Stop drains an admission whose
// task has not been started yet.
func TestPoolStopWaitsForAdmittedTask(t *testing.T) {
	p := NewPool(WithMaxConcurrent(1))
	adm, err := p.Admit()
	if err != nil {
		t.Fatalf("Admit() error = %v", err)
	}

	stopped := make(chan error, 1)
	go func() { stopped <- p.Stop(context.Background()) }()

	select {
	case err := <-stopped:
		t.Fatalf("Stop() returned %v before the admitted task ran", err)
	case <-time.After(30 * time.Millisecond):
	}

	var ran atomic.Bool
	adm.Go(context.Background(), "late", func(ctx context.Context) { ran.Store(true) })

	select {
	case err := <-stopped:
		if err != nil {
			t.Fatalf("Stop() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Stop() never returned")
	}
	if !ran.Load() {
		t.Error("Stop() returned before the admitted task finished")
	}
}

// TestPoolReleaseUnblocksStop verifies an unused admission released by its
// holder lets Stop finish.
func TestPoolReleaseUnblocksStop(t *testing.T) {
	p := NewPool()
	adm, _ := p.Admit()
	adm.Release()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

// TestJanitorSweeps verifies the sweep runs on the ticker until stopped.
func TestJanitorSweeps(t *testing.T) {
	var calls int32
	j := NewJanitor(5*time.Millisecond, func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 1, nil
	}, nil)

	j.Start(context.Background())
	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&calls) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	j.Stop()
	j.Stop()

	if atomic.LoadInt32(&calls) < 2 {
		t.Fatalf("sweep calls = %d, want >= 2", calls)
	}
}
