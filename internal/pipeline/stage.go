package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reelforge/internal/apperr"
	"reelforge/internal/models"
)

// errPanic marks an adapter call that panicked.
var errPanic = errors.New("adapter panicked")

// OutcomeKind tags how a stage ended.
type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomeFallback
	OutcomeFatal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeFallback:
		return "fallback"
	default:
		return "fatal"
	}
}

// Outcome is the result of one stage. Value is set for OK and Fallback,
// Reason explains a fallback or a degraded OK, Err is set for Fatal.
type Outcome[T any] struct {
	Kind   OutcomeKind
	Value  T
	Reason string
	Err    error
}

// stagePlan describes one adapter call and its failure policy.
type stagePlan[T any] struct {
	Stage models.Stage
	// Skip, when non-empty, bypasses the adapter and names the reason.
	Skip     string
	Call     func(ctx context.Context) (T, error)
	Fallback func() (T, error)
	// Partial switches to the extraction policy: an error is fatal unless
	// Partial accepts the value returned alongside it. Unavailability still
	// falls back.
	Partial func(T) bool
}

// runStage executes plan under timeout and applies the failure policy.
// A failing fallback is always fatal. A panicking adapter is fatal only under
// the extraction policy; elsewhere it falls back like any other error.
func runStage[T any](ctx context.Context, timeout time.Duration, plan stagePlan[T]) Outcome[T] {
	fallback := func(reason string) Outcome[T] {
		v, err := plan.Fallback()
		if err != nil {
			return Outcome[T]{Kind: OutcomeFatal, Err: &apperr.StageError{Stage: string(plan.Stage), Err: fmt.Errorf("fallback: %w", err)}}
		}
		return Outcome[T]{Kind: OutcomeFallback, Value: v, Reason: reason}
	}

	if plan.Skip != "" {
		return fallback(plan.Skip)
	}

	v, err := callWithTimeout(ctx, timeout, plan.Call)
	switch {
	case err == nil:
		return Outcome[T]{Kind: OutcomeOK, Value: v}
	case errors.Is(err, errPanic) && plan.Partial != nil:
		return Outcome[T]{Kind: OutcomeFatal, Err: &apperr.StageError{Stage: string(plan.Stage), Err: err}}
	case apperr.IsUnavailable(err):
		return fallback(err.Error())
	case plan.Partial != nil:
		if plan.Partial(v) {
			return Outcome[T]{Kind: OutcomeOK, Value: v, Reason: "partial result: " + err.Error()}
		}
		return Outcome[T]{Kind: OutcomeFatal, Err: &apperr.StageError{Stage: string(plan.Stage), Err: err}}
	default:
		return fallback(err.Error())
	}
}

// callWithTimeout runs fn detached from ctx cancellation, so a job cancel
// never interrupts an adapter mid-call, but bounded by timeout. On timeout
// the call keeps running in the background and its result is discarded.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	callCtx := context.WithoutCancel(ctx)
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(callCtx, timeout)
	}
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				done <- result{zero, fmt.Errorf("%w: %v", errPanic, r)}
			}
		}()
		v, err := fn(callCtx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-callCtx.Done():
		var zero T
		return zero, fmt.Errorf("timed out after %s: %w", timeout, callCtx.Err())
	}
}
