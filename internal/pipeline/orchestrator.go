// Package pipeline runs video generation jobs: it validates and admits
// submissions, drives each job through the five stages with per-stage
// fallback, and answers status, asset and event queries.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reelforge/internal/apperr"
	"reelforge/internal/events"
	"reelforge/internal/models"
	"reelforge/internal/storage"
	"reelforge/internal/worker"
)

// Config holds orchestrator limits and paths.
type Config struct {
	MaxVideoDuration int
	StageTimeout     time.Duration
	OutputDir        string
	DefaultLanguage  string
}

// Orchestrator owns job lifecycles. Every job runs on its own goroutine
// admitted through the worker pool; the store is the only shared state.
type Orchestrator struct {
	cfg      Config
	store    storage.Store
	pool     *worker.Pool
	bus      *events.Bus
	adapters Adapters
	log      *slog.Logger
	now      func() time.Time
	newID    func() string

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.log = logger
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithIDGenerator overrides uuid job ids, for tests.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) { o.newID = newID }
}

func New(cfg Config, store storage.Store, pool *worker.Pool, bus *events.Bus, adapters Adapters, opts ...Option) *Orchestrator {
	if cfg.MaxVideoDuration <= 0 {
		cfg.MaxVideoDuration = 300
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "data/outputs"
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en"
	}
	o := &Orchestrator{
		cfg:      cfg,
		store:    store,
		pool:     pool,
		bus:      bus,
		adapters: adapters,
		log:      slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		cancels:  make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Submit validates input, admits it to the pool, records a queued job and
// starts its task. It returns as soon as the record exists.
// Validation failures and a full pool create no record. Once accepted, a
// file source belongs to the job and is deleted when its task ends.
func (o *Orchestrator) Submit(ctx context.Context, input models.JobInput) (*models.Job, error) {
	input = o.normalize(input)
	if err := o.validate(input); err != nil {
		return nil, err
	}

	adm, err := o.pool.Admit()
	if err != nil {
		o.log.Warn("job.rejected", "reason", err)
		return nil, err
	}

	job := models.NewJob(o.newID(), input, o.now())
	if err := o.store.Create(ctx, job); err != nil {
		adm.Release()
		return nil, fmt.Errorf("create job: %w", err)
	}

	// Jobs outlive the submitting request.
	jobCtx, cancel := context.WithCancel(context.Background())
	o.mu.Lock()
	o.cancels[job.ID] = cancel
	o.mu.Unlock()

	o.publish(job, events.TypeQueued, "", "job queued")
	o.log.Info("job.queued", "job_id", job.ID, "source", input.Source.String(),
		"duration", input.Settings.Duration, "voice_style", input.Settings.VoiceStyle, "use_ai", input.Settings.UseAI)

	adm.Go(jobCtx, "job "+job.ID, func(ctx context.Context) {
		defer o.release(job.ID)
		o.run(ctx, job.ID)
	})
	return job, nil
}

func (o *Orchestrator) normalize(in models.JobInput) models.JobInput {
	if in.Settings.VoiceStyle == "" {
		in.Settings.VoiceStyle = models.VoiceProfessional
	}
	in.Settings.Language = strings.TrimSpace(in.Settings.Language)
	if in.Settings.Language == "" {
		in.Settings.Language = o.cfg.DefaultLanguage
	}
	if in.Source.Kind == "" {
		switch {
		case in.Source.URL != "":
			in.Source.Kind = models.SourceKindURL
		case in.Source.Path != "":
			in.Source.Kind = models.SourceKindFile
		}
	}
	in.Source.URL = strings.TrimSpace(in.Source.URL)
	return in
}

func (o *Orchestrator) validate(in models.JobInput) error {
	s := in.Settings
	v := apperr.NewValidator()
	v.Check(!in.Source.IsZero(), "source", "", "a url or an uploaded file is required")
	if in.Source.Kind == models.SourceKindURL {
		u, err := url.Parse(in.Source.URL)
		v.Check(err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "",
			"url", in.Source.URL, "must be an absolute http(s) URL")
	}
	v.Check(s.Duration >= 1, "duration", s.Duration, "must be at least 1 second")
	v.Check(s.Duration <= o.cfg.MaxVideoDuration, "duration", s.Duration,
		fmt.Sprintf("must not exceed %d seconds", o.cfg.MaxVideoDuration))
	v.Check(s.VoiceStyle.Valid(), "voiceStyle", s.VoiceStyle, "unknown voice style")
	return v.Err()
}

// Cancel requests cancellation. The job stops at its next stage boundary.
func (o *Orchestrator) Cancel(ctx context.Context, id string) error {
	job, err := o.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return fmt.Errorf("%w: job %s is %s", apperr.ErrTerminal, id, job.Status)
	}

	o.mu.Lock()
	cancel, ok := o.cancels[id]
	o.mu.Unlock()
	if !ok {
		// Finished between the read and now.
		return fmt.Errorf("%w: job %s", apperr.ErrTerminal, id)
	}
	cancel()
	o.log.Info("job.cancel_requested", "job_id", id, "status", job.Status)
	return nil
}

func (o *Orchestrator) release(id string) {
	o.mu.Lock()
	cancel, ok := o.cancels[id]
	delete(o.cancels, id)
	o.mu.Unlock()
	if ok {
		cancel()
	}
}

// Close stops admitting jobs and waits for running ones, cancelling them
// when ctx expires.
func (o *Orchestrator) Close(ctx context.Context) error {
	err := o.pool.Stop(ctx)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		o.log.Warn("pipeline.shutdown_forced", "error", err)
	}
	return err
}

func (o *Orchestrator) publish(job *models.Job, typ events.Type, stage models.Stage, msg string) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(events.Event{
		JobID:    job.ID,
		Type:     typ,
		Status:   job.Status,
		Progress: job.Progress,
		Stage:    stage,
		Message:  msg,
	})
}
