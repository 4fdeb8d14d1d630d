package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"reelforge/internal/apperr"
	"reelforge/internal/events"
	"reelforge/internal/models"
	"reelforge/internal/storage"
)

// Status returns the full job record.
func (o *Orchestrator) Status(ctx context.Context, id string) (*models.Job, error) {
	return o.store.Get(ctx, id)
}

// Asset returns the path of the rendered video. Unknown jobs and missing or
// simulated files are NotFound; jobs that have not completed are NotReady.
func (o *Orchestrator) Asset(ctx context.Context, id string) (string, error) {
	job, err := o.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if job.Status != models.JobStatusCompleted {
		return "", apperr.NotReady(id, string(job.Status))
	}
	video := job.Result.Video
	if video.Simulated || video.Path == "" {
		return "", apperr.NewAppError("not_found", fmt.Sprintf("job %q has no rendered video (renderer ran in fallback mode)", id), apperr.ErrNotFound)
	}
	if st, err := os.Stat(video.Path); err != nil || st.IsDir() {
		return "", apperr.NotFound("video", id)
	}
	return video.Path, nil
}

// List returns recent jobs, newest first.
func (o *Orchestrator) List(ctx context.Context, opts storage.ListOptions) ([]*models.Job, error) {
	return o.store.List(ctx, opts)
}

// Stats is a snapshot of job counts and pool usage.
type Stats struct {
	Total         int                      `json:"total"`
	ByStatus      map[models.JobStatus]int `json:"byStatus"`
	Running       int                      `json:"running"`
	Waiting       int                      `json:"waiting"`
	MaxConcurrent int                      `json:"maxConcurrent"`
	MaxPending    int                      `json:"maxPending"`
}

func (o *Orchestrator) Stats(ctx context.Context) (Stats, error) {
	byStatus, err := o.store.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	s := Stats{ByStatus: make(map[models.JobStatus]int, len(models.JobStatuses))}
	for _, st := range models.JobStatuses {
		s.ByStatus[st] = byStatus[st]
		s.Total += byStatus[st]
	}
	s.Running, s.Waiting = o.pool.Stats()
	s.MaxConcurrent, s.MaxPending = o.pool.Capacity()
	return s, nil
}

// Subscribe streams the job's events, starting with those already buffered.
// The channel closes after the terminal event or when ctx is done.
func (o *Orchestrator) Subscribe(ctx context.Context, id string) (<-chan events.Event, error) {
	if _, err := o.store.Get(ctx, id); err != nil {
		return nil, err
	}
	live, cancel := o.bus.Subscribe(id, 32)
	history := o.bus.Since(0, id)

	// The terminal event may have been published before the subscription.
	job, err := o.store.Get(ctx, id)
	if err != nil {
		cancel()
		return nil, err
	}
	done := job.Status.Terminal()

	out := make(chan events.Event, len(history)+1)
	go func() {
		defer close(out)
		defer cancel()

		var last int64
		send := func(e events.Event) bool {
			if e.Seq <= last {
				return true
			}
			last = e.Seq
			select {
			case out <- e:
				return !e.Terminal()
			case <-ctx.Done():
				return false
			}
		}

		for _, e := range history {
			if !send(e) {
				return
			}
		}
		if done {
			// Flush whatever arrived between the history read and the status read.
			for {
				select {
				case e, ok := <-live:
					if !ok || !send(e) {
						return
					}
				default:
					return
				}
			}
		}
		for {
			select {
			case e, ok := <-live:
				if !ok || !send(e) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// AdapterStatus describes one stage's collaborator.
type AdapterStatus struct {
	Stage  models.Stage `json:"stage"`
	Label  string       `json:"label"`
	Name   string       `json:"name"`
	Mode   string       `json:"mode"` // live | partial | fallback
	Detail string       `json:"detail,omitempty"`
}

// Capabilities reports, per stage, whether a live adapter is wired. An
// adapter that only serves some inputs is reported as partial.
func (o *Orchestrator) Capabilities() []AdapterStatus {
	out := make([]AdapterStatus, 0, len(models.Stages))
	for _, s := range models.Stages {
		st := AdapterStatus{Stage: s, Label: s.Label(), Name: "fallback", Mode: "fallback"}
		if a := o.adapters.forStage(s); a != nil {
			st.Name = a.Name()
			if a.Available() {
				st.Mode = "live"
				if d, ok := a.(degrader); ok && d.Degraded() {
					st.Mode = "partial"
				}
			}
			if d, ok := a.(detailer); ok {
				st.Detail = d.Detail()
			}
		}
		out = append(out, st)
	}
	return out
}

// Cleanup deletes terminal jobs finished more than olderThan ago together
// with their output directories and buffered events.
func (o *Orchestrator) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		return 0, nil
	}
	ids, err := o.store.DeleteFinishedBefore(ctx, o.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("delete finished jobs: %w", err)
	}
	for _, id := range ids {
		if err := os.RemoveAll(filepath.Join(o.cfg.OutputDir, id)); err != nil {
			o.log.Warn("job.cleanup.remove_failed", "job_id", id, "error", err)
		}
	}
	if o.bus != nil {
		o.bus.Forget(ids...)
	}
	if len(ids) > 0 {
		o.log.Info("job.cleanup", "deleted", len(ids), "older_than", olderThan.String())
	}
	return len(ids), nil
}
