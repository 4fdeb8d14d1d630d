package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"reelforge/internal/events"
	"reelforge/internal/models"
	"reelforge/internal/storage"
)

// errRestarted is recorded on jobs a previous process left unfinished.
var errRestarted = errors.New("interrupted by server restart")

// Recover fails every queued or running job that no task in this process
// owns. It is meant to run once at startup, before Submit is reachable, so
// records left by a crashed or killed process become terminal and fall under
// retention. It returns the number of jobs failed.
func (o *Orchestrator) Recover(ctx context.Context) (int, error) {
	seen := make(map[string]bool)
	recovered := 0
	for _, status := range []models.JobStatus{models.JobStatusQueued, models.JobStatusRunning} {
		for {
			jobs, err := o.store.List(ctx, storage.ListOptions{Status: status, Limit: 100})
			if err != nil {
				return recovered, fmt.Errorf("list %s jobs: %w", status, err)
			}
			progressed := false
			for _, job := range jobs {
				if seen[job.ID] || o.owns(job.ID) {
					continue
				}
				seen[job.ID] = true
				progressed = true
				if err := o.failStale(ctx, job); err != nil {
					o.log.Error("job.recover_failed", "job_id", job.ID, "error", err)
					continue
				}
				recovered++
			}
			if !progressed {
				break
			}
		}
	}
	if recovered > 0 {
		o.log.Warn("job.recovered", "failed", recovered)
	}
	return recovered, nil
}

func (o *Orchestrator) owns(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.cancels[id]
	return ok
}

func (o *Orchestrator) failStale(ctx context.Context, stale *models.Job) error {
	stage := stageAt(stale.Progress)
	now := o.now()
	job, err := o.store.Update(ctx, stale.ID, func(j *models.Job) error {
		if j.Status == models.JobStatusQueued {
			if err := j.Start(now); err != nil {
				return err
			}
		}
		return j.Fail(models.NewJobError(stage, errRestarted), now)
	})
	if err != nil {
		return err
	}

	if src := job.Input.Source; src.Kind == models.SourceKindFile && src.Path != "" {
		if err := os.Remove(src.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			o.log.Warn("job.upload.remove_failed", "job_id", job.ID, "path", src.Path, "error", err)
		}
	}
	o.log.Warn("job.failed", "job_id", job.ID, "stage", stage, "error", errRestarted)
	o.publish(job, events.TypeFailed, stage, job.Error.Message)
	return nil
}

// stageAt maps recorded progress back to the stage that was running.
func stageAt(progress int) models.Stage {
	stage := models.StageExtraction
	for _, s := range models.Stages {
		if s.Checkpoint() <= progress {
			stage = s
		}
	}
	return stage
}
