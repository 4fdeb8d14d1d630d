package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"reelforge/internal/apperr"
	"reelforge/internal/events"
	"reelforge/internal/fallback"
	"reelforge/internal/models"
	"reelforge/internal/render"
)

// jobRun is the state owned by one job's goroutine.
type jobRun struct {
	o      *Orchestrator
	id     string
	input  models.JobInput
	ctx    context.Context // cancelled by Cancel or pool shutdown
	store  context.Context // never cancelled, for record writes
	stage  models.Stage
	result *models.Result
	start  time.Time
}

// run drives one job from queued to a terminal state. It never returns an
// error; every failure ends up on the job record.
func (o *Orchestrator) run(ctx context.Context, id string) {
	r := &jobRun{
		o:      o,
		id:     id,
		ctx:    ctx,
		store:  context.WithoutCancel(ctx),
		stage:  models.StageExtraction,
		result: &models.Result{Simulated: make(map[models.Stage]bool)},
		start:  time.Now(),
	}

	defer func() {
		if p := recover(); p != nil {
			o.log.Error("job.panic", "job_id", id, "stage", r.stage, "panic", p, "stack", string(debug.Stack()))
			r.fail(fmt.Errorf("internal error: %v", p), false)
		}
	}()

	job, err := o.store.Get(r.store, id)
	if err != nil {
		o.log.Error("job.load_failed", "job_id", id, "error", err)
		return
	}
	r.input = job.Input
	if src := r.input.Source; src.Kind == models.SourceKindFile && src.Path != "" {
		// The job owns its uploaded document.
		defer r.removeUpload(src.Path)
	}

	if !r.begin() {
		return
	}

	workDir, err := os.MkdirTemp("", "reelforge-"+id+"-")
	if err != nil {
		r.fail(fmt.Errorf("create work dir: %w", err), false)
		return
	}
	defer os.RemoveAll(workDir)

	outDir := filepath.Join(o.cfg.OutputDir, id)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		r.fail(fmt.Errorf("create output dir: %w", err), false)
		return
	}

	r.execute(workDir, outDir)
}

func (r *jobRun) execute(workDir, outDir string) {
	o := r.o
	a := o.adapters
	settings := r.input.Settings
	timeout := o.cfg.StageTimeout

	// 1. Extraction. The only stage whose failure ends the job.
	content, ok := stageResult(r, runStage(r.ctx, timeout, stagePlan[models.Content]{
		Stage: models.StageExtraction,
		Skip:  a.skipReason(models.StageExtraction, true),
		Call: func(ctx context.Context) (models.Content, error) {
			ref := r.input.Source
			ref.Language = settings.Language
			return a.Extractor.Extract(ctx, ref)
		},
		Fallback: func() (models.Content, error) { return fallback.Content(r.input.Source), nil },
		Partial:  func(c models.Content) bool { return strings.TrimSpace(c.Text) != "" },
	}))
	if !ok {
		return
	}

	// 2. Analysis.
	if !r.enter(models.StageAnalysis) {
		return
	}
	script, ok := stageResult(r, runStage(r.ctx, timeout, stagePlan[models.Script]{
		Stage: models.StageAnalysis,
		Skip:  a.skipReason(models.StageAnalysis, settings.UseAI),
		Call: func(ctx context.Context) (models.Script, error) {
			return a.Analyzer.Analyze(ctx, content, settings)
		},
		Fallback: func() (models.Script, error) { return fallback.Script(content, settings.Duration), nil },
	}))
	if !ok {
		return
	}
	script.EstimatedDuration = settings.Duration
	if script.Category == "" {
		script.Category = fallback.DetectCategory(content.Text)
	}

	// 3. Voice.
	if !r.enter(models.StageVoice) {
		return
	}
	audio, ok := stageResult(r, runStage(r.ctx, timeout, stagePlan[models.AudioAsset]{
		Stage: models.StageVoice,
		Skip:  a.skipReason(models.StageVoice, settings.UseAI),
		Call: func(ctx context.Context) (models.AudioAsset, error) {
			return a.Voice.Synthesize(ctx, script.Narration, settings.VoiceStyle, outDir)
		},
		Fallback: func() (models.AudioAsset, error) {
			return fallback.Audio(outDir, settings.Duration, settings.VoiceStyle)
		},
	}))
	if !ok {
		return
	}

	// 4. Marketing.
	if !r.enter(models.StageMarketing) {
		return
	}
	marketing, ok := stageResult(r, runStage(r.ctx, timeout, stagePlan[models.Marketing]{
		Stage: models.StageMarketing,
		Skip:  a.skipReason(models.StageMarketing, settings.UseAI),
		Call: func(ctx context.Context) (models.Marketing, error) {
			return a.Marketing.Write(ctx, script)
		},
		Fallback: func() (models.Marketing, error) { return fallback.Marketing(script), nil },
	}))
	if !ok {
		return
	}

	// 5. Rendering.
	if !r.enter(models.StageRendering) {
		return
	}
	video, ok := stageResult(r, runStage(r.ctx, timeout, stagePlan[models.VideoAsset]{
		Stage: models.StageRendering,
		Skip:  a.skipReason(models.StageRendering, true),
		Call: func(ctx context.Context) (models.VideoAsset, error) {
			return a.Renderer.Render(ctx, render.Request{
				Script:   script,
				Audio:    audio,
				Duration: settings.Duration,
				WorkDir:  workDir,
				OutDir:   outDir,
			})
		},
		Fallback: func() (models.VideoAsset, error) {
			return fallback.Video(outDir, script, audio, settings.Duration), nil
		},
	}))
	if !ok {
		return
	}

	res := r.result
	res.Script = script
	res.Category = script.Category
	res.Marketing = marketing
	res.Audio = audio
	res.Video = video
	res.Resolution = models.VideoResolution
	res.Duration = settings.Duration
	res.Format = models.VideoFormat
	res.VoiceStyle = settings.VoiceStyle
	res.ContentMetadata = content.Metadata
	r.complete()
}

// stageResult records the outcome on the run and reports whether to go on.
func stageResult[T any](r *jobRun, out Outcome[T]) (T, bool) {
	switch out.Kind {
	case OutcomeFatal:
		r.fail(out.Err, false)
		var zero T
		return zero, false
	case OutcomeFallback:
		r.result.FallbackStages = append(r.result.FallbackStages, r.stage)
		r.result.Simulated[r.stage] = true
		r.o.log.Warn("job.stage.fallback", "job_id", r.id, "stage", r.stage, "reason", out.Reason)
		r.o.publish(r.snapshot(), events.TypeFallback, r.stage, out.Reason)
	default:
		r.result.Simulated[r.stage] = false
		if out.Reason != "" {
			r.o.log.Warn("job.stage.degraded", "job_id", r.id, "stage", r.stage, "reason", out.Reason)
		} else {
			r.o.log.Info("job.stage.ok", "job_id", r.id, "stage", r.stage)
		}
	}
	return out.Value, true
}

// begin moves the job to running and enters extraction in one write. A job
// cancelled while queued is started and failed in the same write.
func (r *jobRun) begin() bool {
	now := r.o.now()
	if err := r.ctx.Err(); err != nil {
		r.fail(apperr.ErrCancelled, true)
		return false
	}
	job, err := r.o.store.Update(r.store, r.id, func(j *models.Job) error {
		if err := j.Start(now); err != nil {
			return err
		}
		return j.Enter(models.StageExtraction, now)
	})
	if err != nil {
		r.o.log.Error("job.start_failed", "job_id", r.id, "error", err)
		return false
	}
	r.o.log.Info("job.started", "job_id", r.id)
	r.o.publish(job, events.TypeStage, models.StageExtraction, models.StageExtraction.Label())
	return true
}

// enter records the next stage unless the job was cancelled.
func (r *jobRun) enter(stage models.Stage) bool {
	r.stage = stage
	if err := r.ctx.Err(); err != nil {
		r.fail(apperr.ErrCancelled, true)
		return false
	}
	job, err := r.o.store.Update(r.store, r.id, func(j *models.Job) error {
		return j.Enter(stage, r.o.now())
	})
	if err != nil {
		r.o.log.Error("job.stage.record_failed", "job_id", r.id, "stage", stage, "error", err)
		return false
	}
	r.o.publish(job, events.TypeStage, stage, stage.Label())
	return true
}

func (r *jobRun) complete() {
	job, err := r.o.store.Update(r.store, r.id, func(j *models.Job) error {
		return j.Complete(r.result, r.o.now())
	})
	if err != nil {
		r.o.log.Error("job.complete_failed", "job_id", r.id, "error", err)
		return
	}
	r.o.log.Info("job.completed", "job_id", r.id, "fallback_stages", r.result.FallbackStages,
		"elapsed_ms", time.Since(r.start).Milliseconds())
	r.o.publish(job, events.TypeCompleted, "", "job completed")
}

// fail records err against the current stage. A queued job is started first
// so the transition stays queued -> running -> failed.
func (r *jobRun) fail(cause error, cancelled bool) {
	jobErr := models.NewJobError(r.stage, unwrapStage(cause))
	jobErr.Cancelled = cancelled
	now := r.o.now()

	job, err := r.o.store.Update(r.store, r.id, func(j *models.Job) error {
		if j.Status == models.JobStatusQueued {
			if err := j.Start(now); err != nil {
				return err
			}
		}
		return j.Fail(jobErr, now)
	})
	if err != nil {
		r.o.log.Error("job.fail_record_failed", "job_id", r.id, "error", err)
		return
	}
	r.o.log.Warn("job.failed", "job_id", r.id, "stage", r.stage, "cancelled", cancelled, "error", cause,
		"elapsed_ms", time.Since(r.start).Milliseconds())
	r.o.publish(job, events.TypeFailed, r.stage, jobErr.Message)
}

func (r *jobRun) removeUpload(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		r.o.log.Warn("job.upload.remove_failed", "job_id", r.id, "path", path, "error", err)
	}
}

// snapshot is a minimal job view for events published mid-stage.
func (r *jobRun) snapshot() *models.Job {
	return &models.Job{ID: r.id, Status: models.JobStatusRunning, Progress: r.stage.Checkpoint()}
}

// unwrapStage drops the StageError wrapper; the stage is recorded separately.
func unwrapStage(err error) error {
	var se *apperr.StageError
	if errors.As(err, &se) {
		return se.Err
	}
	return err
}
