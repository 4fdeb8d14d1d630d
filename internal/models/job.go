package models

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"reelforge/internal/apperr"
)

// JobStatus はジョブの状態
type JobStatus string

// ジョブステータス
const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobStatuses は全ステータス
var JobStatuses = []JobStatus{JobStatusQueued, JobStatusRunning, JobStatusCompleted, JobStatusFailed}

// Terminal は終了状態かどうか
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Valid は既知のステータスかどうか
func (s JobStatus) Valid() bool {
	return slices.Contains(JobStatuses, s)
}

// Settings はジョブの生成設定
type Settings struct {
	Duration   int        `json:"duration"`
	VoiceStyle VoiceStyle `json:"voiceStyle"`
	UseAI      bool       `json:"useAI"`
	Language   string     `json:"language"`
}

// JobInput はジョブの入力（作成後は不変）
type JobInput struct {
	Source   ContentRef `json:"source"`
	Settings Settings   `json:"settings"`
}

// JobError は失敗したジョブの原因
type JobError struct {
	Stage      Stage  `json:"stage"`
	StageLabel string `json:"stageLabel"`
	Message    string `json:"message"`
	Cancelled  bool   `json:"cancelled,omitempty"`
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.StageLabel, e.Message)
}

// NewJobError は段階と原因からJobErrorを作成
func NewJobError(stage Stage, err error) *JobError {
	return &JobError{Stage: stage, StageLabel: stage.Label(), Message: err.Error()}
}

// Job は動画生成ジョブ
type Job struct {
	ID           string     `json:"jobId"`
	Status       JobStatus  `json:"status"`
	Progress     int        `json:"progress"`
	CurrentStage string     `json:"currentStage,omitempty"`
	Input        JobInput   `json:"input"`
	Result       *Result    `json:"result,omitempty"`
	Error        *JobError  `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// NewJob はキュー済みのジョブを作成
func NewJob(id string, input JobInput, now time.Time) *Job {
	return &Job{
		ID:        id,
		Status:    JobStatusQueued,
		Input:     input,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Start は queued → running に遷移
func (j *Job) Start(now time.Time) error {
	if j.Status != JobStatusQueued {
		return j.transitionError(JobStatusRunning)
	}
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.UpdatedAt = now
	return nil
}

// Enter は段階の開始を記録（進捗は段階ごとに単調増加）
func (j *Job) Enter(stage Stage, now time.Time) error {
	if j.Status != JobStatusRunning {
		return fmt.Errorf("%w: enter %s while %s", apperr.ErrInvalidTransition, stage, j.Status)
	}
	cp := stage.Checkpoint()
	if cp <= j.Progress {
		return fmt.Errorf("%w: progress %d -> %d", apperr.ErrInvalidTransition, j.Progress, cp)
	}
	j.Progress = cp
	j.CurrentStage = stage.Label()
	j.UpdatedAt = now
	return nil
}

// Complete は running → completed に遷移
func (j *Job) Complete(result *Result, now time.Time) error {
	if j.Status != JobStatusRunning {
		return j.transitionError(JobStatusCompleted)
	}
	if result == nil {
		return fmt.Errorf("%w: completed without result", apperr.ErrInvalidTransition)
	}
	j.Status = JobStatusCompleted
	j.Progress = 100
	j.CurrentStage = ""
	j.Result = result
	j.Error = nil
	j.CompletedAt = &now
	j.UpdatedAt = now
	return nil
}

// Fail は running → failed に遷移（進捗は維持）
func (j *Job) Fail(jobErr *JobError, now time.Time) error {
	if j.Status != JobStatusRunning {
		return j.transitionError(JobStatusFailed)
	}
	if jobErr == nil {
		return fmt.Errorf("%w: failed without error", apperr.ErrInvalidTransition)
	}
	j.Status = JobStatusFailed
	j.CurrentStage = ""
	j.Error = jobErr
	j.Result = nil
	j.CompletedAt = &now
	j.UpdatedAt = now
	return nil
}

func (j *Job) transitionError(to JobStatus) error {
	if j.Status.Terminal() {
		return fmt.Errorf("%w: %s", apperr.ErrTerminal, j.Status)
	}
	return fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidTransition, j.Status, to)
}

// Clone はジョブの深いコピーを返す
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	c := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	if j.Error != nil {
		e := *j.Error
		c.Error = &e
	}
	if j.Result != nil {
		r := *j.Result
		r.Script.MainPoints = slices.Clone(r.Script.MainPoints)
		r.Script.Keywords = slices.Clone(r.Script.Keywords)
		r.Marketing.Hashtags = slices.Clone(r.Marketing.Hashtags)
		r.FallbackStages = slices.Clone(r.FallbackStages)
		r.Simulated = maps.Clone(r.Simulated)
		c.Result = &r
	}
	return &c
}
