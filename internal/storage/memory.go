package storage

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"reelforge/internal/apperr"
	"reelforge/internal/models"
)

// MemoryStore はプロセス内のジョブストア
// 読み書きともにコピーを扱うため、呼び出し側が途中状態を観測することはない
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

// NewMemoryStore は新しいMemoryStoreを作成
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*models.Job)}
}

// Create はジョブを登録（同じIDがあればエラー）
func (s *MemoryStore) Create(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return apperr.NewAppError("already_exists", "job "+job.ID, apperr.ErrAlreadyExists)
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

// Get はIDでジョブを取得
func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, apperr.NotFound("job", id)
	}
	return job.Clone(), nil
}

// Update はジョブを原子的に更新
func (s *MemoryStore) Update(ctx context.Context, id string, mutate func(*models.Job) error) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.jobs[id]
	if !ok {
		return nil, apperr.NotFound("job", id)
	}
	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	s.jobs[id] = next
	return next.Clone(), nil
}

// List は作成日時の新しい順にジョブを返す
func (s *MemoryStore) List(ctx context.Context, opts ListOptions) ([]*models.Job, error) {
	s.mu.RLock()
	out := make([]*models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if opts.Status != "" && job.Status != opts.Status {
			continue
		}
		out = append(out, job.Clone())
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *models.Job) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(out) > opts.limit() {
		out = out[:opts.limit()]
	}
	return out, nil
}

// Count は登録済みジョブ数を返す
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs), nil
}

// CountByStatus はステータスごとのジョブ数を返す
func (s *MemoryStore) CountByStatus(ctx context.Context) (map[models.JobStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.JobStatus]int)
	for _, job := range s.jobs {
		counts[job.Status]++
	}
	return counts, nil
}

// DeleteFinishedBefore は cutoff より前に終了したジョブを削除し、そのIDを返す
func (s *MemoryStore) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted []string
	for id, job := range s.jobs {
		if !job.Status.Terminal() || job.CompletedAt == nil {
			continue
		}
		if job.CompletedAt.Before(cutoff) {
			delete(s.jobs, id)
			deleted = append(deleted, id)
		}
	}
	slices.Sort(deleted)
	return deleted, nil
}

// Close は何もしない
func (s *MemoryStore) Close() error {
	return nil
}
