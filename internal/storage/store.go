package storage

import (
	"context"
	"time"

	"reelforge/internal/models"
)

// Store はジョブの永続化層
//
// Update の mutate はロック（またはトランザクション）内で呼ばれ、
// エラーを返した場合は書き込みを行わない。
type Store interface {
	Create(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, id string) (*models.Job, error)
	Update(ctx context.Context, id string, mutate func(*models.Job) error) (*models.Job, error)
	List(ctx context.Context, opts ListOptions) ([]*models.Job, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) (map[models.JobStatus]int, error)
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) ([]string, error)
	Close() error
}

// ListOptions は一覧取得の条件
type ListOptions struct {
	Status models.JobStatus
	Limit  int
}

const defaultListLimit = 50

func (o ListOptions) limit() int {
	if o.Limit <= 0 {
		return defaultListLimit
	}
	return o.Limit
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*JobRepository)(nil)
)
