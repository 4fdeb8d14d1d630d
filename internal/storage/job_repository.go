package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reelforge/internal/apperr"
	"reelforge/internal/models"
)

// JobRepository はSQLiteに保存するジョブストア
// レコード全体を data 列のJSONとして保持し、検索用の列を別に持つ
type JobRepository struct {
	db *DB
}

// NewJobRepository は新しいJobRepositoryを作成
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create は新しいジョブを作成
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, status, progress, created_at, updated_at, completed_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		job.ID, string(job.Status), job.Progress,
		job.CreatedAt.UnixMilli(), job.UpdatedAt.UnixMilli(), nullableMillis(job.CompletedAt),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NewAppError("already_exists", "job "+job.ID, apperr.ErrAlreadyExists)
	}
	return nil
}

// Get はIDでジョブを取得
func (r *JobRepository) Get(ctx context.Context, id string) (*models.Job, error) {
	return getJob(ctx, r.db, id)
}

// Update はトランザクション内で読み込み・変更・書き戻しを行う
func (r *JobRepository) Update(ctx context.Context, id string, mutate func(*models.Job) error) (*models.Job, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	job, err := getJob(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(job); err != nil {
		return nil, err
	}

	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE jobs
		SET status = ?, progress = ?, updated_at = ?, completed_at = ?, data = ?
		WHERE id = ?`,
		string(job.Status), job.Progress, job.UpdatedAt.UnixMilli(), nullableMillis(job.CompletedAt),
		string(data), id,
	); err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return job, nil
}

// List は最近のジョブ一覧を取得（ステータス指定可）
func (r *JobRepository) List(ctx context.Context, opts ListOptions) ([]*models.Job, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if opts.Status != "" {
		rows, err = r.db.QueryContext(ctx,
			`SELECT data FROM jobs WHERE status = ? ORDER BY created_at DESC, id ASC LIMIT ?`,
			string(opts.Status), opts.limit())
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT data FROM jobs ORDER BY created_at DESC, id ASC LIMIT ?`, opts.limit())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		job, err := decodeJob(data)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Count はジョブ数を取得
func (r *JobRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return n, nil
}

// CountByStatus はステータスごとのジョブ数を取得
func (r *JobRepository) CountByStatus(ctx context.Context) (map[models.JobStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.JobStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[models.JobStatus(status)] = n
	}
	return counts, rows.Err()
}

// DeleteFinishedBefore は終了済みジョブのうち cutoff より古いものを削除
func (r *JobRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const where = `status IN ('completed', 'failed') AND completed_at IS NOT NULL AND completed_at < ?`
	rows, err := tx.QueryContext(ctx, `SELECT id FROM jobs WHERE `+where+` ORDER BY id`, cutoff.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to select expired jobs: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE `+where, cutoff.UnixMilli()); err != nil {
		return nil, fmt.Errorf("failed to delete expired jobs: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return ids, nil
}

// Close はデータベースを閉じる
func (r *JobRepository) Close() error {
	return r.db.Close()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getJob(ctx context.Context, q queryer, id string) (*models.Job, error) {
	var data string
	err := q.QueryRowContext(ctx, `SELECT data FROM jobs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("job", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return decodeJob(data)
}

func decodeJob(data string) (*models.Job, error) {
	var job models.Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	return &job, nil
}

func nullableMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}
