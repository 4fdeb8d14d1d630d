package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"reelforge/internal/apperr"
	"reelforge/internal/events"
	"reelforge/internal/models"
	"reelforge/internal/pipeline"
	"reelforge/internal/storage"
	"reelforge/web/components"
)

// JobService はハンドラーが利用するパイプラインの操作
type JobService interface {
	Submit(ctx context.Context, input models.JobInput) (*models.Job, error)
	Status(ctx context.Context, id string) (*models.Job, error)
	Asset(ctx context.Context, id string) (string, error)
	List(ctx context.Context, opts storage.ListOptions) ([]*models.Job, error)
	Stats(ctx context.Context) (pipeline.Stats, error)
	Cancel(ctx context.Context, id string) error
	Subscribe(ctx context.Context, id string) (<-chan events.Event, error)
}

// Exporter はジョブ一覧をXLSXに変換する
type Exporter interface {
	JobsXLSX(ctx context.Context, opts storage.ListOptions) ([]byte, error)
}

// defaultDuration は duration 未指定時の動画の長さ（秒）
const defaultDuration = 180

// maxListLimit は一覧取得の上限
const maxListLimit = 500

// JobHandler はジョブAPIのハンドラー
type JobHandler struct {
	jobs      JobService
	exporter  Exporter
	uploadDir string
	maxUpload int64
}

// NewJobHandler は新しいJobHandlerを作成
func NewJobHandler(jobs JobService, exporter Exporter, uploadDir string, maxUpload int64) *JobHandler {
	return &JobHandler{jobs: jobs, exporter: exporter, uploadDir: uploadDir, maxUpload: maxUpload}
}

// submitRequest は JSON での投稿内容
type submitRequest struct {
	URL        string `json:"url"`
	Duration   *int   `json:"duration"`
	VoiceStyle string `json:"voiceStyle"`
	UseAI      *bool  `json:"useAI"`
	Language   string `json:"language"`
}

func (r submitRequest) input() models.JobInput {
	in := models.JobInput{
		Settings: models.Settings{
			Duration:   defaultDuration,
			VoiceStyle: models.VoiceStyle(strings.ToLower(strings.TrimSpace(r.VoiceStyle))),
			UseAI:      true,
			Language:   r.Language,
		},
	}
	if r.URL != "" {
		in.Source = models.URLRef(r.URL)
	}
	if r.Duration != nil {
		in.Settings.Duration = *r.Duration
	}
	if r.UseAI != nil {
		in.Settings.UseAI = *r.UseAI
	}
	return in
}

// Submit はジョブを投稿
// POST /api/jobs (JSON または multipart)
func (h *JobHandler) Submit(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		in  models.JobInput
		err error
	)
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		in, err = h.formInput(c)
	} else {
		var req submitRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		in = req.input()
	}
	if err != nil {
		return writeError(c, err)
	}

	job, err := h.jobs.Submit(ctx, in)
	if err != nil {
		if in.Source.Kind == models.SourceKindFile {
			_ = os.Remove(in.Source.Path)
		}
		return writeError(c, err)
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"jobId":  job.ID,
		"status": string(job.Status),
	})
}

// formInput はフォームから入力を組み立て、ファイルがあればアップロード先に保存
func (h *JobHandler) formInput(c echo.Context) (models.JobInput, error) {
	v := apperr.NewValidator()
	req := submitRequest{
		URL:        c.FormValue("url"),
		VoiceStyle: c.FormValue("voiceStyle"),
		Language:   c.FormValue("language"),
	}
	if s := c.FormValue("duration"); s != "" {
		d, err := strconv.Atoi(s)
		v.Check(err == nil, "duration", s, "must be an integer")
		req.Duration = &d
	}
	if s := c.FormValue("useAI"); s != "" {
		b, err := strconv.ParseBool(s)
		v.Check(err == nil, "useAI", s, "must be a boolean")
		req.UseAI = &b
	}
	if err := v.Err(); err != nil {
		return models.JobInput{}, err
	}

	in := req.input()
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil
	}
	if err != nil {
		return models.JobInput{}, apperr.NewValidator().Check(false, "file", "", "unreadable upload").Err()
	}
	if h.maxUpload > 0 && fh.Size > h.maxUpload {
		return models.JobInput{}, apperr.NewValidator().
			Check(false, "file", fh.Filename, fmt.Sprintf("exceeds %d MB", h.maxUpload>>20)).Err()
	}

	src, err := fh.Open()
	if err != nil {
		return models.JobInput{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return models.JobInput{}, fmt.Errorf("create upload dir: %w", err)
	}
	name := filepath.Base(fh.Filename)
	path := filepath.Join(h.uploadDir, uuid.NewString()+strings.ToLower(filepath.Ext(name)))
	dst, err := os.Create(path)
	if err != nil {
		return models.JobInput{}, fmt.Errorf("save upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(path)
		return models.JobInput{}, fmt.Errorf("save upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return models.JobInput{}, fmt.Errorf("save upload: %w", err)
	}

	in.Source = models.FileRef(path, name)
	return in, nil
}

// listOptions はクエリから一覧条件を読む
func listOptions(c echo.Context) (storage.ListOptions, error) {
	opts := storage.ListOptions{}
	if s := c.QueryParam("status"); s != "" {
		st := models.JobStatus(s)
		if !st.Valid() {
			return opts, apperr.NewValidator().Check(false, "status", s, "unknown status").Err()
		}
		opts.Status = st
	}
	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			opts.Limit = min(parsed, maxListLimit)
		}
	}
	return opts, nil
}

// List はジョブ一覧を取得
// GET /api/jobs?status=&limit=
func (h *JobHandler) List(c echo.Context) error {
	opts, err := listOptions(c)
	if err != nil {
		return writeError(c, err)
	}
	jobs, err := h.jobs.List(c.Request().Context(), opts)
	if err != nil {
		return writeError(c, err)
	}
	if jobs == nil {
		jobs = []*models.Job{}
	}
	return c.JSON(http.StatusOK, jobs)
}

// Get はジョブを取得
// GET /api/jobs/:id
func (h *JobHandler) Get(c echo.Context) error {
	job, err := h.jobs.Status(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

// Stats はジョブ統計を取得
// GET /api/jobs/stats
func (h *JobHandler) Stats(c echo.Context) error {
	stats, err := h.jobs.Stats(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// Cancel はジョブのキャンセルを要求
// POST /api/jobs/:id/cancel
func (h *JobHandler) Cancel(c echo.Context) error {
	id := c.Param("id")
	if err := h.jobs.Cancel(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"jobId":   id,
		"message": "cancellation requested",
	})
}

// Download は生成された動画を返す
// GET /api/jobs/:id/download
func (h *JobHandler) Download(c echo.Context) error {
	id := c.Param("id")
	path, err := h.jobs.Asset(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentType, "video/mp4")
	return c.Attachment(path, fmt.Sprintf("video_%s.mp4", id))
}

// Export はジョブ一覧をXLSXで返す
// GET /api/jobs/export.xlsx
func (h *JobHandler) Export(c echo.Context) error {
	opts, err := listOptions(c)
	if err != nil {
		return writeError(c, err)
	}
	if opts.Limit == 0 {
		opts.Limit = maxListLimit
	}
	data, err := h.exporter.JobsXLSX(c.Request().Context(), opts)
	if err != nil {
		return writeError(c, err)
	}
	name := fmt.Sprintf("jobs_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ListPage はジョブ一覧ページを表示
// GET /jobs
func (h *JobHandler) ListPage(c echo.Context) error {
	ctx := c.Request().Context()
	jobs, err := h.jobs.List(ctx, storage.ListOptions{Limit: 50})
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}
	stats, err := h.jobs.Stats(ctx)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}
	return render(c, components.JobList(jobs, stats.ByStatus))
}
