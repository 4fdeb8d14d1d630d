// Package export renders job records as spreadsheet reports.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"reelforge/internal/models"
	"reelforge/internal/storage"
)

// JobLister is the slice of the job store the report reads.
type JobLister interface {
	List(ctx context.Context, opts storage.ListOptions) ([]*models.Job, error)
}

// Service produces XLSX workbooks of recent jobs.
type Service struct {
	jobs   JobLister
	logger *slog.Logger
}

func NewService(jobs JobLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobs: jobs, logger: logger}
}

const (
	jobsSheet    = "Jobs"
	summarySheet = "Summary"
)

var jobHeaders = []string{
	"Job ID",
	"Status",
	"Created",
	"Completed",
	"Source",
	"Duration (s)",
	"Voice Style",
	"Use AI",
	"Category",
	"Fallback Stages",
	"Error",
	"Video",
}

// JobsXLSX returns a workbook with one row per job and a status summary sheet.
func (s *Service) JobsXLSX(ctx context.Context, opts storage.ListOptions) ([]byte, error) {
	start := time.Now()

	jobs, err := s.jobs.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with Sheet1; rename it rather than leave it empty.
	if err := f.SetSheetName("Sheet1", jobsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(jobsSheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range jobHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(jobsSheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(jobsSheet, 1, 1, style)
	}

	counts := make(map[models.JobStatus]int, len(models.JobStatuses))
	for i, job := range jobs {
		counts[job.Status]++
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(jobsSheet, cell, v)
		}

		write(1, job.ID)
		write(2, string(job.Status))
		write(3, job.CreatedAt.UTC().Format(time.RFC3339))
		if job.CompletedAt != nil {
			write(4, job.CompletedAt.UTC().Format(time.RFC3339))
		}
		write(5, job.Input.Source.String())
		write(6, job.Input.Settings.Duration)
		write(7, string(job.Input.Settings.VoiceStyle))
		write(8, job.Input.Settings.UseAI)
		if r := job.Result; r != nil {
			write(9, string(r.Category))
			write(10, joinStages(r.FallbackStages))
			if !r.Video.Simulated {
				write(12, r.Video.Path)
			}
		}
		if job.Error != nil {
			write(11, truncate(job.Error.Error(), 200))
		}
	}

	_ = f.SetColWidth(jobsSheet, "A", "A", 38) // id
	_ = f.SetColWidth(jobsSheet, "B", "B", 11)
	_ = f.SetColWidth(jobsSheet, "C", "D", 22) // timestamps
	_ = f.SetColWidth(jobsSheet, "E", "E", 48) // source
	_ = f.SetColWidth(jobsSheet, "F", "I", 14)
	_ = f.SetColWidth(jobsSheet, "J", "J", 28)
	_ = f.SetColWidth(jobsSheet, "K", "L", 60)

	_ = f.SetCellValue(summarySheet, "A1", "Status")
	_ = f.SetCellValue(summarySheet, "B1", "Jobs")
	for i, st := range models.JobStatuses {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+2), string(st))
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+2), counts[st])
	}
	totalRow := len(models.JobStatuses) + 2
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", totalRow), "total")
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", totalRow), len(jobs))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(jobs),
		"status", string(opts.Status),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func joinStages(stages []models.Stage) string {
	parts := make([]string, len(stages))
	for i, s := range stages {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
