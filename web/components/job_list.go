// Package components holds the server-rendered HTML views.
package components

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"reelforge/internal/models"
)

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#222}
table{border-collapse:collapse;width:100%}th,td{padding:.4rem .6rem;border-bottom:1px solid #ddd;text-align:left}
.badge{padding:.1rem .5rem;border-radius:.6rem;font-size:.85em}
.queued{background:#eee}.running{background:#def}.completed{background:#dfd}.failed{background:#fdd}
.bar{background:#eee;width:8rem;height:.6rem}.bar span{display:block;height:100%;background:#48c}
.counts span{margin-right:1rem}`

// JobList renders recent jobs with a per-status summary.
func JobList(jobs []*models.Job, counts map[models.JobStatus]int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta http-equiv="refresh" content="5"><title>Jobs - reelforge</title><style>`)
		p.raw(pageStyle)
		p.raw(`</style></head><body><h1>Jobs</h1><p class="counts">`)
		for _, st := range models.JobStatuses {
			p.raw(`<span class="badge ` + string(st) + `">`)
			p.text(fmt.Sprintf("%s: %d", st, counts[st]))
			p.raw(`</span>`)
		}
		p.raw(`</p>`)

		if len(jobs) == 0 {
			p.raw(`<p>No jobs yet. POST /api/jobs to create one.</p></body></html>`)
			return p.err
		}

		p.raw(`<table><thead><tr><th>Created</th><th>Source</th><th>Status</th><th>Progress</th>`)
		p.raw(`<th>Stage / Error</th><th>Fallbacks</th><th></th></tr></thead><tbody>`)
		for _, job := range jobs {
			p.raw(`<tr><td>`)
			p.text(job.CreatedAt.Format("2006-01-02 15:04:05"))
			p.raw(`</td><td>`)
			p.text(job.Input.Source.String())
			p.raw(`</td><td><span class="badge ` + string(job.Status) + `">`)
			p.text(string(job.Status))
			p.raw(fmt.Sprintf(`</span></td><td><div class="bar"><span style="width:%d%%"></span></div></td><td>`, job.Progress))
			switch {
			case job.Error != nil:
				p.text(job.Error.Error())
			default:
				p.text(job.CurrentStage)
			}
			p.raw(`</td><td>`)
			if job.Result != nil {
				p.text(fallbackList(job.Result.FallbackStages))
			}
			p.raw(`</td><td>`)
			if job.Status == models.JobStatusCompleted && job.Result != nil && !job.Result.Video.Simulated {
				href := templ.URL("/api/jobs/" + job.ID + "/download")
				p.raw(`<a href="` + templ.EscapeString(string(href)) + `">download</a>`)
			} else {
				p.raw(`<a href="/api/jobs/` + templ.EscapeString(job.ID) + `">details</a>`)
			}
			p.raw(`</td></tr>`)
		}
		p.raw(`</tbody></table></body></html>`)
		return p.err
	})
}

func fallbackList(stages []models.Stage) string {
	parts := make([]string, len(stages))
	for i, s := range stages {
		parts[i] = s.Label()
	}
	return strings.Join(parts, ", ")
}

// printer keeps the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *printer) text(s string) {
	p.raw(templ.EscapeString(s))
}
