package extract

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"reelforge/internal/models"
	"reelforge/internal/runner"
)

// PDF extracts text with poppler's pdftotext.
type PDF struct {
	bin    string
	run    runner.Runner
	usable bool
}

// NewPDF checks that bin is resolvable; lookPath nil means exec.LookPath.
func NewPDF(bin string, run runner.Runner, lookPath func(string) (string, error)) *PDF {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	_, err := lookPath(bin)
	return &PDF{bin: bin, run: run, usable: err == nil}
}

func (p *PDF) name() string    { return "pdftotext" }
func (p *PDF) available() bool { return p.usable }

// extract returns whatever stdout holds even on failure so damaged files can
// still yield partial text.
func (p *PDF) extract(ctx context.Context, ref models.ContentRef) (models.Content, error) {
	stdout, stderr, err := p.run.Run(ctx, p.bin, "-layout", "-enc", "UTF-8", "-eol", "unix", ref.Path, "-")

	text := string(stdout)
	pages := strings.Count(text, "\f")
	if pages == 0 && strings.TrimSpace(text) != "" {
		pages = 1
	}
	content := models.Content{
		Text: strings.ReplaceAll(text, "\f", "\n\n"),
		Metadata: models.ContentMetadata{
			Title:    strings.TrimSuffix(ref.FileName, ".pdf"),
			FileName: ref.FileName,
			Pages:    pages,
		},
	}
	if err != nil {
		return content, fmt.Errorf("pdftotext: %w: %s", err, runner.Truncate(strings.TrimSpace(string(stderr)), 512))
	}
	return content, nil
}
