package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"reelforge/internal/models"
)

// textSource reads plain text and markdown files.
type textSource struct{}

func (textSource) name() string    { return "text" }
func (textSource) available() bool { return true }

func (textSource) extract(ctx context.Context, ref models.ContentRef) (models.Content, error) {
	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return models.Content{}, fmt.Errorf("read %s: %w", ref.FileName, err)
	}
	text := string(data)

	title := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		title = strings.TrimSpace(strings.TrimLeft(line, "#"))
		break
	}
	if len([]rune(title)) > 120 {
		title = ""
	}

	return models.Content{
		Text:     text,
		Metadata: models.ContentMetadata{Title: title, FileName: ref.FileName},
	}, nil
}
