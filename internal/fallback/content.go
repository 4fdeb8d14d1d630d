package fallback

import (
	"fmt"

	"reelforge/internal/models"
)

// Content stands in for extraction when no extractor can handle ref.
func Content(ref models.ContentRef) models.Content {
	name := ref.String()
	text := fmt.Sprintf("This short video introduces the material from %s. "+
		"It highlights the main idea, explains why it matters and closes with one practical takeaway. "+
		"Watch to the end for a quick summary you can apply today.", name)

	return models.Content{
		Text: text,
		Metadata: models.ContentMetadata{
			Title:       name,
			SourceURL:   ref.URL,
			FileName:    ref.FileName,
			WordCount:   wordCount(text),
			Extractor:   "placeholder",
			Placeholder: true,
		},
	}
}
