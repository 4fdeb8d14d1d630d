package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"reelforge/internal/fallback"
	"reelforge/internal/models"
)

// promptContentLimit bounds how much source text is sent to the model.
const promptContentLimit = 8000

// Analyzer turns extracted content into a narration script.
type Analyzer struct {
	client *Client
}

func NewAnalyzer(client *Client) *Analyzer {
	return &Analyzer{client: client}
}

func (a *Analyzer) Name() string    { return "openai:" + a.client.Model() }
func (a *Analyzer) Available() bool { return a.client.Available() }

type scriptDoc struct {
	Hook              string   `json:"hook"`
	MainPoints        []string `json:"main_points"`
	Script            string   `json:"script"`
	Category          string   `json:"category"`
	Keywords          []string `json:"keywords"`
	EstimatedDuration int      `json:"estimated_duration"`
}

// Analyze asks the model for a script sized to settings.Duration.
func (a *Analyzer) Analyze(ctx context.Context, content models.Content, settings models.Settings) (models.Script, error) {
	system := analysisSystemPrompt(settings)
	user := analysisUserPrompt(content)

	raw, err := a.client.completeJSON(ctx, "analyze", system, user, scriptSchema(), a.client.cfg.Temperature)
	if err != nil {
		return models.Script{}, err
	}

	var doc scriptDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.Script{}, fmt.Errorf("unmarshal script: %w", err)
	}

	narration := strings.TrimSpace(doc.Script)
	keywords := cleanList(doc.Keywords)
	if len(keywords) == 0 {
		keywords = fallback.Keywords(content.Text, 5)
	}
	return models.Script{
		Hook:              strings.TrimSpace(doc.Hook),
		MainPoints:        cleanList(doc.MainPoints),
		Narration:         narration,
		Category:          models.ParseCategory(doc.Category),
		Keywords:          keywords,
		EstimatedDuration: settings.Duration,
	}, nil
}

func analysisSystemPrompt(s models.Settings) string {
	categories := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		categories[i] = string(c)
	}
	parts := []string{
		"You are a short-form video scriptwriter.",
		"Identify the main category of the content and pull out the strongest points.",
		fmt.Sprintf("Write a narration of about %d seconds (roughly %d words) for a vertical video.", s.Duration, fallback.TargetWords(s.Duration)),
		"Open with a hook that stops the scroll, keep the main points tight, and close with a call to action.",
		fmt.Sprintf("The narrator's tone is %s.", s.VoiceStyle),
		"Category must be one of: " + strings.Join(categories, ", ") + ".",
		"Use plain language that reads naturally aloud; no stage directions or emoji in the script.",
	}
	if s.Language != "" {
		parts = append(parts, "Write the hook, points and script in language: "+s.Language+".")
	}
	return strings.Join(parts, " ")
}

func analysisUserPrompt(c models.Content) string {
	var b strings.Builder
	if c.Metadata.Title != "" {
		b.WriteString("Title: ")
		b.WriteString(c.Metadata.Title)
		b.WriteString("\n")
	}
	if c.Metadata.Author != "" {
		b.WriteString("Author: ")
		b.WriteString(c.Metadata.Author)
		b.WriteString("\n")
	}
	b.WriteString("\nContent:\n")
	text := []rune(c.Text)
	if len(text) > promptContentLimit {
		text = text[:promptContentLimit]
	}
	b.WriteString(string(text))
	return b.String()
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
