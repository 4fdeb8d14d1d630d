package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"reelforge/internal/models"
)

// maxHashtags caps the list returned to callers.
const maxHashtags = 15

// marketingTemperature is slightly higher than analysis for livelier copy.
const marketingTemperature = 0.8

// Copywriter writes social captions for a finished script.
type Copywriter struct {
	client *Client
}

func NewCopywriter(client *Client) *Copywriter {
	return &Copywriter{client: client}
}

func (w *Copywriter) Name() string    { return "openai:" + w.client.Model() }
func (w *Copywriter) Available() bool { return w.client.Available() }

type marketingDoc struct {
	Caption     string   `json:"caption"`
	Hashtags    []string `json:"hashtags"`
	Description string   `json:"description"`
	Hook        string   `json:"hook"`
}

func (w *Copywriter) Write(ctx context.Context, script models.Script) (models.Marketing, error) {
	system := strings.Join([]string{
		"You write marketing copy for TikTok, Reels and Shorts.",
		"Given a video script and its category, produce a short caption with emoji,",
		"10 to 15 hashtags mixing trending and niche tags, a longer description,",
		"and a one-line hook that grabs attention.",
	}, " ")
	user := fmt.Sprintf("Category: %s\n\nScript:\n%s", script.Category, script.Narration)

	raw, err := w.client.completeJSON(ctx, "marketing", system, user, marketingSchema(), marketingTemperature)
	if err != nil {
		return models.Marketing{}, err
	}

	var doc marketingDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.Marketing{}, fmt.Errorf("unmarshal marketing: %w", err)
	}

	hook := strings.TrimSpace(doc.Hook)
	if hook == "" {
		hook = script.Hook
	}
	return models.Marketing{
		Caption:     strings.TrimSpace(doc.Caption),
		Hashtags:    normalizeHashtags(doc.Hashtags),
		Description: strings.TrimSpace(doc.Description),
		Hook:        hook,
	}, nil
}

// normalizeHashtags lowercases, prefixes '#', removes spaces and duplicates.
func normalizeHashtags(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, tag := range in {
		tag = strings.ToLower(strings.Join(strings.Fields(tag), ""))
		tag = "#" + strings.TrimLeft(tag, "#")
		if tag == "#" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
		if len(out) == maxHashtags {
			break
		}
	}
	return out
}
