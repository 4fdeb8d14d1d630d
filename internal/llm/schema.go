package llm

import "reelforge/internal/models"

// scriptSchema is sent to the model as an output contract and checked locally.
func scriptSchema() map[string]any {
	categories := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		categories[i] = string(c)
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"hook":               map[string]any{"type": "string", "minLength": 1},
			"main_points":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "maxItems": 5},
			"script":             map[string]any{"type": "string", "minLength": 1},
			"category":           map[string]any{"type": "string", "enum": categories},
			"keywords":           map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"estimated_duration": map[string]any{"type": "integer", "minimum": 1},
			"tone":               map[string]any{"type": "string"},
		},
		"required": []string{"hook", "main_points", "script", "category"},
	}
}

func marketingSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"caption":     map[string]any{"type": "string", "minLength": 1},
			"hashtags":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 1},
			"description": map[string]any{"type": "string"},
			"hook":        map[string]any{"type": "string"},
		},
		"required": []string{"caption", "hashtags"},
	}
}
