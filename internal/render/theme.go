package render

import "reelforge/internal/models"

// Theme is the visual treatment for a category.
type Theme struct {
	Name       string
	Background string // ffmpeg color
	Foreground string
	Accent     string
}

var themes = map[models.Category]Theme{
	models.CategoryBusiness:        {Name: "corporate", Background: "0x1E3A5F", Foreground: "white", Accent: "0xF5B700"},
	models.CategorySelfDevelopment: {Name: "sunrise", Background: "0xE8663D", Foreground: "white", Accent: "0xFFE8A3"},
	models.CategoryScience:         {Name: "lab", Background: "0x0B3D2E", Foreground: "white", Accent: "0x7CFFCB"},
	models.CategoryHistory:         {Name: "parchment", Background: "0x5C4033", Foreground: "0xF4E9D8", Accent: "0xD4A373"},
	models.CategoryTechnology:      {Name: "neon", Background: "0x101020", Foreground: "0x00E5FF", Accent: "0xFF2E88"},
	models.CategoryHealth:          {Name: "fresh", Background: "0x2E7D32", Foreground: "white", Accent: "0xC8E6C9"},
}

var defaultTheme = Theme{Name: "plain", Background: "0x222222", Foreground: "white", Accent: "0xAAAAAA"}

// ThemeFor returns the theme for category, or the plain theme.
func ThemeFor(category models.Category) Theme {
	if t, ok := themes[category]; ok {
		return t
	}
	return defaultTheme
}
