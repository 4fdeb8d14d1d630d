package fallback

import (
	"fmt"
	"strings"

	"reelforge/internal/models"
)

var hashtagMap = map[models.Category][]string{
	models.CategoryBusiness:        {"#business", "#entrepreneur", "#success", "#marketing"},
	models.CategorySelfDevelopment: {"#selfimprovement", "#motivation", "#success", "#mindset"},
	models.CategoryScience:         {"#science", "#education", "#learning", "#knowledge"},
	models.CategoryHistory:         {"#history", "#facts", "#educational", "#story"},
	models.CategoryTechnology:      {"#tech", "#ai", "#innovation", "#technology"},
	models.CategoryHealth:          {"#health", "#wellness", "#fitness", "#lifestyle"},
}

var baseHashtags = []string{"#viral", "#fyp", "#trending", "#shorts", "#video"}

// Hashtags returns category tags, keyword tags and base tags without duplicates.
func Hashtags(category models.Category, keywords []string) []string {
	tags, ok := hashtagMap[category]
	if !ok {
		tags = []string{"#educational", "#interesting"}
	}

	seen := make(map[string]bool)
	var out []string
	add := func(tag string) {
		tag = strings.ToLower(tag)
		if !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	for _, t := range tags {
		add(t)
	}
	for _, k := range keywords {
		if k = strings.Join(words(k), ""); k != "" {
			add("#" + k)
		}
	}
	for _, t := range baseHashtags {
		add(t)
	}
	return out
}

// Marketing builds caption, hashtags, description and hook from the script.
func Marketing(script models.Script) models.Marketing {
	category := script.Category
	if category == "" {
		category = models.CategoryOther
	}
	label := strings.ReplaceAll(string(category), "_", " ")

	hook := script.Hook
	if hook == "" {
		hook = "Did you know this?"
	}

	return models.Marketing{
		Caption:     fmt.Sprintf("%s #%s #trending", truncate(hook, 120), strings.ReplaceAll(string(category), "_", "")),
		Hashtags:    Hashtags(category, script.Keywords),
		Description: fmt.Sprintf("A quick %s explainer covering %d key points. Follow for more short lessons like this one.", label, len(script.MainPoints)),
		Hook:        hook,
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
