// Package fallback produces deterministic stand-ins for every adapter output.
// Nothing here touches the network; the same input always yields the same output.
package fallback

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"reelforge/internal/models"
)

// WordsPerMinute is the narration pace used to size scripts.
const WordsPerMinute = 175

// TargetWords returns the narration length for a duration in seconds.
func TargetWords(seconds int) int {
	n := seconds * WordsPerMinute / 60
	if n < 20 {
		n = 20
	}
	return n
}

var categoryKeywords = []struct {
	category models.Category
	words    []string
}{
	{models.CategoryBusiness, []string{"business", "marketing", "sales", "revenue", "startup", "entrepreneur", "customer", "profit", "kinh doanh", "bán hàng"}},
	{models.CategorySelfDevelopment, []string{"habit", "mindset", "motivation", "productivity", "self-improvement", "personal growth", "discipline", "phát triển", "kỹ năng", "thành công"}},
	{models.CategoryScience, []string{"science", "research", "experiment", "physics", "biology", "chemistry", "scientist", "khoa học", "nghiên cứu"}},
	{models.CategoryHistory, []string{"history", "ancient", "century", "empire", "war", "dynasty", "historical", "lịch sử", "cổ đại"}},
	{models.CategoryTechnology, []string{"technology", "software", "ai", "digital", "tech", "computer", "internet", "algorithm", "công nghệ"}},
	{models.CategoryHealth, []string{"health", "fitness", "nutrition", "wellness", "exercise", "sleep", "diet", "sức khỏe"}},
}

// DetectCategory scores text against keyword lists; ties go to the earlier category.
func DetectCategory(text string) models.Category {
	lower := strings.ToLower(text)
	tokens := make(map[string]int)
	for _, w := range words(lower) {
		tokens[w]++
	}

	best, bestScore := models.CategoryOther, 0
	for _, ck := range categoryKeywords {
		score := 0
		for _, kw := range ck.words {
			if strings.Contains(kw, " ") || strings.Contains(kw, "-") {
				score += strings.Count(lower, kw)
				continue
			}
			score += tokens[kw]
		}
		if score > bestScore {
			best, bestScore = ck.category, score
		}
	}
	return best
}

// Script builds a narration from the source text alone.
func Script(content models.Content, seconds int) models.Script {
	text := strings.TrimSpace(content.Text)
	sentences := Sentences(text)
	category := DetectCategory(text)

	topic := content.Metadata.Title
	if topic == "" {
		topic = "this topic"
	}

	hook := fmt.Sprintf("Here is what you need to know about %s.", topic)
	if len(sentences) > 0 && wordCount(sentences[0]) <= 25 {
		hook = sentences[0]
	}

	var points []string
	for _, s := range sentences {
		if len([]rune(s)) > 20 {
			points = append(points, s)
		}
		if len(points) == 3 {
			break
		}
	}

	budget := TargetWords(seconds)
	var b strings.Builder
	b.WriteString(hook)
	used := wordCount(hook)
	for _, s := range sentences {
		if s == hook {
			continue
		}
		n := wordCount(s)
		if used+n > budget-8 {
			break
		}
		b.WriteString(" ")
		b.WriteString(s)
		used += n
	}
	b.WriteString(" Follow for more ideas like this.")

	return models.Script{
		Hook:              hook,
		MainPoints:        points,
		Narration:         b.String(),
		Category:          category,
		Keywords:          Keywords(text, 5),
		EstimatedDuration: seconds,
	}
}

// Sentences splits text on terminal punctuation and line breaks.
func Sentences(text string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		s := strings.Join(strings.Fields(cur.String()), " ")
		if s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			cur.WriteRune(r)
			flush()
		case '\n':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

var stopwords = map[string]bool{
	"that": true, "this": true, "with": true, "from": true, "have": true, "they": true,
	"their": true, "there": true, "which": true, "about": true, "would": true, "could": true,
	"should": true, "what": true, "when": true, "where": true, "your": true, "will": true,
	"been": true, "were": true, "into": true, "than": true, "then": true, "them": true,
	"more": true, "most": true, "also": true, "some": true, "such": true, "only": true,
	"other": true, "these": true, "those": true, "because": true, "while": true, "very": true,
}

// Keywords returns the n most frequent content words, ties broken alphabetically.
func Keywords(text string, n int) []string {
	counts := make(map[string]int)
	for _, w := range words(strings.ToLower(text)) {
		if len([]rune(w)) < 4 || stopwords[w] {
			continue
		}
		counts[w]++
	}
	keys := make([]string, 0, len(counts))
	for w := range counts {
		keys = append(keys, w)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
