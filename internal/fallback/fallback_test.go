package fallback

import (
	"os"
	"reflect"
	"strings"
	"testing"

	"reelforge/internal/models"
)

const techText = `Artificial intelligence is changing software development. Modern AI tools write code, review pull requests and explain algorithms.
Developers who learn these tools early gain a real advantage. The technology is moving fast and every computer science course now covers it!`

// TestDetectCategory verifies keyword scoring and the other default.
func TestDetectCategory(t *testing.T) {
	cases := []struct {
		text string
		want models.Category
	}{
		{techText, models.CategoryTechnology},
		{"Sleep, nutrition and exercise are the pillars of health.", models.CategoryHealth},
		{"The empire fell in the fifth century after a long war.", models.CategoryHistory},
		{"A recipe for banana bread.", models.CategoryOther},
	}
	for _, tc := range cases {
		if got := DetectCategory(tc.text); got != tc.want {
			t.Fatalf("DetectCategory(%q) = %q, want %q", tc.text[:20], got, tc.want)
		}
	}
}

// TestScriptIsDeterministic verifies identical input yields identical scripts.
func TestScriptIsDeterministic(t *testing.T) {
	content := models.Content{Text: techText, Metadata: models.ContentMetadata{Title: "AI at work"}}

	a := Script(content, 60)
	b := Script(content, 60)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("Script() not deterministic:\n%+v\n%+v", a, b)
	}
	if a.Category != models.CategoryTechnology {
		t.Fatalf("Category = %q, want technology", a.Category)
	}
	if a.EstimatedDuration != 60 {
		t.Fatalf("EstimatedDuration = %d, want 60", a.EstimatedDuration)
	}
	if len(a.MainPoints) == 0 || len(a.MainPoints) > 3 {
		t.Fatalf("MainPoints = %v, want 1..3 entries", a.MainPoints)
	}
	if !strings.HasPrefix(a.Narration, a.Hook) {
		t.Fatalf("Narration does not open with the hook")
	}
}

// TestScriptRespectsWordBudget verifies narration stays near the duration's word budget.
func TestScriptRespectsWordBudget(t *testing.T) {
	long := strings.Repeat("Every sentence here adds roughly ten more words to the text. ", 200)
	s := Script(models.Content{Text: long}, 30)

	if n := len(strings.Fields(s.Narration)); n > TargetWords(30)+10 {
		t.Fatalf("narration has %d words, budget %d", n, TargetWords(30))
	}
}

// TestScriptEmptyText verifies a usable script is produced without any text.
func TestScriptEmptyText(t *testing.T) {
	s := Script(models.Content{}, 45)
	if s.Hook == "" || s.Narration == "" {
		t.Fatalf("Script(empty) = %+v", s)
	}
	if s.Category != models.CategoryOther {
		t.Fatalf("Category = %q, want other", s.Category)
	}
}

// TestKeywordsOrder verifies frequency ordering with alphabetical ties and stopword removal.
func TestKeywordsOrder(t *testing.T) {
	got := Keywords("video video video audio audio zebra apple this this this this", 3)
	want := []string{"video", "audio", "apple"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Keywords() = %v, want %v", got, want)
	}
}

// TestMarketingShape verifies the fallback payload carries every field.
func TestMarketingShape(t *testing.T) {
	m := Marketing(models.Script{
		Hook:     "AI writes code now.",
		Category: models.CategoryTechnology,
		Keywords: []string{"software", "Tech"},
	})
	if m.Caption == "" || m.Description == "" || m.Hook == "" {
		t.Fatalf("Marketing() = %+v", m)
	}
	if m.Hashtags[0] != "#tech" {
		t.Fatalf("first hashtag = %q, want #tech", m.Hashtags[0])
	}
	seen := map[string]bool{}
	for _, h := range m.Hashtags {
		if seen[h] {
			t.Fatalf("duplicate hashtag %q in %v", h, m.Hashtags)
		}
		seen[h] = true
	}
	if !seen["#software"] || !seen["#fyp"] {
		t.Fatalf("hashtags %v missing keyword or base tags", m.Hashtags)
	}
}

// TestContentPlaceholder verifies placeholder content is flagged.
func TestContentPlaceholder(t *testing.T) {
	c := Content(models.URLRef("https://example.com/post"))
	if !c.Metadata.Placeholder || c.Text == "" {
		t.Fatalf("Content() = %+v", c)
	}
	if !strings.Contains(c.Text, "https://example.com/post") {
		t.Fatalf("placeholder text does not name the source")
	}
}

// TestAudioWritesSilence verifies the placeholder file exists and matches the duration.
func TestAudioWritesSilence(t *testing.T) {
	dir := t.TempDir()
	a, err := Audio(dir, 3, models.VoiceFriendly)
	if err != nil {
		t.Fatalf("Audio() error = %v", err)
	}
	if !a.Simulated || a.Duration != 3 || a.VoiceStyle != models.VoiceFriendly {
		t.Fatalf("Audio() = %+v", a)
	}
	if _, err := os.Stat(a.Path); err != nil {
		t.Fatalf("placeholder audio missing: %v", err)
	}
}

// TestVideoDescriptor verifies the descriptor matches the real renderer's shape.
func TestVideoDescriptor(t *testing.T) {
	v := Video("/out/job", models.Script{Category: models.CategoryHealth}, models.AudioAsset{Duration: 12.5}, 60)
	if !v.Simulated || v.Resolution != "1080x1920" || v.FPS != 30 || v.Duration != 12.5 {
		t.Fatalf("Video() = %+v", v)
	}
	if v.Theme != "health" {
		t.Fatalf("Theme = %q, want health", v.Theme)
	}
}
