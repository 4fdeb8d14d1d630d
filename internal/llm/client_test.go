package llm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reelforge/internal/apperr"
	"reelforge/internal/models"
)

// completionServer replies with content as the first choice and records request bodies.
func completionServer(t *testing.T, status int, content string, seen *[]map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		var m map[string]any
		_ = json.Unmarshal(body, &m)
		if seen != nil {
			*seen = append(*seen, m)
		}
		w.WriteHeader(status)
		resp := map[string]any{"choices": []map[string]any{{"message": map[string]any{"content": content}}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(url string) *Client {
	return NewClient(Config{APIKey: "test-key", BaseURL: url, Model: "test-model"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAnalyzerParsesScript(t *testing.T) {
	var seen []map[string]any
	srv := completionServer(t, http.StatusOK, "```json\n"+`{
		"hook": "Stop scrolling.",
		"main_points": ["Point one", " ", "Point two"],
		"script": "Stop scrolling. Here is the idea.",
		"category": "self_development",
		"keywords": [],
		"estimated_duration": 30
	}`+"\n```", &seen)

	a := NewAnalyzer(newTestClient(srv.URL))
	content := models.Content{Text: "Habits compound. Habits shape identity.", Metadata: models.ContentMetadata{Title: "Habits"}}
	script, err := a.Analyze(context.Background(), content, models.Settings{Duration: 45, VoiceStyle: models.VoiceFriendly, Language: "en"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if script.Category != models.CategorySelfDevelopment {
		t.Errorf("Category = %q", script.Category)
	}
	if len(script.MainPoints) != 2 {
		t.Errorf("MainPoints = %v", script.MainPoints)
	}
	if script.EstimatedDuration != 45 {
		t.Errorf("EstimatedDuration = %d, want requested 45", script.EstimatedDuration)
	}
	if len(script.Keywords) == 0 || script.Keywords[0] != "habits" {
		t.Errorf("Keywords = %v, want derived from content", script.Keywords)
	}

	if len(seen) != 1 {
		t.Fatalf("requests = %d", len(seen))
	}
	if seen[0]["model"] != "test-model" {
		t.Errorf("model = %v", seen[0]["model"])
	}
	msgs, _ := seen[0]["messages"].([]any)
	first, _ := msgs[0].(map[string]any)
	if sys, _ := first["content"].(string); !strings.Contains(sys, "45 seconds") {
		t.Errorf("system prompt missing duration: %q", sys)
	}
}

func TestAnalyzerRejectsSchemaViolation(t *testing.T) {
	srv := completionServer(t, http.StatusOK, `{"hook":"x","main_points":[],"script":"","category":"cooking"}`, nil)
	a := NewAnalyzer(newTestClient(srv.URL))

	_, err := a.Analyze(context.Background(), models.Content{Text: "text"}, models.Settings{Duration: 30})
	if err == nil || !strings.Contains(err.Error(), "schema validation failed") {
		t.Fatalf("error = %v, want schema validation failure", err)
	}
}

func TestClientHTTPError(t *testing.T) {
	srv := completionServer(t, http.StatusTooManyRequests, `{}`, nil)
	a := NewAnalyzer(newTestClient(srv.URL))

	_, err := a.Analyze(context.Background(), models.Content{Text: "text"}, models.Settings{Duration: 30})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("error = %v, want status 429", err)
	}
	if apperr.IsUnavailable(err) {
		t.Error("HTTP failure reported as unavailable")
	}
}

func TestClientWithoutKeyIsUnavailable(t *testing.T) {
	c := NewClient(Config{}, nil)
	if c.Available() {
		t.Fatal("Available() = true without key")
	}
	_, err := NewCopywriter(c).Write(context.Background(), models.Script{Narration: "x"})
	if !apperr.IsUnavailable(err) {
		t.Fatalf("error = %v, want unavailable", err)
	}
}

func TestCopywriterNormalizesHashtags(t *testing.T) {
	srv := completionServer(t, http.StatusOK, `{
		"caption": "Build better habits 🚀",
		"hashtags": ["Habits", "#habits", "self improvement", "#", "#Mindset"],
		"description": "Three ideas."
	}`, nil)
	w := NewCopywriter(newTestClient(srv.URL))

	m, err := w.Write(context.Background(), models.Script{Hook: "Tiny habits win.", Narration: "Tiny habits win.", Category: models.CategorySelfDevelopment})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	want := []string{"#habits", "#selfimprovement", "#mindset"}
	if strings.Join(m.Hashtags, ",") != strings.Join(want, ",") {
		t.Errorf("Hashtags = %v, want %v", m.Hashtags, want)
	}
	if m.Hook != "Tiny habits win." {
		t.Errorf("Hook = %q, want script hook", m.Hook)
	}
}
