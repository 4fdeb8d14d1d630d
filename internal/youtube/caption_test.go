package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const transcriptXML = `<?xml version="1.0" encoding="utf-8" ?>
<timedtext format="3">
<body>
<p t="0" d="1500"><s>Habits</s><s> compound</s></p>
<p t="1500" d="2000">over time.</p>
<p t="3500" d="500"></p>
<p t="4000" d="1000">Start &amp;amp; keep going</p>
</body>
</timedtext>`

// TestParseTranscriptXML verifies segments, plain bodies and empty entries.
func TestParseTranscriptXML(t *testing.T) {
	res, err := parseTranscriptXML([]byte(transcriptXML))
	if err != nil {
		t.Fatalf("parseTranscriptXML() error = %v", err)
	}
	if len(res.Entries) != 3 {
		t.Fatalf("entries = %d, want 3 (%+v)", len(res.Entries), res.Entries)
	}
	if res.Entries[0].Text != "Habits compound" {
		t.Fatalf("entry 0 = %q", res.Entries[0].Text)
	}
	if res.Entries[2].Text != "Start & keep going" {
		t.Fatalf("entry 2 = %q", res.Entries[2].Text)
	}
	if res.Span() != 5*time.Second {
		t.Fatalf("Span() = %v, want 5s", res.Span())
	}
	if got := res.FormatAsText(); got != "Habits compound over time.\nStart & keep going" {
		t.Fatalf("FormatAsText() = %q", got)
	}
}

// TestFetchCaptionByURL verifies the HTTP path and status handling.
func TestFetchCaptionByURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(transcriptXML))
	}))
	defer srv.Close()

	c := NewClient()
	res, err := c.FetchCaptionByURL(context.Background(), srv.URL+"/ok")
	if err != nil {
		t.Fatalf("FetchCaptionByURL() error = %v", err)
	}
	if len(res.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(res.Entries))
	}

	if _, err := c.FetchCaptionByURL(context.Background(), srv.URL+"/missing"); err == nil {
		t.Fatalf("FetchCaptionByURL(missing) error = nil, want error")
	}
}

// TestFetchCaptionWithoutTracks verifies ErrNoCaptions.
func TestFetchCaptionWithoutTracks(t *testing.T) {
	_, err := NewClient().FetchCaption(context.Background(), &VideoInfo{}, "en")
	if !errors.Is(err, ErrNoCaptions) {
		t.Fatalf("FetchCaption() error = %v, want ErrNoCaptions", err)
	}
}

// TestFindCaptionPrefersLanguage verifies language match with first-track fallback.
func TestFindCaptionPrefersLanguage(t *testing.T) {
	v := &VideoInfo{Captions: []CaptionTrack{{LanguageCode: "ja"}, {LanguageCode: "en"}}}
	if got := v.FindCaption("en"); got.LanguageCode != "en" {
		t.Fatalf("FindCaption(en) = %q", got.LanguageCode)
	}
	if got := v.FindCaption("vi"); got.LanguageCode != "ja" {
		t.Fatalf("FindCaption(vi) = %q, want first track", got.LanguageCode)
	}
}

// TestIsVideoURL verifies YouTube URL detection.
func TestIsVideoURL(t *testing.T) {
	if !IsVideoURL("https://www.youtube.com/watch?v=dQw4w9WgXcQ") {
		t.Fatalf("watch URL not detected")
	}
	if !IsVideoURL("https://youtu.be/dQw4w9WgXcQ") {
		t.Fatalf("short URL not detected")
	}
	if IsVideoURL("https://example.com/article") {
		t.Fatalf("non-YouTube URL detected as video")
	}
}
