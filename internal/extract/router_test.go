package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelforge/internal/apperr"
	"reelforge/internal/models"
	"reelforge/internal/runner"
	"reelforge/internal/webfetch"
	"reelforge/internal/youtube"
)

type fakeFetcher struct {
	page *webfetch.Page
	err  error
	urls []string
}

func (f *fakeFetcher) FetchMarkdown(ctx context.Context, url string, opts *webfetch.FetchOptions) (*webfetch.Page, error) {
	f.urls = append(f.urls, url)
	return f.page, f.err
}

type fakeCaptions struct {
	video      *youtube.VideoInfo
	captions   *youtube.CaptionResult
	captionErr error
	langs      []string
}

func (f *fakeCaptions) GetVideo(ctx context.Context, url string) (*youtube.VideoInfo, error) {
	return f.video, nil
}

func (f *fakeCaptions) FetchCaption(ctx context.Context, video *youtube.VideoInfo, lang string) (*youtube.CaptionResult, error) {
	f.langs = append(f.langs, lang)
	return f.captions, f.captionErr
}

func found(string) (string, error)   { return "/usr/bin/pdftotext", nil }
func missing(string) (string, error) { return "", errors.New("not found") }

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractTextFile(t *testing.T) {
	path := writeFile(t, "notes.md", "# Morning Habits\n\n\n\nDrink   water first.\r\nThen walk.\n")
	r := NewRouter()

	c, err := r.Extract(context.Background(), models.FileRef(path, "notes.md"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if c.Text != "# Morning Habits\n\nDrink water first.\nThen walk." {
		t.Errorf("Text = %q", c.Text)
	}
	if c.Metadata.Title != "Morning Habits" {
		t.Errorf("Title = %q", c.Metadata.Title)
	}
	if c.Metadata.Extractor != "text" || c.Metadata.FileName != "notes.md" {
		t.Errorf("metadata = %+v", c.Metadata)
	}
	if c.Metadata.WordCount != 8 {
		t.Errorf("WordCount = %d, want 8", c.Metadata.WordCount)
	}
}

func TestExtractTruncates(t *testing.T) {
	path := writeFile(t, "long.txt", strings.Repeat("word ", 100))
	r := NewRouter(WithMaxLength(20))

	c, err := r.Extract(context.Background(), models.FileRef(path, ""))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !c.Metadata.Truncated {
		t.Error("Truncated = false")
	}
	if len([]rune(c.Text)) > 20 {
		t.Errorf("len = %d, want <= 20", len([]rune(c.Text)))
	}
}

func TestExtractEmptyFile(t *testing.T) {
	path := writeFile(t, "empty.txt", "  \n\n ")
	_, err := NewRouter().Extract(context.Background(), models.FileRef(path, ""))
	if !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("error = %v, want ErrEmptyContent", err)
	}
	if apperr.IsUnavailable(err) {
		t.Error("empty content must not be reported as unavailable")
	}
}

func TestExtractUnsupportedIsUnavailable(t *testing.T) {
	path := writeFile(t, "deck.pptx", "binary")
	_, err := NewRouter().Extract(context.Background(), models.FileRef(path, ""))
	if !apperr.IsUnavailable(err) {
		t.Fatalf("error = %v, want unavailable", err)
	}
}

func TestExtractURLWithoutWeb(t *testing.T) {
	_, err := NewRouter().Extract(context.Background(), models.URLRef("https://example.com/post"))
	if !apperr.IsUnavailable(err) {
		t.Fatalf("error = %v, want unavailable", err)
	}
}

func TestExtractPDF(t *testing.T) {
	fake := &runner.Fake{Handler: func(name string, args []string) ([]byte, []byte, error) {
		return []byte("Page one text.\fPage two text.\f"), nil, nil
	}}
	r := NewRouter(WithPDF(NewPDF("pdftotext", fake, found)))

	c, err := r.Extract(context.Background(), models.FileRef("/tmp/in.pdf", "report.pdf"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if c.Metadata.Pages != 2 {
		t.Errorf("Pages = %d, want 2", c.Metadata.Pages)
	}
	if c.Metadata.Title != "report" {
		t.Errorf("Title = %q", c.Metadata.Title)
	}
	calls := fake.Calls()
	if len(calls) != 1 || calls[0].CommandLine() != "pdftotext -layout -enc UTF-8 -eol unix /tmp/in.pdf -" {
		t.Fatalf("calls = %+v", calls)
	}
}

func TestExtractPDFPartial(t *testing.T) {
	fake := &runner.Fake{Handler: func(name string, args []string) ([]byte, []byte, error) {
		return []byte("Recovered first page."), []byte("Syntax Error: broken xref"), errors.New("exit status 1")
	}}
	r := NewRouter(WithPDF(NewPDF("pdftotext", fake, found)))

	c, err := r.Extract(context.Background(), models.FileRef("/tmp/in.pdf", "broken.pdf"))
	if err == nil {
		t.Fatal("Extract() error = nil, want partial failure")
	}
	if !c.Metadata.Partial || c.Text != "Recovered first page." {
		t.Fatalf("content = %+v %q", c.Metadata, c.Text)
	}
}

func TestExtractPDFMissingBinary(t *testing.T) {
	r := NewRouter(WithPDF(NewPDF("pdftotext", &runner.Fake{}, missing)))
	_, err := r.Extract(context.Background(), models.FileRef("/tmp/in.pdf", "a.pdf"))
	if !apperr.IsUnavailable(err) {
		t.Fatalf("error = %v, want unavailable", err)
	}
	if !strings.Contains(r.Detail(), "pdf=off") {
		t.Errorf("Detail() = %q", r.Detail())
	}
}

func TestExtractWebPage(t *testing.T) {
	fetcher := &fakeFetcher{page: &webfetch.Page{
		URL:      "https://example.com/post",
		Markdown: "## Ten Tips\n\n- **First** tip\n- [Second](https://x.y) tip",
	}}
	r := NewRouter(WithWeb(fetcher))

	c, err := r.Extract(context.Background(), models.URLRef("https://example.com/post"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if c.Text != "Ten Tips\n\nFirst tip\nSecond tip" {
		t.Errorf("Text = %q", c.Text)
	}
	if c.Metadata.Title != "example.com" || c.Metadata.Extractor != "webfetch" {
		t.Errorf("metadata = %+v", c.Metadata)
	}
}

func TestExtractWebError(t *testing.T) {
	r := NewRouter(WithWeb(&fakeFetcher{err: errors.New("navigation timeout")}))
	_, err := r.Extract(context.Background(), models.URLRef("https://example.com/post"))
	var ae *apperr.AdapterError
	if !errors.As(err, &ae) || ae.Adapter != "webfetch" {
		t.Fatalf("error = %v, want webfetch adapter error", err)
	}
	if apperr.IsUnavailable(err) {
		t.Error("call failure reported as unavailable")
	}
}

func TestExtractYouTubeRouting(t *testing.T) {
	web := &fakeFetcher{err: errors.New("should not be called")}
	tube := &fakeCaptions{
		video: &youtube.VideoInfo{Title: "Focus", Author: "Chan", Description: "About focus."},
		captions: &youtube.CaptionResult{LanguageCode: "en", Entries: []youtube.CaptionEntry{
			{Text: "Deep work matters."}, {Text: "Block your time."},
		}},
	}
	r := NewRouter(WithWeb(web), WithYouTube(tube, "en"))

	c, err := r.Extract(context.Background(), models.URLRef("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(web.urls) != 0 {
		t.Errorf("web fetcher called for a video URL")
	}
	if c.Text != "Deep work matters.\nBlock your time." || c.Metadata.Language != "en" || c.Metadata.Author != "Chan" {
		t.Fatalf("content = %+v %q", c.Metadata, c.Text)
	}
}

func TestExtractYouTubeWithoutCaptions(t *testing.T) {
	tube := &fakeCaptions{
		video:      &youtube.VideoInfo{Title: "Focus", Description: "A talk about focus."},
		captionErr: youtube.ErrNoCaptions,
	}
	r := NewRouter(WithYouTube(tube, "en"))

	c, err := r.Extract(context.Background(), models.URLRef("https://youtu.be/dQw4w9WgXcQ"))
	if !errors.Is(err, youtube.ErrNoCaptions) {
		t.Fatalf("error = %v, want ErrNoCaptions", err)
	}
	if !c.Metadata.Partial || c.Text != "A talk about focus." {
		t.Fatalf("content = %+v %q", c.Metadata, c.Text)
	}
}

func TestExtractYouTubeUsesRequestedLanguage(t *testing.T) {
	tube := &fakeCaptions{
		video:    &youtube.VideoInfo{Title: "Focus"},
		captions: &youtube.CaptionResult{LanguageCode: "ja", Entries: []youtube.CaptionEntry{{Text: "集中する"}}},
	}
	r := NewRouter(WithYouTube(tube, "en"))

	ref := models.URLRef("https://youtu.be/dQw4w9WgXcQ")
	ref.Language = "ja"
	if _, err := r.Extract(context.Background(), ref); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if _, err := r.Extract(context.Background(), models.URLRef("https://youtu.be/dQw4w9WgXcQ")); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if strings.Join(tube.langs, ",") != "ja,en" {
		t.Fatalf("caption languages = %v, want [ja en]", tube.langs)
	}
}

func TestRouterDegradedUntilEverySourceIsLive(t *testing.T) {
	if !NewRouter().Degraded() {
		t.Error("text-only router not degraded")
	}
	tube := &fakeCaptions{}
	r := NewRouter(
		WithWeb(&fakeFetcher{}),
		WithYouTube(tube, "en"),
		WithPDF(NewPDF("pdftotext", &runner.Fake{}, missing)),
	)
	if !r.Degraded() {
		t.Error("router with missing pdftotext not degraded")
	}
	r = NewRouter(
		WithWeb(&fakeFetcher{}),
		WithYouTube(tube, "en"),
		WithPDF(NewPDF("pdftotext", &runner.Fake{}, found)),
	)
	if r.Degraded() {
		t.Errorf("fully wired router degraded: %s", r.Detail())
	}
}
