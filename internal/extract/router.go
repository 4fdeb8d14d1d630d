package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"reelforge/internal/apperr"
	"reelforge/internal/models"
)

// ErrEmptyContent is returned when a source yields no usable text.
var ErrEmptyContent = errors.New("no text could be extracted")

// DefaultMaxLength caps extracted text in runes.
const DefaultMaxLength = 50000

// source is one concrete extractor behind the router.
type source interface {
	name() string
	available() bool
	extract(ctx context.Context, ref models.ContentRef) (models.Content, error)
}

// Router picks an extractor for each content reference.
type Router struct {
	logger  *slog.Logger
	maxLen  int
	text    source
	pdf     source
	web     source
	youtube source
}

type Option func(*Router)

// WithWeb enables non-YouTube URLs through a page fetcher.
func WithWeb(f PageFetcher) Option {
	return func(r *Router) {
		if f != nil {
			r.web = &webSource{fetcher: f}
		}
	}
}

// WithYouTube enables caption extraction for YouTube URLs. lang is used when
// the content reference carries no language of its own.
func WithYouTube(c CaptionClient, lang string) Option {
	return func(r *Router) {
		if c != nil {
			r.youtube = &youtubeSource{client: c, lang: lang}
		}
	}
}

// WithPDF enables PDF text through pdftotext.
func WithPDF(p *PDF) Option {
	return func(r *Router) {
		if p != nil {
			r.pdf = p
		}
	}
}

func WithMaxLength(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.maxLen = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRouter builds a router; plain text files are always supported.
func NewRouter(opts ...Option) *Router {
	r := &Router{
		logger: slog.Default(),
		maxLen: DefaultMaxLength,
		text:   textSource{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Router) Name() string { return "extractor" }

// Available is true because local text files never need an external service.
func (r *Router) Available() bool { return true }

// Degraded reports whether any source kind besides plain text is disabled.
// Jobs of that kind get placeholder content.
func (r *Router) Degraded() bool {
	for _, src := range []source{r.pdf, r.web, r.youtube} {
		if src == nil || !src.available() {
			return true
		}
	}
	return false
}

// Detail lists which source kinds are backed by a live extractor.
func (r *Router) Detail() string {
	var parts []string
	for _, s := range []struct {
		label string
		src   source
	}{{"text", r.text}, {"pdf", r.pdf}, {"web", r.web}, {"youtube", r.youtube}} {
		state := "off"
		if s.src != nil && s.src.available() {
			state = "on"
		}
		parts = append(parts, s.label+"="+state)
	}
	return strings.Join(parts, " ")
}

// Extract returns text and metadata for ref. When the error is non-nil the
// returned content may still carry partial text (Metadata.Partial).
// An unsupported or disabled source kind yields an apperr unavailable error.
func (r *Router) Extract(ctx context.Context, ref models.ContentRef) (models.Content, error) {
	src, err := r.route(ref)
	if err != nil {
		return models.Content{}, err
	}

	start := time.Now()
	content, err := src.extract(ctx, ref)
	content = r.finish(content, src.name(), ref)

	if err != nil {
		err = &apperr.AdapterError{Adapter: src.name(), Err: err}
		if content.Text != "" {
			content.Metadata.Partial = true
			r.logger.Warn("extract.partial", "source", src.name(), "ref", ref.String(), "error", err, "chars", len(content.Text))
			return content, err
		}
		r.logger.Error("extract.failed", "source", src.name(), "ref", ref.String(), "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return models.Content{}, err
	}
	if content.Text == "" {
		return models.Content{}, &apperr.AdapterError{Adapter: src.name(), Err: ErrEmptyContent}
	}

	r.logger.Info("extract.ok", "source", src.name(), "ref", ref.String(),
		"words", content.Metadata.WordCount, "truncated", content.Metadata.Truncated,
		"elapsed_ms", time.Since(start).Milliseconds())
	return content, nil
}

func (r *Router) route(ref models.ContentRef) (source, error) {
	var src source
	switch ref.Kind {
	case models.SourceKindURL:
		if isYouTube(ref.URL) {
			src = r.youtube
		} else {
			src = r.web
		}
		if src == nil {
			return nil, apperr.Unavailable("extractor", "no extractor enabled for "+ref.URL)
		}
	case models.SourceKindFile:
		switch ext := ref.Ext(); ext {
		case ".txt", ".md", ".markdown", ".text":
			src = r.text
		case ".pdf":
			if r.pdf == nil {
				return nil, apperr.Unavailable("extractor", "pdf extraction is disabled")
			}
			src = r.pdf
		default:
			return nil, apperr.Unavailable("extractor", fmt.Sprintf("unsupported file type %q", ext))
		}
	default:
		return nil, fmt.Errorf("unknown source kind %q", ref.Kind)
	}
	if !src.available() {
		return nil, apperr.Unavailable(src.name(), "backend not available")
	}
	return src, nil
}

func (r *Router) finish(c models.Content, extractor string, ref models.ContentRef) models.Content {
	text := normalize(c.Text)
	if utf8.RuneCountInString(text) > r.maxLen {
		runes := []rune(text)
		text = strings.TrimSpace(string(runes[:r.maxLen]))
		c.Metadata.Truncated = true
	}
	c.Text = text
	c.Metadata.WordCount = len(strings.Fields(text))
	c.Metadata.Extractor = extractor
	if c.Metadata.SourceURL == "" {
		c.Metadata.SourceURL = ref.URL
	}
	if c.Metadata.FileName == "" {
		c.Metadata.FileName = ref.FileName
	}
	return c
}

// normalize trims lines and collapses runs of blank lines.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
