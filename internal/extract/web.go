package extract

import (
	"context"
	"net/url"
	"strings"

	"reelforge/internal/models"
	"reelforge/internal/webfetch"
	"reelforge/internal/youtube"
)

// PageFetcher is satisfied by *webfetch.Client.
type PageFetcher interface {
	FetchMarkdown(ctx context.Context, url string, opts *webfetch.FetchOptions) (*webfetch.Page, error)
}

// CaptionClient is satisfied by *youtube.Client.
type CaptionClient interface {
	GetVideo(ctx context.Context, url string) (*youtube.VideoInfo, error)
	FetchCaption(ctx context.Context, video *youtube.VideoInfo, lang string) (*youtube.CaptionResult, error)
}

type webSource struct {
	fetcher PageFetcher
}

func (s *webSource) name() string    { return "webfetch" }
func (s *webSource) available() bool { return s.fetcher != nil }

func (s *webSource) extract(ctx context.Context, ref models.ContentRef) (models.Content, error) {
	page, err := s.fetcher.FetchMarkdown(ctx, ref.URL, webfetch.DefaultFetchOptions())
	if err != nil {
		return models.Content{}, err
	}
	title := page.Title
	if title == "" {
		if u, err := url.Parse(page.URL); err == nil {
			title = u.Hostname()
		}
	}
	return models.Content{
		Text: page.PlainText(),
		Metadata: models.ContentMetadata{
			Title:     title,
			SourceURL: page.URL,
		},
	}, nil
}

type youtubeSource struct {
	client CaptionClient
	lang   string
}

func (s *youtubeSource) name() string    { return "youtube" }
func (s *youtubeSource) available() bool { return s.client != nil }

// extract prefers captions; the video description is returned as partial
// content when captions cannot be fetched.
func (s *youtubeSource) extract(ctx context.Context, ref models.ContentRef) (models.Content, error) {
	video, err := s.client.GetVideo(ctx, ref.URL)
	if err != nil {
		return models.Content{}, err
	}
	meta := models.ContentMetadata{
		Title:     video.Title,
		Author:    video.Author,
		SourceURL: ref.URL,
	}

	lang := ref.Language
	if lang == "" {
		lang = s.lang
	}
	captions, err := s.client.FetchCaption(ctx, video, lang)
	if err != nil {
		return models.Content{Text: video.Description, Metadata: meta}, err
	}
	meta.Language = captions.LanguageCode
	return models.Content{Text: captions.FormatAsText(), Metadata: meta}, nil
}

func isYouTube(raw string) bool {
	return youtube.IsVideoURL(strings.TrimSpace(raw))
}
