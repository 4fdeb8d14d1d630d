package youtube

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
)

// Client はYouTube API操作を抽象化するクライアント
type Client struct {
	client     youtube.Client
	httpClient *http.Client
}

// NewClient は新しいYouTubeクライアントを作成
func NewClient() *Client {
	return &Client{
		client:     youtube.Client{},
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// VideoInfo は動画のメタ情報
type VideoInfo struct {
	ID          string
	Title       string
	Author      string
	Duration    time.Duration
	Description string
	Captions    []CaptionTrack
}

// CaptionTrack は字幕トラックの情報
type CaptionTrack struct {
	LanguageCode string
	Name         string
	BaseURL      string
}

var videoHosts = map[string]bool{
	"youtube.com":       true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
	"youtu.be":          true,
}

// IsVideoURL はYouTube動画のURLかどうか
func IsVideoURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if !videoHosts[strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")] {
		return false
	}
	_, err = youtube.ExtractVideoID(raw)
	return err == nil
}

// GetVideo は動画情報を取得
func (c *Client) GetVideo(ctx context.Context, videoURL string) (*VideoInfo, error) {
	video, err := c.client.GetVideoContext(ctx, videoURL)
	if err != nil {
		return nil, err
	}

	captions := make([]CaptionTrack, len(video.CaptionTracks))
	for i, track := range video.CaptionTracks {
		captions[i] = CaptionTrack{
			LanguageCode: track.LanguageCode,
			Name:         track.Name.SimpleText,
			BaseURL:      track.BaseURL,
		}
	}

	return &VideoInfo{
		ID:          video.ID,
		Title:       video.Title,
		Author:      video.Author,
		Duration:    video.Duration,
		Description: video.Description,
		Captions:    captions,
	}, nil
}

// FindCaption は指定言語の字幕トラックを検索
// 見つからない場合は最初の字幕トラックを返す
func (v *VideoInfo) FindCaption(lang string) *CaptionTrack {
	if len(v.Captions) == 0 {
		return nil
	}

	for i := range v.Captions {
		if v.Captions[i].LanguageCode == lang {
			return &v.Captions[i]
		}
	}

	return &v.Captions[0]
}
