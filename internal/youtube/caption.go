package youtube

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoCaptions は字幕トラックがない場合のエラー
var ErrNoCaptions = errors.New("no captions available")

// YouTube字幕のXML構造（format 3）
type xmlTranscript struct {
	XMLName xml.Name  `xml:"timedtext"`
	Text    []xmlText `xml:"body>p"`
}

type xmlText struct {
	Start    int64        `xml:"t,attr"` // ミリ秒
	Duration int64        `xml:"d,attr"` // ミリ秒
	Content  string       `xml:",chardata"`
	Segments []xmlSegment `xml:"s"`
}

type xmlSegment struct {
	Text string `xml:",chardata"`
}

// FetchCaption は指定言語の字幕を取得
func (c *Client) FetchCaption(ctx context.Context, video *VideoInfo, lang string) (*CaptionResult, error) {
	track := video.FindCaption(lang)
	if track == nil {
		return nil, ErrNoCaptions
	}

	result, err := c.FetchCaptionByURL(ctx, track.BaseURL)
	if err != nil {
		return nil, err
	}

	result.LanguageCode = track.LanguageCode
	return result, nil
}

// FetchCaptionByURL はURLから直接字幕を取得
func (c *Client) FetchCaptionByURL(ctx context.Context, url string) (*CaptionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return parseTranscriptXML(body)
}

// parseTranscriptXML はXMLをパースしてCaptionResultを返す
func parseTranscriptXML(data []byte) (*CaptionResult, error) {
	var transcript xmlTranscript
	if err := xml.Unmarshal(data, &transcript); err != nil {
		return nil, fmt.Errorf("XML parse failed: %w", err)
	}

	entries := make([]CaptionEntry, 0, len(transcript.Text))
	for _, p := range transcript.Text {
		// セグメントがあれば連結、なければ本文を使う
		var sb strings.Builder
		for _, seg := range p.Segments {
			sb.WriteString(seg.Text)
		}
		text := sb.String()
		if text == "" {
			text = p.Content
		}
		text = strings.TrimSpace(html.UnescapeString(text))

		if text == "" {
			continue
		}

		entries = append(entries, CaptionEntry{
			StartTime: time.Duration(p.Start) * time.Millisecond,
			Duration:  time.Duration(p.Duration) * time.Millisecond,
			Text:      text,
		})
	}

	return &CaptionResult{
		Entries: entries,
	}, nil
}
