package models

import (
	"net/url"
	"path/filepath"
	"strings"
)

// SourceKind は入力ソースの種類
type SourceKind string

// ソース種別
const (
	SourceKindURL  SourceKind = "url"
	SourceKindFile SourceKind = "file"
)

// ContentRef は入力されたコンテンツの参照（URLまたはアップロード済みファイル）
type ContentRef struct {
	Kind     SourceKind `json:"kind"`
	URL      string     `json:"url,omitempty"`
	Path     string     `json:"path,omitempty"`
	FileName string     `json:"filename,omitempty"`
	// Language は抽出時の希望言語（字幕の選択に使用）。保存はしない
	Language string `json:"-"`
}

// URLRef はURL参照を作成
func URLRef(u string) ContentRef {
	return ContentRef{Kind: SourceKindURL, URL: strings.TrimSpace(u)}
}

// FileRef はファイル参照を作成
func FileRef(path, name string) ContentRef {
	if name == "" {
		name = filepath.Base(path)
	}
	return ContentRef{Kind: SourceKindFile, Path: path, FileName: name}
}

// IsZero は参照が空かどうか
func (r ContentRef) IsZero() bool {
	return r.URL == "" && r.Path == ""
}

// Ext はファイル拡張子（小文字）を返す
func (r ContentRef) Ext() string {
	name := r.FileName
	if name == "" {
		name = r.Path
	}
	if name == "" && r.URL != "" {
		if u, err := url.Parse(r.URL); err == nil {
			name = u.Path
		}
	}
	return strings.ToLower(filepath.Ext(name))
}

// String はログ用の表現
func (r ContentRef) String() string {
	if r.Kind == SourceKindURL {
		return r.URL
	}
	if r.FileName != "" {
		return r.FileName
	}
	return r.Path
}

// Content は抽出されたテキストとメタデータ
type Content struct {
	Text     string          `json:"-"`
	Metadata ContentMetadata `json:"metadata"`
}

// ContentMetadata は抽出結果のメタデータ
type ContentMetadata struct {
	Title       string `json:"title,omitempty"`
	Author      string `json:"author,omitempty"`
	SourceURL   string `json:"sourceUrl,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	Language    string `json:"language,omitempty"`
	Pages       int    `json:"pages,omitempty"`
	WordCount   int    `json:"wordCount"`
	Truncated   bool   `json:"truncated,omitempty"`
	Partial     bool   `json:"partial,omitempty"`
	Extractor   string `json:"extractor,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
}
