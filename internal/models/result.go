package models

import "strings"

// VoiceStyle はナレーションの声のスタイル
type VoiceStyle string

// 声のスタイル
const (
	VoiceProfessional  VoiceStyle = "professional"
	VoiceFriendly      VoiceStyle = "friendly"
	VoiceAuthoritative VoiceStyle = "authoritative"
	VoiceInspiring     VoiceStyle = "inspiring"
	VoiceEducational   VoiceStyle = "educational"
)

// VoiceStyles は利用可能なスタイル一覧
var VoiceStyles = []VoiceStyle{
	VoiceProfessional,
	VoiceFriendly,
	VoiceAuthoritative,
	VoiceInspiring,
	VoiceEducational,
}

// Valid は既知のスタイルかどうか
func (v VoiceStyle) Valid() bool {
	for _, s := range VoiceStyles {
		if s == v {
			return true
		}
	}
	return false
}

// Category はコンテンツのカテゴリ
type Category string

// カテゴリ
const (
	CategoryBusiness        Category = "business"
	CategorySelfDevelopment Category = "self_development"
	CategoryScience         Category = "science"
	CategoryHistory         Category = "history"
	CategoryTechnology      Category = "technology"
	CategoryHealth          Category = "health"
	CategoryOther           Category = "other"
)

// Categories は全カテゴリ（other は最後）
var Categories = []Category{
	CategoryBusiness,
	CategorySelfDevelopment,
	CategoryScience,
	CategoryHistory,
	CategoryTechnology,
	CategoryHealth,
	CategoryOther,
}

// ParseCategory は文字列をカテゴリに変換（不明なら other）
func ParseCategory(s string) Category {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	for _, c := range Categories {
		if string(c) == s {
			return c
		}
	}
	return CategoryOther
}

// Script は構造化されたナレーション台本
type Script struct {
	Hook              string   `json:"hook"`
	MainPoints        []string `json:"mainPoints"`
	Narration         string   `json:"script"`
	Category          Category `json:"category"`
	Keywords          []string `json:"keywords"`
	EstimatedDuration int      `json:"estimatedDuration"`
}

// Marketing はSNS投稿用のコピー
type Marketing struct {
	Caption     string   `json:"caption"`
	Hashtags    []string `json:"hashtags"`
	Description string   `json:"description"`
	Hook        string   `json:"hook"`
}

// AudioAsset は音声ファイルの参照
type AudioAsset struct {
	Path       string     `json:"path"`
	Format     string     `json:"format"`
	Duration   float64    `json:"duration"`
	SampleRate int        `json:"sampleRate,omitempty"`
	VoiceStyle VoiceStyle `json:"voiceStyle"`
	Simulated  bool       `json:"simulated"`
}

// VideoAsset は動画ファイルの記述子
type VideoAsset struct {
	Path       string  `json:"path"`
	Format     string  `json:"format"`
	Resolution string  `json:"resolution"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FPS        int     `json:"fps"`
	Duration   float64 `json:"duration"`
	SizeBytes  int64   `json:"sizeBytes"`
	Theme      string  `json:"theme,omitempty"`
	Simulated  bool    `json:"simulated"`
}

// 出力動画の仕様
const (
	VideoWidth      = 1080
	VideoHeight     = 1920
	VideoFPS        = 30
	VideoFormat     = "MP4"
	VideoResolution = "1080x1920"
)

// Result は完了したジョブの成果物
type Result struct {
	Script          Script          `json:"script"`
	Category        Category        `json:"category"`
	Marketing       Marketing       `json:"marketing"`
	Audio           AudioAsset      `json:"audio"`
	Video           VideoAsset      `json:"video"`
	Resolution      string          `json:"resolution"`
	Duration        int             `json:"duration"`
	Format          string          `json:"format"`
	VoiceStyle      VoiceStyle      `json:"voiceStyle"`
	ContentMetadata ContentMetadata `json:"contentMetadata"`
	FallbackStages  []Stage         `json:"fallbackStages"`
	Simulated       map[Stage]bool  `json:"simulated"`
}

// UsedFallback は指定段階がフォールバックだったかどうか
func (r *Result) UsedFallback(s Stage) bool {
	return r != nil && r.Simulated[s]
}

// Degraded はいずれかの段階がフォールバックだったかどうか
func (r *Result) Degraded() bool {
	return r != nil && len(r.FallbackStages) > 0
}
