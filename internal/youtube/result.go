package youtube

import (
	"strings"
	"time"
)

// CaptionEntry は字幕の1エントリ
type CaptionEntry struct {
	StartTime time.Duration `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Text      string        `json:"text"`
}

// EndTime は終了時刻を返す
func (e *CaptionEntry) EndTime() time.Duration {
	return e.StartTime + e.Duration
}

// CaptionResult は字幕取得結果
type CaptionResult struct {
	LanguageCode string         `json:"language_code"`
	Entries      []CaptionEntry `json:"entries"`
}

// FormatAsText は字幕を1つの段落として連結する
// 文末記号で終わるエントリの後では改行する
func (r *CaptionResult) FormatAsText() string {
	var sb strings.Builder
	for i, entry := range r.Entries {
		if i > 0 {
			prev := r.Entries[i-1].Text
			if strings.HasSuffix(prev, ".") || strings.HasSuffix(prev, "?") || strings.HasSuffix(prev, "!") {
				sb.WriteString("\n")
			} else {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(entry.Text)
	}
	return strings.TrimSpace(sb.String())
}

// Span は最後のエントリの終了時刻
func (r *CaptionResult) Span() time.Duration {
	if len(r.Entries) == 0 {
		return 0
	}
	return r.Entries[len(r.Entries)-1].EndTime()
}
