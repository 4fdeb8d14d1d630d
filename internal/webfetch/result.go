package webfetch

import (
	"regexp"
	"strings"
	"time"
)

// Page はフェッチ結果
type Page struct {
	URL      string        `json:"url"`
	Title    string        `json:"title,omitempty"`
	Markdown string        `json:"markdown"`
	Duration time.Duration `json:"duration"`
}

var (
	mdImage   = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	mdLink    = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdEmph    = regexp.MustCompile("[*_`~]+")
	mdHeading = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s*`)
	mdList    = regexp.MustCompile(`(?m)^\s*(?:[-+*]|\d+\.)\s+`)
	mdQuote   = regexp.MustCompile(`(?m)^\s*>\s?`)
	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// PlainText はMarkdownから装飾を除いたテキストを返す
func (p *Page) PlainText() string {
	s := p.Markdown
	s = mdImage.ReplaceAllString(s, "")
	s = mdLink.ReplaceAllString(s, "$1")
	s = mdHeading.ReplaceAllString(s, "")
	s = mdList.ReplaceAllString(s, "")
	s = mdQuote.ReplaceAllString(s, "")
	s = mdEmph.ReplaceAllString(s, "")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// titleFromMarkdown は最初の見出しをタイトルとして返す
func titleFromMarkdown(md string) string {
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return ""
}
