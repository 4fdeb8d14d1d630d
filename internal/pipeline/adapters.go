package pipeline

import (
	"context"

	"reelforge/internal/models"
	"reelforge/internal/render"
)

// Adapter is the common surface of every external collaborator.
// Available reports whether a live backend is configured; an unavailable
// adapter is never called and its stage uses the deterministic fallback.
type Adapter interface {
	Name() string
	Available() bool
}

// Extractor returns text and metadata for a content reference. On error the
// returned content may still hold partial text.
type Extractor interface {
	Adapter
	Extract(ctx context.Context, ref models.ContentRef) (models.Content, error)
}

type ScriptAnalyzer interface {
	Adapter
	Analyze(ctx context.Context, content models.Content, settings models.Settings) (models.Script, error)
}

type VoiceSynthesizer interface {
	Adapter
	Synthesize(ctx context.Context, text string, style models.VoiceStyle, outDir string) (models.AudioAsset, error)
}

type MarketingWriter interface {
	Adapter
	Write(ctx context.Context, script models.Script) (models.Marketing, error)
}

type Renderer interface {
	Adapter
	Render(ctx context.Context, req render.Request) (models.VideoAsset, error)
}

// Adapters groups the collaborators of one orchestrator. Nil fields are
// treated as unavailable.
type Adapters struct {
	Extractor Extractor
	Analyzer  ScriptAnalyzer
	Voice     VoiceSynthesizer
	Marketing MarketingWriter
	Renderer  Renderer
}

// detailer is implemented by adapters that can explain their state.
type detailer interface {
	Detail() string
}

// degrader is implemented by adapters that are live for some inputs only.
type degrader interface {
	Degraded() bool
}

func (a Adapters) forStage(s models.Stage) Adapter {
	switch s {
	case models.StageExtraction:
		if a.Extractor != nil {
			return a.Extractor
		}
	case models.StageAnalysis:
		if a.Analyzer != nil {
			return a.Analyzer
		}
	case models.StageVoice:
		if a.Voice != nil {
			return a.Voice
		}
	case models.StageMarketing:
		if a.Marketing != nil {
			return a.Marketing
		}
	case models.StageRendering:
		if a.Renderer != nil {
			return a.Renderer
		}
	}
	return nil
}

// aiStages are skipped when a job opts out of AI.
var aiStages = map[models.Stage]bool{
	models.StageAnalysis:  true,
	models.StageVoice:     true,
	models.StageMarketing: true,
}

// skipReason returns why a stage goes straight to its fallback, or "".
func (a Adapters) skipReason(s models.Stage, useAI bool) string {
	if aiStages[s] && !useAI {
		return "AI disabled for this job"
	}
	ad := a.forStage(s)
	if ad == nil {
		return "no adapter configured"
	}
	if !ad.Available() {
		reason := ad.Name() + " unavailable"
		if d, ok := ad.(detailer); ok && d.Detail() != "" {
			reason += ": " + d.Detail()
		}
		return reason
	}
	return ""
}
