package voice

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"reelforge/internal/apperr"
	"reelforge/internal/models"
	"reelforge/internal/wav"
)

// OutputName is the file written into the job directory.
const OutputName = "voice.wav"

// styleSpeed maps a voice style to the sherpa speed factor (>1 is faster).
var styleSpeed = map[models.VoiceStyle]float32{
	models.VoiceProfessional:  1.0,
	models.VoiceFriendly:      1.05,
	models.VoiceAuthoritative: 0.95,
	models.VoiceInspiring:     1.0,
	models.VoiceEducational:   0.92,
}

// Speed returns the speaking rate for style.
func Speed(style models.VoiceStyle) float32 {
	if s, ok := styleSpeed[style]; ok {
		return s
	}
	return 1.0
}

// Synthesizer narrates text with a local sherpa-onnx VITS model.
// The engine is created on first use and reused; generation is serialized.
type Synthesizer struct {
	cfg     *ModelConfig
	reason  string
	speaker int
	log     *slog.Logger

	mu  sync.Mutex
	tts *sherpa.OfflineTts
}

// NewSynthesizer never fails; a missing model leaves the synthesizer unavailable.
func NewSynthesizer(modelDir string, numThreads int, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Synthesizer{log: logger}
	cfg, err := NewModelConfig(modelDir, numThreads)
	if err != nil {
		s.reason = err.Error()
		return s
	}
	s.cfg = cfg
	return s
}

func (s *Synthesizer) Name() string { return "sherpa-onnx-vits" }

func (s *Synthesizer) Available() bool { return s.cfg != nil }

// Detail explains why the synthesizer is unavailable, or names the model.
func (s *Synthesizer) Detail() string {
	if s.cfg == nil {
		return s.reason
	}
	return filepath.Base(s.cfg.ModelPath)
}

// Synthesize writes outDir/voice.wav. Generation itself cannot be interrupted,
// so ctx is checked before and after taking the engine lock and again after
// generation.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, style models.VoiceStyle, outDir string) (models.AudioAsset, error) {
	if !s.Available() {
		return models.AudioAsset{}, apperr.Unavailable(s.Name(), s.reason)
	}
	text = PrepareText(text)
	if text == "" {
		return models.AudioAsset{}, fmt.Errorf("nothing to narrate")
	}
	if err := ctx.Err(); err != nil {
		return models.AudioAsset{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The caller may have given up while another job held the engine.
	if err := ctx.Err(); err != nil {
		return models.AudioAsset{}, err
	}

	tts, err := s.engine()
	if err != nil {
		return models.AudioAsset{}, err
	}

	start := time.Now()
	audio := tts.Generate(text, s.speaker, Speed(style))
	if audio == nil || len(audio.Samples) == 0 {
		return models.AudioAsset{}, fmt.Errorf("tts produced no samples")
	}
	if err := ctx.Err(); err != nil {
		return models.AudioAsset{}, err
	}
	audio.Samples = TrimSilence(audio.Samples, audio.SampleRate, DefaultSilenceConfig())

	path := filepath.Join(outDir, OutputName)
	if ok := audio.Save(path); !ok {
		return models.AudioAsset{}, fmt.Errorf("failed to write %s", path)
	}

	duration := float64(len(audio.Samples)) / float64(audio.SampleRate)
	if info, err := wav.ReadInfo(path); err == nil {
		duration = info.Duration()
	}

	s.log.Info("voice.synthesized", "style", style, "chars", len(text),
		"duration_sec", duration, "elapsed_ms", time.Since(start).Milliseconds())

	return models.AudioAsset{
		Path:       path,
		Format:     "wav",
		Duration:   duration,
		SampleRate: audio.SampleRate,
		VoiceStyle: style,
	}, nil
}

// engine lazily creates the TTS engine. Caller holds s.mu.
func (s *Synthesizer) engine() (*sherpa.OfflineTts, error) {
	if s.tts != nil {
		return s.tts, nil
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tts model: %w", err)
	}

	config := sherpa.OfflineTtsConfig{
		Model: sherpa.OfflineTtsModelConfig{
			Vits: sherpa.OfflineTtsVitsModelConfig{
				Model:       s.cfg.ModelPath,
				Lexicon:     s.cfg.Lexicon,
				Tokens:      s.cfg.TokensPath,
				DataDir:     s.cfg.DataDir,
				NoiseScale:  0.667,
				NoiseScaleW: 0.8,
				LengthScale: 1.0,
			},
			NumThreads: s.cfg.NumThreads,
			Debug:      0,
			Provider:   "cpu",
		},
		MaxNumSentences: 2,
	}

	tts := sherpa.NewOfflineTts(&config)
	if tts == nil {
		return nil, fmt.Errorf("failed to create offline tts")
	}
	s.tts = tts
	s.log.Info("voice.engine_loaded", "model", s.cfg.ModelPath, "threads", s.cfg.NumThreads)
	return tts, nil
}

// Close releases the engine.
func (s *Synthesizer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tts != nil {
		sherpa.DeleteOfflineTts(s.tts)
		s.tts = nil
	}
	return nil
}

// PrepareText flattens whitespace and drops characters TTS front-ends read aloud
// literally, such as hashtags and markdown emphasis.
func PrepareText(text string) string {
	replacer := strings.NewReplacer("#", "", "*", "", "_", " ", "`", "", "•", ",", "—", ",", "–", ",")
	flat := strings.Join(strings.Fields(replacer.Replace(text)), " ")
	return strings.ReplaceAll(flat, " ,", ",")
}
