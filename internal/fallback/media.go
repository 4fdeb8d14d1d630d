package fallback

import (
	"fmt"
	"path/filepath"

	"reelforge/internal/models"
	"reelforge/internal/wav"
)

// PlaceholderSampleRate is the sample rate of the silent narration track.
const PlaceholderSampleRate = 16000

// Audio writes a silent WAV of the target length into dir.
func Audio(dir string, seconds int, style models.VoiceStyle) (models.AudioAsset, error) {
	path := filepath.Join(dir, "voice_placeholder.wav")
	info, err := wav.WriteSilence(path, float64(seconds), PlaceholderSampleRate)
	if err != nil {
		return models.AudioAsset{}, fmt.Errorf("write placeholder audio: %w", err)
	}
	return models.AudioAsset{
		Path:       path,
		Format:     "wav",
		Duration:   info.Duration(),
		SampleRate: info.SampleRate,
		VoiceStyle: style,
		Simulated:  true,
	}, nil
}

// Video describes the video that would have been rendered. No file is written.
func Video(dir string, script models.Script, audio models.AudioAsset, seconds int) models.VideoAsset {
	duration := audio.Duration
	if duration <= 0 {
		duration = float64(seconds)
	}
	return models.VideoAsset{
		Path:       filepath.Join(dir, "video.mp4"),
		Format:     models.VideoFormat,
		Resolution: models.VideoResolution,
		Width:      models.VideoWidth,
		Height:     models.VideoHeight,
		FPS:        models.VideoFPS,
		Duration:   duration,
		Theme:      string(script.Category),
		Simulated:  true,
	}
}
