package voice

import "math"

// SilenceConfig は前後の無音トリミングの設定
type SilenceConfig struct {
	// Threshold はこのRMS未満のフレームを無音とみなす (0.0-1.0)
	Threshold float64
	// FrameDuration はRMSを計算するフレーム長（秒）
	FrameDuration float64
	// Padding は発話の前後に残す無音（秒）
	Padding float64
}

// DefaultSilenceConfig はTTS出力向けの設定
func DefaultSilenceConfig() SilenceConfig {
	return SilenceConfig{
		Threshold:     0.01,
		FrameDuration: 0.03,
		Padding:       0.15,
	}
}

// TrimSilence は先頭と末尾の無音フレームを除去する
// 全体が無音の場合はそのまま返す
func TrimSilence(samples []float32, sampleRate int, cfg SilenceConfig) []float32 {
	frameSize := int(cfg.FrameDuration * float64(sampleRate))
	if frameSize <= 0 || len(samples) <= frameSize {
		return samples
	}

	frames := (len(samples) + frameSize - 1) / frameSize
	first, last := -1, -1
	for i := 0; i < frames; i++ {
		end := min((i+1)*frameSize, len(samples))
		if calculateRMS(samples[i*frameSize:end]) >= cfg.Threshold {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return samples
	}

	pad := int(cfg.Padding * float64(sampleRate))
	start := max(first*frameSize-pad, 0)
	end := min((last+1)*frameSize+pad, len(samples))
	return samples[start:end]
}

// calculateRMS はサンプルの二乗平均平方根
func calculateRMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
