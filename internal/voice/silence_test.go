package voice

import (
	"math"
	"testing"
)

// tone returns n samples of a 440Hz sine at amplitude amp.
func tone(n, sampleRate int, amp float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = amp * float32(math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}
	return out
}

func TestTrimSilence(t *testing.T) {
	const rate = 16000
	silence := make([]float32, rate) // 1s
	speech := tone(rate/2, rate, 0.5)

	samples := append(append(append([]float32{}, silence...), speech...), silence...)
	got := TrimSilence(samples, rate, DefaultSilenceConfig())

	pad := int(0.15 * rate)
	frame := int(0.03 * rate)
	if len(got) < len(speech) {
		t.Fatalf("trimmed into speech: %d < %d", len(got), len(speech))
	}
	if maxLen := len(speech) + 2*pad + 2*frame; len(got) > maxLen {
		t.Errorf("len = %d, want at most %d", len(got), maxLen)
	}
	if calculateRMS(got[:frame]) >= 0.01 {
		t.Error("leading padding should be quiet")
	}
}

func TestTrimSilenceKeepsAllSilent(t *testing.T) {
	samples := make([]float32, 8000)
	if got := TrimSilence(samples, 16000, DefaultSilenceConfig()); len(got) != len(samples) {
		t.Errorf("len = %d, want unchanged %d", len(got), len(samples))
	}
}

func TestTrimSilenceShortInput(t *testing.T) {
	samples := tone(100, 16000, 0.5)
	if got := TrimSilence(samples, 16000, DefaultSilenceConfig()); len(got) != 100 {
		t.Errorf("len = %d, want 100", len(got))
	}
}

func TestCalculateRMS(t *testing.T) {
	if got := calculateRMS([]float32{0.5, -0.5, 0.5, -0.5}); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("rms = %v, want 0.5", got)
	}
	if calculateRMS(nil) != 0 {
		t.Error("rms of nothing should be 0")
	}
}
