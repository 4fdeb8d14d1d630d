package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"reelforge/internal/events"
	"reelforge/internal/models"
	"reelforge/internal/render"
	"reelforge/internal/storage"
	"reelforge/internal/worker"
)

// fakeAdapter carries the Adapter methods and a call counter.
type fakeAdapter struct {
	name        string
	unavailable bool
	calls       atomic.Int32
}

func (f *fakeAdapter) Name() string    { return f.name }
func (f *fakeAdapter) Available() bool { return !f.unavailable }

type fakeExtractor struct {
	fakeAdapter
	degraded bool
	fn       func(ctx context.Context, ref models.ContentRef) (models.Content, error)
}

func (f *fakeExtractor) Degraded() bool { return f.degraded }

func (f *fakeExtractor) Extract(ctx context.Context, ref models.ContentRef) (models.Content, error) {
	f.calls.Add(1)
	if f.fn != nil {
		return f.fn(ctx, ref)
	}
	return models.Content{
		Text:     "Habits compound over time. Small daily actions shape who you become. Start with one tiny change today.",
		Metadata: models.ContentMetadata{Title: "Atomic Habits", SourceURL: ref.URL, Extractor: "fake"},
	}, nil
}

type fakeAnalyzer struct {
	fakeAdapter
	fn func(ctx context.Context) (models.Script, error)
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, content models.Content, s models.Settings) (models.Script, error) {
	f.calls.Add(1)
	if f.fn != nil {
		return f.fn(ctx)
	}
	return models.Script{
		Hook:       "Tiny habits win.",
		MainPoints: []string{"Compounding", "Identity", "Start small"},
		Narration:  "Tiny habits win. They compound. Start today.",
		Category:   models.CategorySelfDevelopment,
		Keywords:   []string{"habits"},
	}, nil
}

type fakeVoice struct {
	fakeAdapter
	err error
}

func (f *fakeVoice) Synthesize(ctx context.Context, text string, style models.VoiceStyle, outDir string) (models.AudioAsset, error) {
	f.calls.Add(1)
	if f.err != nil {
		return models.AudioAsset{}, f.err
	}
	path := filepath.Join(outDir, "voice.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		return models.AudioAsset{}, err
	}
	return models.AudioAsset{Path: path, Format: "wav", Duration: 42, SampleRate: 22050, VoiceStyle: style}, nil
}

// panickingVoice crashes inside the engine call.
type panickingVoice struct{}

func (panickingVoice) Name() string    { return "crashing-tts" }
func (panickingVoice) Available() bool { return true }

func (panickingVoice) Synthesize(ctx context.Context, text string, style models.VoiceStyle, outDir string) (models.AudioAsset, error) {
	panic("tts engine crashed")
}

type fakeMarketing struct {
	fakeAdapter
	fn func() (models.Marketing, error)
}

func (f *fakeMarketing) Write(ctx context.Context, script models.Script) (models.Marketing, error) {
	f.calls.Add(1)
	if f.fn != nil {
		return f.fn()
	}
	return models.Marketing{Caption: "Build habits", Hashtags: []string{"#habits"}, Hook: script.Hook}, nil
}

type fakeRenderer struct {
	fakeAdapter
	err error
}

func (f *fakeRenderer) Render(ctx context.Context, req render.Request) (models.VideoAsset, error) {
	f.calls.Add(1)
	if f.err != nil {
		return models.VideoAsset{}, f.err
	}
	path := filepath.Join(req.OutDir, render.OutputName)
	if err := os.WriteFile(path, []byte("mp4"), 0o644); err != nil {
		return models.VideoAsset{}, err
	}
	return models.VideoAsset{
		Path: path, Format: models.VideoFormat, Resolution: models.VideoResolution,
		Width: models.VideoWidth, Height: models.VideoHeight, FPS: models.VideoFPS,
		Duration: req.Audio.Duration, SizeBytes: 3,
	}, nil
}

type fakes struct {
	extractor *fakeExtractor
	analyzer  *fakeAnalyzer
	voice     *fakeVoice
	marketing *fakeMarketing
	renderer  *fakeRenderer
}

func newFakes() *fakes {
	return &fakes{
		extractor: &fakeExtractor{fakeAdapter: fakeAdapter{name: "fake-extractor"}},
		analyzer:  &fakeAnalyzer{fakeAdapter: fakeAdapter{name: "fake-analyzer"}},
		voice:     &fakeVoice{fakeAdapter: fakeAdapter{name: "fake-voice"}},
		marketing: &fakeMarketing{fakeAdapter: fakeAdapter{name: "fake-marketing"}},
		renderer:  &fakeRenderer{fakeAdapter: fakeAdapter{name: "fake-renderer"}},
	}
}

func (f *fakes) adapters() Adapters {
	return Adapters{
		Extractor: f.extractor,
		Analyzer:  f.analyzer,
		Voice:     f.voice,
		Marketing: f.marketing,
		Renderer:  f.renderer,
	}
}

// testClock is a settable clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	o     *Orchestrator
	store *storage.MemoryStore
	pool  *worker.Pool
	bus   *events.Bus
	clock *testClock
	out   string
}

type harnessOption func(*Config, *[]worker.Option)

func withStageTimeout(d time.Duration) harnessOption {
	return func(c *Config, _ *[]worker.Option) { c.StageTimeout = d }
}

func withPool(maxConcurrent, maxPending int) harnessOption {
	return func(_ *Config, p *[]worker.Option) {
		*p = append(*p, worker.WithMaxConcurrent(maxConcurrent), worker.WithMaxPending(maxPending))
	}
}

func newHarness(t *testing.T, adapters Adapters, opts ...harnessOption) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := Config{MaxVideoDuration: 300, StageTimeout: 5 * time.Second, OutputDir: t.TempDir()}
	poolOpts := []worker.Option{worker.WithLogger(logger)}
	for _, opt := range opts {
		opt(&cfg, &poolOpts)
	}

	h := &harness{
		store: storage.NewMemoryStore(),
		pool:  worker.NewPool(poolOpts...),
		bus:   events.NewBus(0),
		clock: &testClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		out:   cfg.OutputDir,
	}
	h.o = New(cfg, h.store, h.pool, h.bus, adapters, WithLogger(logger), WithClock(h.clock.Now))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.o.Close(ctx)
	})
	return h
}

func urlInput(duration int) models.JobInput {
	return models.JobInput{
		Source: models.URLRef("https://example.com"),
		Settings: models.Settings{
			Duration:   duration,
			VoiceStyle: models.VoiceProfessional,
			UseAI:      true,
		},
	}
}

func (h *harness) submit(t *testing.T, in models.JobInput) *models.Job {
	t.Helper()
	job, err := h.o.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	return job
}

// waitTerminal polls until the job finishes.
func (h *harness) waitTerminal(t *testing.T, id string) *models.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := h.o.Status(context.Background(), id)
		if err != nil {
			t.Fatalf("Status() error = %v", err)
		}
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return nil
}

// waitProgress polls until the job reports at least progress.
func (h *harness) waitProgress(t *testing.T, id string, progress int) *models.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, _ := h.o.Status(context.Background(), id)
		if job != nil && job.Progress >= progress {
			return job
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("job %s never reached progress %d", id, progress)
	return nil
}

// waitIdle polls until the pool has released every admission.
func (h *harness) waitIdle(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if running, waiting := h.pool.Stats(); running+waiting == 0 {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("pool never drained")
}
