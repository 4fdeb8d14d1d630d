package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"reelforge/internal/apperr"
	"reelforge/internal/models"
	"reelforge/internal/runner"
)

// OutputName is the rendered file inside the job output directory.
const OutputName = "video.mp4"

const (
	lineWidth = 26
	maxLines  = 14
	fontSize  = 64
)

// Request carries everything one render needs.
type Request struct {
	Script   models.Script
	Audio    models.AudioAsset
	Duration int    // target seconds, used when Audio has no file
	WorkDir  string // scratch space, removed by the caller
	OutDir   string
}

// Options names the binaries and an optional font for drawtext.
type Options struct {
	FFmpeg   string
	FFprobe  string
	FontFile string
	// LookPath resolves binaries; nil means exec.LookPath.
	LookPath func(string) (string, error)
}

// Renderer composes a vertical video with ffmpeg.
type Renderer struct {
	opts   Options
	run    runner.Runner
	usable bool
	reason string
	log    *slog.Logger
}

func NewRenderer(opts Options, run runner.Runner, logger *slog.Logger) *Renderer {
	if opts.FFmpeg == "" {
		opts.FFmpeg = "ffmpeg"
	}
	if opts.FFprobe == "" {
		opts.FFprobe = "ffprobe"
	}
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{opts: opts, run: run, log: logger, usable: true}
	if _, err := opts.LookPath(opts.FFmpeg); err != nil {
		r.usable = false
		r.reason = fmt.Sprintf("%s not found in PATH", opts.FFmpeg)
	}
	return r
}

func (r *Renderer) Name() string { return "ffmpeg" }

func (r *Renderer) Available() bool { return r.usable }

func (r *Renderer) Detail() string { return r.reason }

// Render writes OutDir/video.mp4 and probes the result.
func (r *Renderer) Render(ctx context.Context, req Request) (models.VideoAsset, error) {
	if !r.usable {
		return models.VideoAsset{}, apperr.Unavailable(r.Name(), r.reason)
	}
	theme := ThemeFor(req.Script.Category)

	textPath := filepath.Join(req.WorkDir, "overlay.txt")
	if err := os.WriteFile(textPath, []byte(OverlayText(req.Script)), 0o644); err != nil {
		return models.VideoAsset{}, fmt.Errorf("write overlay text: %w", err)
	}

	out := filepath.Join(req.OutDir, OutputName)
	args := r.buildArgs(req, theme, textPath, out)

	start := time.Now()
	_, stderr, err := r.run.Run(ctx, r.opts.FFmpeg, args...)
	if err != nil {
		return models.VideoAsset{}, fmt.Errorf("ffmpeg: %w: %s", err, runner.Truncate(lastLines(string(stderr), 5), 800))
	}

	st, err := os.Stat(out)
	if err != nil {
		return models.VideoAsset{}, fmt.Errorf("ffmpeg produced no output: %w", err)
	}

	duration := r.probeDuration(ctx, out)
	if duration <= 0 {
		duration = req.Audio.Duration
	}

	r.log.Info("render.ok", "theme", theme.Name, "bytes", st.Size(), "duration_sec", duration,
		"elapsed_ms", time.Since(start).Milliseconds())

	return models.VideoAsset{
		Path:       out,
		Format:     models.VideoFormat,
		Resolution: models.VideoResolution,
		Width:      models.VideoWidth,
		Height:     models.VideoHeight,
		FPS:        models.VideoFPS,
		Duration:   duration,
		SizeBytes:  st.Size(),
		Theme:      theme.Name,
	}, nil
}

func (r *Renderer) buildArgs(req Request, theme Theme, textPath, out string) []string {
	size := fmt.Sprintf("%dx%d", models.VideoWidth, models.VideoHeight)
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", fmt.Sprintf("color=c=%s:s=%s:r=%d", theme.Background, size, models.VideoFPS),
	}
	if req.Audio.Path != "" {
		args = append(args, "-i", req.Audio.Path)
	} else {
		args = append(args, "-f", "lavfi", "-i", "anullsrc=r=44100:cl=mono", "-t", strconv.Itoa(max(req.Duration, 1)))
	}

	draw := []string{
		"textfile=" + escapeFilterValue(textPath),
		"fontcolor=" + theme.Foreground,
		"fontsize=" + strconv.Itoa(fontSize),
		"line_spacing=18",
		"box=1", "boxcolor=black@0.35", "boxborderw=36",
		"x=(w-text_w)/2", "y=(h-text_h)/2",
	}
	if r.opts.FontFile != "" {
		draw = append(draw, "fontfile="+escapeFilterValue(r.opts.FontFile))
	}
	bar := fmt.Sprintf("drawbox=x=0:y=ih-24:w=iw:h=24:color=%s:t=fill", theme.Accent)

	args = append(args,
		"-vf", "drawtext="+strings.Join(draw, ":")+","+bar,
		"-c:v", "libx264", "-preset", "veryfast", "-pix_fmt", "yuv420p",
		"-c:a", "aac", "-b:a", "128k",
		"-shortest", "-movflags", "+faststart",
		out,
	)
	return args
}

func (r *Renderer) probeDuration(ctx context.Context, path string) float64 {
	stdout, _, err := r.run.Run(ctx, r.opts.FFprobe,
		"-v", "error", "-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1", path)
	if err != nil {
		r.log.Warn("render.probe_failed", "error", err)
		return 0
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(string(stdout)), 64)
	if err != nil {
		return 0
	}
	return d
}

// OverlayText is the on-screen copy: the hook followed by the main points,
// wrapped for a portrait frame.
func OverlayText(s models.Script) string {
	var lines []string
	hook := s.Hook
	if hook == "" {
		hook = firstSentence(s.Narration)
	}
	lines = append(lines, wrap(hook, lineWidth)...)
	for _, p := range s.MainPoints {
		lines = append(lines, "")
		lines = append(lines, wrap("• "+p, lineWidth)...)
		if len(lines) >= maxLines {
			break
		}
	}
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return strings.Join(lines, "\n")
}

func wrap(text string, width int) []string {
	var lines []string
	var cur strings.Builder
	for _, w := range strings.Fields(text) {
		if cur.Len() > 0 && len([]rune(cur.String()))+1+len([]rune(w)) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

func firstSentence(s string) string {
	if i := strings.IndexAny(s, ".!?"); i >= 0 {
		return s[:i+1]
	}
	return s
}

// escapeFilterValue quotes characters special to the ffmpeg filter graph.
func escapeFilterValue(v string) string {
	return strings.NewReplacer(`\`, `\\`, ":", `\:`, "'", `\'`, ",", `\,`).Replace(v)
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
