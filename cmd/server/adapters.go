package main

import (
	"log/slog"

	"reelforge/internal/config"
	"reelforge/internal/extract"
	"reelforge/internal/llm"
	"reelforge/internal/pipeline"
	"reelforge/internal/render"
	"reelforge/internal/runner"
	"reelforge/internal/voice"
	"reelforge/internal/webfetch"
	"reelforge/internal/youtube"
)

// buildAdapters wires the live collaborators. Adapters whose backend is not
// configured report themselves unavailable and their stages fall back.
func buildAdapters(cfg *config.Config, logger *slog.Logger) (pipeline.Adapters, func()) {
	run := runner.New(logger)
	var closers []func() error

	extractOpts := []extract.Option{
		extract.WithLogger(logger),
		extract.WithMaxLength(cfg.Pipeline.MaxContentLength),
		extract.WithPDF(extract.NewPDF(cfg.Tools.PDFToText, run, nil)),
		extract.WithYouTube(youtube.NewClient(), cfg.Pipeline.DefaultLanguage),
	}
	if cfg.WebFetch.Enabled {
		web := webfetch.NewClient(&webfetch.Options{
			Stealth:     cfg.WebFetch.Stealth,
			Proxy:       cfg.WebFetch.Proxy,
			BrowserPath: cfg.WebFetch.BrowserPath,
		})
		closers = append(closers, web.Close)
		extractOpts = append(extractOpts, extract.WithWeb(web))
	}

	llmClient := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	tts := voice.NewSynthesizer(cfg.TTS.ModelDir, cfg.TTS.NumThreads, logger)
	closers = append(closers, tts.Close)

	adapters := pipeline.Adapters{
		Extractor: extract.NewRouter(extractOpts...),
		Analyzer:  llm.NewAnalyzer(llmClient),
		Voice:     tts,
		Marketing: llm.NewCopywriter(llmClient),
		Renderer: render.NewRenderer(render.Options{
			FFmpeg:   cfg.Tools.FFmpeg,
			FFprobe:  cfg.Tools.FFprobe,
			FontFile: cfg.Tools.FontFile,
		}, run, logger),
	}

	return adapters, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("adapter.close_failed", "error", err)
			}
		}
	}
}
