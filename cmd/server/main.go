package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"reelforge/internal/config"
	"reelforge/internal/diagnostics"
	"reelforge/internal/events"
	"reelforge/internal/export"
	"reelforge/internal/handlers"
	"reelforge/internal/pipeline"
	"reelforge/internal/storage"
	"reelforge/internal/version"
	"reelforge/internal/worker"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// .envファイルを読み込み（存在しない場合はスキップ）
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("config.invalid", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server.exit", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	store, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	adapters, closeAdapters := buildAdapters(cfg, logger)
	defer closeAdapters()

	pool := worker.NewPool(
		worker.WithMaxConcurrent(cfg.Pipeline.MaxConcurrent),
		worker.WithMaxPending(cfg.Pipeline.MaxPending),
		worker.WithLogger(logger),
	)
	orch := pipeline.New(pipeline.Config{
		MaxVideoDuration: cfg.Pipeline.MaxVideoDuration,
		StageTimeout:     cfg.Pipeline.StageTimeout,
		OutputDir:        cfg.Pipeline.OutputDir,
		DefaultLanguage:  cfg.Pipeline.DefaultLanguage,
	}, store, pool, events.NewBus(0), adapters, pipeline.WithLogger(logger))

	if _, err := orch.Recover(context.Background()); err != nil {
		return fmt.Errorf("recover jobs: %w", err)
	}

	for _, a := range orch.Capabilities() {
		logger.Info("adapter.status", "stage", a.Stage, "name", a.Name, "mode", a.Mode, "detail", a.Detail)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var janitor *worker.Janitor
	if cfg.Pipeline.Retention > 0 {
		retention := cfg.Pipeline.Retention
		janitor = worker.NewJanitor(cfg.Pipeline.CleanupInterval, func(ctx context.Context) (int, error) {
			return orch.Cleanup(ctx, retention)
		}, logger)
		janitor.Start(ctx)
	}

	checker := diagnostics.NewChecker()
	diagSettings := diagnosticSettings(cfg)
	diagnose := func() diagnostics.Report { return checker.Run(diagSettings) }
	if report := diagnose(); report.HasFailures {
		for _, item := range report.Items {
			if item.Status == diagnostics.StatusFail {
				logger.Error("diagnostics.fail", "id", item.ID, "message", item.Message, "hint", item.Hint)
			}
		}
	}

	// Echoインスタンスの作成
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", (cfg.Server.MaxUpload>>20)+1)))

	jobHandler := handlers.NewJobHandler(orch, export.NewService(store, logger), cfg.Server.UploadDir, cfg.Server.MaxUpload)
	handlers.Register(e, jobHandler, handlers.NewHealthHandler(orch, diagnose))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.start", "version", version.Version, "port", cfg.Server.Port, "store", cfg.Store.Driver)
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("server.shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server.shutdown.http", "error", err)
	}
	if janitor != nil {
		janitor.Stop()
	}
	if err := orch.Close(shutdownCtx); err != nil {
		logger.Warn("server.shutdown.jobs", "error", err)
	}
	return nil
}

func openStore(cfg config.StoreConfig) (storage.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := storage.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return storage.NewJobRepository(db), nil
	default:
		return storage.NewMemoryStore(), nil
	}
}

func diagnosticSettings(cfg *config.Config) diagnostics.Settings {
	return diagnostics.Settings{
		Tools: []diagnostics.Tool{
			{Name: "ffmpeg", Bin: cfg.Tools.FFmpeg, Hint: "install ffmpeg or set FFMPEG_PATH; videos are simulated without it"},
			{Name: "ffprobe", Bin: cfg.Tools.FFprobe, Hint: "install ffmpeg or set FFPROBE_PATH; durations fall back to audio length"},
			{Name: "pdftotext", Bin: cfg.Tools.PDFToText, Hint: "install poppler-utils or set PDFTOTEXT_PATH; PDF uploads use placeholder text"},
		},
		OutputDir:  cfg.Pipeline.OutputDir,
		UploadDir:  cfg.Server.UploadDir,
		TTSModel:   cfg.TTS.ModelDir,
		LLMEnabled: cfg.LLM.APIKey != "",
	}
}
