package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Pipeline PipelineConfig
	LLM      LLMConfig
	TTS      TTSConfig
	Tools    ToolsConfig
	WebFetch WebFetchConfig
}

// ServerConfig holds HTTP-related configuration
type ServerConfig struct {
	Port      string
	UploadDir string
	MaxUpload int64
}

// StoreConfig selects and configures the job store
type StoreConfig struct {
	Driver     string // memory or sqlite
	SQLitePath string
}

// PipelineConfig holds orchestrator limits
type PipelineConfig struct {
	OutputDir        string
	MaxVideoDuration int
	MaxConcurrent    int
	MaxPending       int
	StageTimeout     time.Duration
	MaxContentLength int
	Retention        time.Duration
	CleanupInterval  time.Duration
	DefaultLanguage  string
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
}

// TTSConfig holds speech synthesis configuration
type TTSConfig struct {
	ModelDir   string
	NumThreads int
}

// ToolsConfig names the external binaries used for rendering and PDF text
type ToolsConfig struct {
	FFmpeg    string
	FFprobe   string
	PDFToText string
	FontFile  string
}

// WebFetchConfig controls the headless browser extractor
type WebFetchConfig struct {
	Enabled     bool
	Stealth     bool
	Proxy       string
	BrowserPath string
}

// Load reads .env (when present) and then the environment.
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv loads configuration from environment variables
func FromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      getEnv("PORT", "8080"),
			UploadDir: getEnv("UPLOAD_DIR", "data/uploads"),
			MaxUpload: int64(getEnvAsInt("MAX_UPLOAD_MB", 50)) << 20,
		},
		Store: StoreConfig{
			Driver:     strings.ToLower(getEnv("STORE_DRIVER", "memory")),
			SQLitePath: getEnv("SQLITE_PATH", "data/reelforge.db"),
		},
		Pipeline: PipelineConfig{
			OutputDir:        getEnv("OUTPUT_DIR", "data/outputs"),
			MaxVideoDuration: getEnvAsInt("MAX_VIDEO_DURATION", 300),
			MaxConcurrent:    getEnvAsInt("MAX_CONCURRENT_JOBS", 4),
			MaxPending:       getEnvAsInt("MAX_PENDING_JOBS", 64),
			StageTimeout:     getEnvAsDuration("STAGE_TIMEOUT", 2*time.Minute),
			MaxContentLength: getEnvAsInt("MAX_CONTENT_LENGTH", 50000),
			Retention:        getEnvAsDuration("JOB_RETENTION", 24*time.Hour),
			CleanupInterval:  getEnvAsDuration("CLEANUP_INTERVAL", 10*time.Minute),
			DefaultLanguage:  getEnv("DEFAULT_LANGUAGE", "en"),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.7),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		TTS: TTSConfig{
			ModelDir:   getEnv("TTS_MODEL_DIR", ""),
			NumThreads: getEnvAsInt("TTS_NUM_THREADS", 2),
		},
		Tools: ToolsConfig{
			FFmpeg:    getEnv("FFMPEG_PATH", "ffmpeg"),
			FFprobe:   getEnv("FFPROBE_PATH", "ffprobe"),
			PDFToText: getEnv("PDFTOTEXT_PATH", "pdftotext"),
			FontFile:  getEnv("FONT_FILE", ""),
		},
		WebFetch: WebFetchConfig{
			Enabled:     getEnvAsBool("WEBFETCH_ENABLED", true),
			Stealth:     getEnvAsBool("WEBFETCH_STEALTH", true),
			Proxy:       getEnv("WEBFETCH_PROXY", ""),
			BrowserPath: getEnv("WEBFETCH_BROWSER_PATH", ""),
		},
	}
}

// Validate rejects values the orchestrator cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if c.Pipeline.MaxVideoDuration <= 0 {
		problems = append(problems, "MAX_VIDEO_DURATION must be positive")
	}
	if c.Pipeline.MaxConcurrent <= 0 {
		problems = append(problems, "MAX_CONCURRENT_JOBS must be positive")
	}
	if c.Pipeline.MaxPending < 0 {
		problems = append(problems, "MAX_PENDING_JOBS must not be negative")
	}
	if c.Pipeline.StageTimeout <= 0 {
		problems = append(problems, "STAGE_TIMEOUT must be positive")
	}
	if c.Pipeline.Retention > 0 && c.Pipeline.CleanupInterval <= 0 {
		problems = append(problems, "CLEANUP_INTERVAL must be positive when JOB_RETENTION is set")
	}
	if c.Pipeline.OutputDir == "" {
		problems = append(problems, "OUTPUT_DIR is required")
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.SQLitePath == "" {
			problems = append(problems, "SQLITE_PATH is required for the sqlite store")
		}
	default:
		problems = append(problems, fmt.Sprintf("STORE_DRIVER %q is not supported", c.Store.Driver))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
