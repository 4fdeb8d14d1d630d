package diagnostics

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Status of one check.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Item is the outcome of a single check.
type Item struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// Report aggregates all checks.
type Report struct {
	GeneratedAt time.Time `json:"generatedAt"`
	HasFailures bool      `json:"hasFailures"`
	Items       []Item    `json:"items"`
}

// Tool is an optional external binary. Missing tools only degrade output.
type Tool struct {
	Name string // display name
	Bin  string // binary or path
	Hint string
}

// Settings lists what Run inspects.
type Settings struct {
	Tools      []Tool
	OutputDir  string
	UploadDir  string
	TTSModel   string
	LLMEnabled bool
}

// Checker validates external tools and required filesystem paths.
type Checker struct {
	lookPath   func(string) (string, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// NewCheckerForTests creates a checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{lookPath: lookPath, mkdirAll: mkdirAll, createTemp: createTemp, remove: remove}
}

// Run executes all checks. Only unwritable directories count as failures.
func (c *Checker) Run(s Settings) Report {
	var items []Item
	for _, t := range s.Tools {
		items = append(items, c.checkTool(t))
	}
	items = append(items,
		c.checkWritableDir("output_dir", "Output directory", s.OutputDir),
		c.checkWritableDir("upload_dir", "Upload directory", s.UploadDir),
		checkConfigured("tts_model", "Speech model", s.TTSModel,
			"Set TTS_MODEL_DIR to a sherpa-onnx VITS model to get real narration."),
	)
	llm := ""
	if s.LLMEnabled {
		llm = "configured"
	}
	items = append(items, checkConfigured("llm", "Language model", llm,
		"Set OPENAI_API_KEY to generate scripts and captions with a language model."))

	hasFailures := false
	for _, item := range items {
		if item.Status == StatusFail {
			hasFailures = true
			break
		}
	}
	return Report{GeneratedAt: time.Now().UTC(), HasFailures: hasFailures, Items: items}
}

func (c *Checker) checkTool(t Tool) Item {
	item := Item{ID: "tool_" + t.Name, Name: t.Name}
	path, err := c.lookPath(t.Bin)
	if err != nil {
		item.Status = StatusWarn
		item.Message = fmt.Sprintf("Tool not found in PATH: %s", t.Bin)
		item.Hint = t.Hint
		return item
	}
	item.Status = StatusPass
	item.Message = fmt.Sprintf("Found at %s", path)
	return item
}

func (c *Checker) checkWritableDir(id, name, dir string) Item {
	item := Item{ID: id, Name: name}
	if strings.TrimSpace(dir) == "" {
		item.Status = StatusFail
		item.Message = name + " is empty."
		return item
	}
	if err := c.mkdirAll(dir, 0o755); err != nil {
		item.Status = StatusFail
		item.Message = fmt.Sprintf("Cannot create directory: %s", dir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}
	f, err := c.createTemp(dir, ".write-check-*")
	if err != nil {
		item.Status = StatusFail
		item.Message = fmt.Sprintf("Directory is not writable: %s", dir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}
	tmp := f.Name()
	_ = f.Close()
	_ = c.remove(tmp)

	item.Status = StatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", dir)
	return item
}

func checkConfigured(id, name, value, hint string) Item {
	if strings.TrimSpace(value) == "" {
		return Item{ID: id, Name: name, Status: StatusWarn, Message: "Not configured; fallback output will be used.", Hint: hint}
	}
	return Item{ID: id, Name: name, Status: StatusPass, Message: value}
}
