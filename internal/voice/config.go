package voice

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ModelConfig locates a VITS text-to-speech model on disk.
type ModelConfig struct {
	Dir        string
	ModelPath  string // *.onnx
	TokensPath string // tokens.txt
	Lexicon    string // lexicon.txt, optional
	DataDir    string // espeak-ng-data, optional
	NumThreads int
}

// NewModelConfig detects the model files in dir.
// Piper style exports are named after the voice, so any .onnx file is accepted
// when the conventional names are absent.
func NewModelConfig(dir string, numThreads int) (*ModelConfig, error) {
	if dir == "" {
		return nil, fmt.Errorf("no model directory configured")
	}
	if numThreads <= 0 {
		numThreads = 2
	}
	cfg := &ModelConfig{Dir: dir, NumThreads: numThreads}

	cfg.ModelPath = findModelFile(dir, []string{"model.int8.onnx", "model.onnx"})
	if cfg.ModelPath == "" {
		matches, _ := filepath.Glob(filepath.Join(dir, "*.onnx"))
		sort.Strings(matches)
		if len(matches) > 0 {
			cfg.ModelPath = matches[0]
		}
	}
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("onnx model not found in %s", dir)
	}

	cfg.TokensPath = findModelFile(dir, []string{"tokens.txt"})
	if cfg.TokensPath == "" {
		return nil, fmt.Errorf("tokens.txt not found in %s", dir)
	}

	cfg.Lexicon = findModelFile(dir, []string{"lexicon.txt"})
	if st, err := os.Stat(filepath.Join(dir, "espeak-ng-data")); err == nil && st.IsDir() {
		cfg.DataDir = filepath.Join(dir, "espeak-ng-data")
	}
	return cfg, nil
}

// Validate checks that the required files still exist.
func (c *ModelConfig) Validate() error {
	for name, path := range map[string]string{"model": c.ModelPath, "tokens": c.TokensPath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("%s file not found: %s", name, path)
		}
	}
	return nil
}

// findModelFile returns the first candidate present in dir, or "".
func findModelFile(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
