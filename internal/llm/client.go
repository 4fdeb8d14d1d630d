package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelforge/internal/apperr"
)

// ErrNoChoices is returned when the completion response is empty.
var ErrNoChoices = errors.New("no choices in completion response")

// Config for the chat completions client.
type Config struct {
	APIKey      string
	BaseURL     string // default https://api.openai.com/v1
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Client talks to an OpenAI-compatible chat/completions endpoint.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}
}

// Available reports whether credentials are configured.
func (c *Client) Available() bool {
	return c != nil && strings.TrimSpace(c.cfg.APIKey) != ""
}

func (c *Client) Model() string { return c.cfg.Model }

// completeJSON sends one JSON-mode completion and returns the schema-valid content.
func (c *Client) completeJSON(ctx context.Context, op, system, user string, schema map[string]any, temperature float32) ([]byte, error) {
	if !c.Available() {
		return nil, apperr.Unavailable("openai", "OPENAI_API_KEY is not set")
	}

	rid := uuid.New().String()
	start := time.Now()
	c.log.Info("llm."+op+".start", "req_id", rid, "model", c.cfg.Model, "prompt_len", len(user))

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": system},
			{"role": "user", "content": user + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.log.Error("llm."+op+".http_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm."+op+".decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return nil, fmt.Errorf("decode completion response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm."+op+".no_choices", "req_id", rid)
		return nil, ErrNoChoices
	}

	content := []byte(stripFences(cc.Choices[0].Message.Content))
	if err := ValidateJSONAgainstSchema(schema, content); err != nil {
		c.log.Error("llm."+op+".schema_validation_failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	c.log.Info("llm."+op+".ok", "req_id", rid, "bytes", len(content),
		"elapsed_ms", time.Since(start).Milliseconds())
	return content, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.log.Warn("llm.http.response_body_close_error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, truncate(string(raw), 300))
	}
	return raw, nil
}

// stripFences removes a ```json wrapper some models add despite JSON mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
