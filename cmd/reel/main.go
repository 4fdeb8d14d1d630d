package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"reelforge/internal/models"
)

func main() {
	var (
		server   = flag.String("server", "http://localhost:8080", "reelforge server base URL")
		url      = flag.String("url", "", "Source URL")
		file     = flag.String("file", "", "Source document (.txt, .md, .pdf)")
		duration = flag.Int("duration", 60, "Video length in seconds")
		voice    = flag.String("voice", "professional", "Voice style")
		useAI    = flag.Bool("ai", true, "Use AI stages (analysis, voice, marketing)")
		language = flag.String("lang", "", "Content language (default: server setting)")
		output   = flag.String("o", "", "Download the video to this path when finished")
		interval = flag.Duration("interval", 2*time.Second, "Poll interval")
		timeout  = flag.Duration("timeout", 15*time.Minute, "Give up after this long")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -url https://example.com/post -duration 45\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -file book.pdf -voice friendly -o out.mp4\n", os.Args[0])
	}
	flag.Parse()

	if (*url == "") == (*file == "") {
		fmt.Fprintf(os.Stderr, "Error: exactly one of -url or -file is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	c := &client{base: strings.TrimRight(*server, "/"), http: &http.Client{Timeout: 60 * time.Second}}
	fields := map[string]string{
		"url":        *url,
		"duration":   strconv.Itoa(*duration),
		"voiceStyle": *voice,
		"useAI":      strconv.FormatBool(*useAI),
		"language":   *language,
	}

	id, err := c.submit(ctx, fields, *file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Submitted job %s\n", id)

	job, err := c.wait(ctx, id, *interval)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(job)

	if job.Status == models.JobStatusFailed {
		os.Exit(2)
	}
	if *output != "" {
		if err := c.download(ctx, id, *output); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Saved %s\n", *output)
	}
}

type client struct {
	base string
	http *http.Client
}

type apiError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func (c *client) submit(ctx context.Context, fields map[string]string, path string) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if v != "" {
			_ = w.WriteField(k, v)
		}
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		part, err := w.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(part, f); err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/jobs", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out struct {
		JobID string `json:"jobId"`
	}
	if err := c.do(req, http.StatusAccepted, &out); err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}
	return out.JobID, nil
}

// wait polls the job until it reaches a terminal state.
func (c *client) wait(ctx context.Context, id string, interval time.Duration) (*models.Job, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastProgress := -1
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/jobs/"+id, nil)
		if err != nil {
			return nil, err
		}
		var job models.Job
		if err := c.do(req, http.StatusOK, &job); err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
		if job.Progress != lastProgress {
			lastProgress = job.Progress
			fmt.Fprintf(os.Stderr, "  %3d%% %s %s\n", job.Progress, job.Status, job.CurrentStage)
		}
		if job.Status.Terminal() {
			return &job, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *client) download(ctx context.Context, id, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/jobs/"+id+"/download", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return fmt.Errorf("download: %w", err)
	}
	return f.Close()
}

func (c *client) do(req *http.Request, want int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var e apiError
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &e); err != nil || e.Error == "" {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	msg := fmt.Sprintf("server returned %s: %s", resp.Status, e.Error)
	for field, reason := range e.Fields {
		msg += fmt.Sprintf("\n  %s: %s", field, reason)
	}
	return errors.New(msg)
}
