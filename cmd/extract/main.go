package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"reelforge/internal/extract"
	"reelforge/internal/models"
	"reelforge/internal/runner"
	"reelforge/internal/webfetch"
	"reelforge/internal/youtube"
)

func main() {
	var (
		url        = flag.String("url", "", "Source URL (web page or YouTube video)")
		file       = flag.String("file", "", "Source document (.txt, .md, .pdf)")
		format     = flag.String("format", "text", "Output format: text, json")
		outputFile = flag.String("o", "", "Output file (default: stdout)")
		stealth    = flag.Bool("stealth", true, "Enable stealth mode for web pages")
		lang       = flag.String("lang", "en", "Preferred caption language for YouTube")
		pdftotext  = flag.String("pdftotext", "pdftotext", "pdftotext binary")
		maxLen     = flag.Int("max", extract.DefaultMaxLength, "Maximum characters kept")
		timeout    = flag.Int("timeout", 60, "Timeout in seconds")
		verbose    = flag.Bool("v", false, "Verbose output")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Runs the extraction stage on one source and prints the result.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -url https://example.com\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -url https://youtu.be/dQw4w9WgXcQ -format json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -file book.pdf -o book.txt\n", os.Args[0])
	}
	flag.Parse()

	if (*url == "") == (*file == "") {
		fmt.Fprintf(os.Stderr, "Error: exactly one of -url or -file is required\n\n")
		flag.Usage()
		os.Exit(1)
	}
	if *format != "text" && *format != "json" {
		fmt.Fprintf(os.Stderr, "Error: Invalid format '%s'. Must be: text or json\n", *format)
		os.Exit(1)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	web := webfetch.NewClient(&webfetch.Options{Stealth: *stealth})
	defer web.Close()

	router := extract.NewRouter(
		extract.WithLogger(logger),
		extract.WithMaxLength(*maxLen),
		extract.WithWeb(web),
		extract.WithYouTube(youtube.NewClient(), *lang),
		extract.WithPDF(extract.NewPDF(*pdftotext, runner.New(logger), nil)),
	)
	if *verbose {
		fmt.Fprintf(os.Stderr, "Extractors: %s\n", router.Detail())
	}

	ref := models.URLRef(*url)
	if *file != "" {
		ref = models.FileRef(*file, "")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(*timeout)*time.Second)
	defer cancel()

	start := time.Now()
	content, err := router.Extract(ctx, ref)
	if err != nil && !content.Metadata.Partial {
		fmt.Fprintf(os.Stderr, "Error: Failed to extract: %v\n", err)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: partial result: %v\n", err)
	}
	if *verbose {
		fmt.Fprintf(os.Stderr, "Extracted %d words in %.2f seconds via %s\n",
			content.Metadata.WordCount, time.Since(start).Seconds(), content.Metadata.Extractor)
	}

	var output string
	switch *format {
	case "json":
		data, err := json.MarshalIndent(struct {
			Text     string                 `json:"text"`
			Metadata models.ContentMetadata `json:"metadata"`
		}{content.Text, content.Metadata}, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to format JSON: %v\n", err)
			os.Exit(1)
		}
		output = string(data)
	default:
		if content.Metadata.Title != "" {
			output = "# " + content.Metadata.Title + "\n\n"
		}
		output += content.Text
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(output), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to write output file: %v\n", err)
			os.Exit(1)
		}
		if *verbose {
			fmt.Fprintf(os.Stderr, "Output written to: %s\n", *outputFile)
		}
	} else {
		fmt.Println(output)
	}
}
