package webfetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/naozine/nz-html-fetch/pkg/htmlfetch"
)

// Client はWebページ取得クライアント
// ブラウザは最初の Fetch で起動し、Close まで使い回す
type Client struct {
	opts *Options

	mu      sync.Mutex
	fetcher *htmlfetch.Fetcher
}

// Options はクライアント作成オプション
type Options struct {
	Stealth     bool   // ボット検出回避
	Proxy       string // プロキシアドレス
	BrowserPath string // ブラウザパス
}

// FetchOptions はフェッチ実行オプション
type FetchOptions struct {
	BlockAds    bool          // 広告ブロック
	BlockImages bool          // 画像ブロック
	WaitTime    time.Duration // 待機時間
	Selector    string        // 待機セレクタ
}

// DefaultFetchOptions は記事本文の取得向け設定
func DefaultFetchOptions() *FetchOptions {
	return &FetchOptions{BlockAds: true, BlockImages: true}
}

// NewClient は新しいクライアントを作成（ブラウザはまだ起動しない）
func NewClient(opts *Options) *Client {
	if opts == nil {
		opts = &Options{Stealth: true}
	}
	return &Client{opts: opts}
}

func (c *Client) start() (*htmlfetch.Fetcher, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fetcher != nil {
		return c.fetcher, nil
	}

	var fetcherOpts []htmlfetch.Option
	if c.opts.BrowserPath != "" {
		fetcherOpts = append(fetcherOpts, htmlfetch.WithBrowserPath(c.opts.BrowserPath))
	}
	if c.opts.Proxy != "" {
		fetcherOpts = append(fetcherOpts, htmlfetch.WithProxy(c.opts.Proxy))
	}
	fetcherOpts = append(fetcherOpts, htmlfetch.WithStealth(c.opts.Stealth))

	fetcher := htmlfetch.New(fetcherOpts...)
	if err := fetcher.Start(); err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	c.fetcher = fetcher
	return fetcher, nil
}

// Close はブラウザを終了
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fetcher == nil {
		return nil
	}
	err := c.fetcher.Close()
	c.fetcher = nil
	return err
}

// FetchMarkdown はURLからMarkdownを取得
func (c *Client) FetchMarkdown(ctx context.Context, url string, opts *FetchOptions) (*Page, error) {
	fetcher, err := c.start()
	if err != nil {
		return nil, err
	}

	fetchOpts := buildFetchOptions(opts)
	fetchOpts = append(fetchOpts, htmlfetch.WithMarkdown())

	result, err := fetcher.Fetch(ctx, url, fetchOpts...)
	if err != nil {
		return nil, err
	}

	return &Page{
		URL:      result.FinalURL,
		Title:    titleFromMarkdown(result.Markdown),
		Markdown: result.Markdown,
		Duration: result.Duration,
	}, nil
}

// buildFetchOptions はFetchOptionsからhtmlfetch.FetchOptionを構築
func buildFetchOptions(opts *FetchOptions) []htmlfetch.FetchOption {
	var fetchOpts []htmlfetch.FetchOption

	if opts == nil {
		return fetchOpts
	}

	if opts.BlockAds || opts.BlockImages {
		blocking := htmlfetch.BlockingOptions{
			Ads:   opts.BlockAds,
			Image: opts.BlockImages,
		}
		fetchOpts = append(fetchOpts, htmlfetch.WithBlocking(blocking))
	}

	if opts.Selector != "" {
		timeout := 30 * time.Second
		if opts.WaitTime > 0 {
			timeout = opts.WaitTime
		}
		fetchOpts = append(fetchOpts, htmlfetch.WithSelector(opts.Selector, timeout))
	}

	return fetchOpts
}
