package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	nurl "net/url"
	"os"
	"regexp"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"docqa/internal/domain"
	"docqa/internal/logger"
)

// DefaultUserAgent mimics a browser to avoid trivial bot blocking.
const DefaultUserAgent = "Mozilla/5.0"

// Fetcher acquires a document over HTTP with capped exponential retry and
// extracts readable article text from HTML responses. Fetching either yields
// text or fails permanently once retries are exhausted.
type Fetcher struct {
	client     *http.Client
	userAgent  string
	maxRetries int
}

// Config configures the document fetcher.
type Config struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
}

func NewFetcher(cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Fetcher{
		client:     &http.Client{Timeout: cfg.Timeout},
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
	}
}

// Fetch downloads the source and returns its cleaned text content.
func (f *Fetcher) Fetch(ctx context.Context, source string) (domain.Document, error) {
	body, contentType, err := f.download(ctx, source)
	if err != nil {
		return domain.Document{}, err
	}
	text := string(body)
	if isHTML(contentType, text) {
		text, err = extractArticleText(text, source)
		if err != nil {
			return domain.Document{}, fmt.Errorf("extracting text from %s: %w", source, err)
		}
	}
	text = collapseWhitespace(text)
	if text == "" {
		return domain.Document{}, fmt.Errorf("%s: %w", source, domain.ErrNoContent)
	}
	logger.Debug("fetch: extracted %d words from %s", len(strings.Fields(text)), source)
	return domain.Document{Source: source, Content: text}, nil
}

func (f *Fetcher) download(ctx context.Context, source string) ([]byte, string, error) {
	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, retryDelay(attempt-1)); err != nil {
				return nil, "", err
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, "", fmt.Errorf("fetching %s: %w", source, err)
		}
		req.Header.Set("User-Agent", f.userAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("status %s", resp.Status)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, "", fmt.Errorf("fetching %s: unexpected status %s", source, resp.Status)
		}
		body, err := io.ReadAll(resp.Body)
		contentType := resp.Header.Get("Content-Type")
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return body, contentType, nil
	}
	return nil, "", fmt.Errorf("fetching %s: retries exhausted: %w", source, lastErr)
}

// CachedFetch returns the cached text when the cache file exists, otherwise
// fetches and writes the cache for the next run.
func (f *Fetcher) CachedFetch(ctx context.Context, source, cachePath string) (domain.Document, error) {
	if cachePath != "" {
		if data, err := os.ReadFile(cachePath); err == nil {
			logger.Debug("fetch: using cached content from %s", cachePath)
			return domain.Document{Source: source, Content: string(data)}, nil
		}
	}
	doc, err := f.Fetch(ctx, source)
	if err != nil {
		return domain.Document{}, err
	}
	if cachePath != "" {
		if err := os.WriteFile(cachePath, []byte(doc.Content), 0o644); err != nil {
			logger.Warn("fetch: could not write cache %s: %v", cachePath, err)
		}
	}
	return doc, nil
}

// LoadFile reads a local document, for runs that skip network ingestion.
func LoadFile(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, err
	}
	text := collapseWhitespace(string(data))
	if text == "" {
		return domain.Document{}, fmt.Errorf("%s: %w", path, domain.ErrNoContent)
	}
	return domain.Document{Source: path, Content: text}, nil
}

func extractArticleText(html, source string) (string, error) {
	u, err := nurl.Parse(source)
	if err != nil {
		u = &nurl.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(html), u)
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}

func isHTML(contentType, body string) bool {
	if strings.Contains(contentType, "text/html") {
		return true
	}
	head := strings.ToLower(body)
	if len(head) > 256 {
		head = head[:256]
	}
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func retryDelay(attempt int) time.Duration {
	base := 500 * time.Millisecond
	d := base << attempt
	if d > 8*time.Second {
		d = 8 * time.Second
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
