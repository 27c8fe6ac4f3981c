// Copyright Ming Liu, 2025. All rights reserved.

// Package fetch provides the rate-limited, retrying page fetcher shared by
// every stage that touches the proceedings site. All page fetches in a run
// go through one Client so the politeness delay is enforced globally.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/iuming/jacow-papers-crawler/internal/httputil"
	"github.com/iuming/jacow-papers-crawler/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "jacow-papers-crawler/1.0"
)

// Client fetches and parses conference pages. The discovery path is
// sequential, so the visited set is single-writer and needs no lock.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	maxRetries int
	visited    map[string]bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLimiter replaces the politeness limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// New creates a Client from the crawl configuration. A zero RequestDelay
// disables rate limiting (used by tests against httptest servers).
func New(cfg types.CrawlConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RequestDelay), 1)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		userAgent:  ua,
		maxRetries: cfg.MaxRetries,
		visited:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Document fetches url and parses it into a goquery document. Transient
// failures are retried with exponential backoff; a non-OK final status is
// an error the caller treats as "page unavailable".
func (c *Client) Document(ctx context.Context, url string) (*goquery.Document, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}
	return doc, nil
}

// ProbePDF reports whether an artifact URL serves a real PDF: HEAD request,
// HTTP 200, and a pdf content type. Any transport failure means
// unavailable, never an error.
func (c *Client) ProbePDF(ctx context.Context, url string) bool {
	if err := c.limiter.Wait(ctx); err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK &&
		strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "pdf")
}

// MarkVisited records url in the de-duplication set and reports whether it
// was newly added.
func (c *Client) MarkVisited(url string) bool {
	if c.visited[url] {
		return false
	}
	c.visited[url] = true
	return true
}
