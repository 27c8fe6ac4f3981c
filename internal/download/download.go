// Copyright Ming Liu, 2025. All rights reserved.

// Package download transfers paper artifacts to disk through a bounded
// worker pool. Files land under <output>/<conference>/ with names built
// from the paper id and title, oversized and undersized bodies are
// rejected, and existing files are never re-downloaded so interrupted runs
// resume cheaply.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/iuming/jacow-papers-crawler/internal/httputil"
	"github.com/iuming/jacow-papers-crawler/pkg/types"
)

const (
	defaultConcurrency = 3
	defaultMinSize     = 1024
	maxFilenameLen     = 150
)

// Item is one artifact transfer: a source URL and its target path. PaperID
// and Kind identify the artifact for catalog bookkeeping.
type Item struct {
	URL     string
	Path    string
	PaperID string
	Kind    types.ArtifactKind
}

// Stats summarizes one batch of transfers.
type Stats struct {
	Downloaded int
	Skipped    int
	Failed     int
	Bytes      int64
}

// Manager downloads artifacts with bounded concurrency.
type Manager struct {
	cfg    types.DownloadConfig
	client *http.Client
	exists func(item Item) bool
	w      io.Writer
}

// Option customizes a Manager.
type Option func(*Manager)

// WithHTTPClient replaces the transport, used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(m *Manager) { m.client = hc }
}

// WithExistsCheck replaces the already-downloaded predicate, so a catalog
// can answer from its download records instead of the filesystem.
func WithExistsCheck(f func(item Item) bool) Option {
	return func(m *Manager) { m.exists = f }
}

// New creates a Manager writing progress to w.
func New(cfg types.DownloadConfig, w io.Writer, opts ...Option) *Manager {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.MinFileSize <= 0 {
		cfg.MinFileSize = defaultMinSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if w == nil {
		w = io.Discard
	}
	m := &Manager{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		exists: fileExists,
		w:      w,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func fileExists(item Item) bool {
	info, err := os.Stat(item.Path)
	return err == nil && info.Size() > 0
}

// FetchAll transfers every item, at most Concurrency at a time. Individual
// failures are counted, never fatal; cancellation stops new transfers.
func (m *Manager) FetchAll(ctx context.Context, items []Item) Stats {
	sem := make(chan struct{}, m.cfg.Concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var stats Stats

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(item Item) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			size, err := m.Fetch(ctx, item)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				stats.Failed++
				fmt.Fprintf(m.w, "download %s: %v\n", item.URL, err)
			case size == 0:
				stats.Skipped++
			default:
				stats.Downloaded++
				stats.Bytes += size
			}
		}(item)
	}
	wg.Wait()

	fmt.Fprintf(m.w, "downloaded %d, skipped %d, failed %d (%d bytes)\n",
		stats.Downloaded, stats.Skipped, stats.Failed, stats.Bytes)
	return stats
}

// Fetch transfers one item and returns the byte count, zero when the item
// was skipped. The body is written to a temp file and renamed into place
// only after it passes the size floor, so a partial transfer never leaves a
// corrupt file behind.
func (m *Manager) Fetch(ctx context.Context, item Item) (int64, error) {
	if m.exists(item) {
		return 0, nil
	}
	if m.cfg.MaxFileSize > 0 {
		if oversize, err := m.tooLarge(ctx, item.URL); err == nil && oversize {
			return 0, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	if m.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", m.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, m.client, req, 0)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP %d from %s", resp.StatusCode, item.URL)
	}

	if err := os.MkdirAll(filepath.Dir(item.Path), 0o755); err != nil {
		return 0, fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(item.Path), ".download-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	var body io.Reader = resp.Body
	if m.cfg.MaxFileSize > 0 {
		body = io.LimitReader(resp.Body, m.cfg.MaxFileSize)
	}
	size, err := io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("writing %s: %w", item.Path, err)
	}
	if size < m.cfg.MinFileSize {
		return 0, fmt.Errorf("body too small (%d bytes) from %s", size, item.URL)
	}

	if err := os.Rename(tmp.Name(), item.Path); err != nil {
		return 0, fmt.Errorf("moving into place: %w", err)
	}
	return size, nil
}

// tooLarge checks the advertised Content-Length before streaming any body
// bytes.
func (m *Manager) tooLarge(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()
	return resp.ContentLength > m.cfg.MaxFileSize, nil
}

// artifact filename suffixes, keyed by kind.
var kindSuffix = map[types.ArtifactKind]string{
	types.ArtifactPaper:        "",
	types.ArtifactPresentation: "_talk",
	types.ArtifactPoster:       "_poster",
}

// Items builds the transfer list for one conference: every available
// artifact of every paper, named "<ID> - <Title><suffix>.pdf" under the
// conference directory.
func (m *Manager) Items(conf types.ConferenceRecord, papers []types.PaperRecord) []Item {
	confDir := filepath.Join(m.cfg.OutputDir, SafeFilename(conf.Code))

	var items []Item
	for _, p := range papers {
		for _, kind := range types.ArtifactKinds() {
			info := p.Artifacts[kind]
			if !info.Available || info.URL == "" {
				continue
			}
			name := SafeFilename(p.PaperID+" - "+p.Title) + kindSuffix[kind] + ".pdf"
			items = append(items, Item{
				URL:     info.URL,
				Path:    filepath.Join(confDir, name),
				PaperID: p.PaperID,
				Kind:    kind,
			})
		}
	}
	return items
}

// SafeFilename strips filesystem-hostile characters and truncates overlong
// names so titles survive as file names on every platform.
func SafeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", "\n", " ", "\t", " ",
	)
	name = replacer.Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	if len(name) > maxFilenameLen {
		cut := name[:maxFilenameLen]
		// Break at a word boundary when one is close enough.
		if i := strings.LastIndex(cut, " "); i > maxFilenameLen/2 {
			cut = cut[:i]
		}
		name = strings.TrimSpace(cut)
	}
	return name
}
