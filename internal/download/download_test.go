// Copyright Ming Liu, 2025. All rights reserved.

package download

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iuming/jacow-papers-crawler/pkg/types"
)

func pdfServer(t *testing.T, body string, gets *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			return
		}
		if gets != nil {
			gets.Add(1)
		}
		w.Header().Set("Content-Type", "application/pdf")
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	body := strings.Repeat("x", 2048)
	srv := pdfServer(t, body, nil)
	dir := t.TempDir()

	m := New(types.DownloadConfig{OutputDir: dir}, io.Discard)
	target := filepath.Join(dir, "ipac2023", "MOPA001 - Some Title.pdf")

	size, err := m.Fetch(context.Background(), Item{URL: srv.URL + "/mopa001.pdf", Path: target})
	require.NoError(t, err)
	assert.Equal(t, int64(2048), size)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))

	// No leftover temp files.
	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFetchSkipsExisting(t *testing.T) {
	var gets atomic.Int32
	srv := pdfServer(t, strings.Repeat("x", 2048), &gets)
	dir := t.TempDir()

	target := filepath.Join(dir, "existing.pdf")
	require.NoError(t, os.WriteFile(target, []byte("already here"), 0o644))

	m := New(types.DownloadConfig{OutputDir: dir}, io.Discard)
	size, err := m.Fetch(context.Background(), Item{URL: srv.URL + "/a.pdf", Path: target})
	require.NoError(t, err)
	assert.Zero(t, size)
	assert.Zero(t, gets.Load())
}

func TestWithExistsCheck(t *testing.T) {
	var gets atomic.Int32
	srv := pdfServer(t, strings.Repeat("x", 2048), &gets)
	dir := t.TempDir()

	// An injected predicate answers instead of the filesystem, so a
	// catalog record alone is enough to skip a transfer.
	m := New(types.DownloadConfig{OutputDir: dir}, io.Discard,
		WithExistsCheck(func(item Item) bool { return item.PaperID == "MOPA001" }))

	items := []Item{
		{URL: srv.URL + "/mopa001.pdf", Path: filepath.Join(dir, "a.pdf"), PaperID: "MOPA001", Kind: types.ArtifactPaper},
		{URL: srv.URL + "/mopa002.pdf", Path: filepath.Join(dir, "b.pdf"), PaperID: "MOPA002", Kind: types.ArtifactPaper},
	}
	stats := m.FetchAll(context.Background(), items)

	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Downloaded)
	assert.Equal(t, int32(1), gets.Load())
	assert.NoFileExists(t, items[0].Path)
	assert.FileExists(t, items[1].Path)
}

func TestFetchRejectsTinyBody(t *testing.T) {
	srv := pdfServer(t, "nope", nil)
	dir := t.TempDir()

	m := New(types.DownloadConfig{OutputDir: dir, MinFileSize: 1024}, io.Discard)
	target := filepath.Join(dir, "tiny.pdf")

	_, err := m.Fetch(context.Background(), Item{URL: srv.URL + "/t.pdf", Path: target})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too small")
	assert.NoFileExists(t, target)
}

func TestFetchOversizePrecheck(t *testing.T) {
	var gets atomic.Int32
	srv := pdfServer(t, strings.Repeat("x", 4096), &gets)
	dir := t.TempDir()

	m := New(types.DownloadConfig{OutputDir: dir, MaxFileSize: 1024}, io.Discard)
	target := filepath.Join(dir, "big.pdf")

	size, err := m.Fetch(context.Background(), Item{URL: srv.URL + "/big.pdf", Path: target})
	require.NoError(t, err)
	assert.Zero(t, size)
	assert.Zero(t, gets.Load(), "oversize artifact must be rejected before GET")
	assert.NoFileExists(t, target)
}

func TestFetchAll(t *testing.T) {
	srv := pdfServer(t, strings.Repeat("x", 2048), nil)
	dir := t.TempDir()

	m := New(types.DownloadConfig{OutputDir: dir, Concurrency: 2}, io.Discard)
	items := []Item{
		{URL: srv.URL + "/a.pdf", Path: filepath.Join(dir, "a.pdf")},
		{URL: srv.URL + "/b.pdf", Path: filepath.Join(dir, "b.pdf")},
		{URL: srv.URL + "/c.pdf", Path: filepath.Join(dir, "c.pdf")},
	}

	stats := m.FetchAll(context.Background(), items)
	assert.Equal(t, 3, stats.Downloaded)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, int64(3*2048), stats.Bytes)
	for _, it := range items {
		assert.FileExists(t, it.Path)
	}
}

func TestFetchAllCountsFailures(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	dir := t.TempDir()

	m := New(types.DownloadConfig{OutputDir: dir}, io.Discard)
	stats := m.FetchAll(context.Background(), []Item{
		{URL: srv.URL + "/missing.pdf", Path: filepath.Join(dir, "missing.pdf")},
	})
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Downloaded)
}

func TestItems(t *testing.T) {
	dir := t.TempDir()
	m := New(types.DownloadConfig{OutputDir: dir}, io.Discard)
	conf := types.ConferenceRecord{Code: "ipac2023"}
	papers := []types.PaperRecord{
		{
			PaperID: "MOPA001",
			Title:   "Beam Loss: A Study?",
			Artifacts: map[types.ArtifactKind]types.ArtifactInfo{
				types.ArtifactPaper:        {URL: "https://x/p.pdf", Available: true},
				types.ArtifactPresentation: {URL: "https://x/t.pdf", Available: true},
				types.ArtifactPoster:       {URL: "https://x/o.pdf", Available: false},
			},
		},
	}

	items := m.Items(conf, papers)
	require.Len(t, items, 2)

	// Presentation comes first in artifact order.
	assert.Equal(t, filepath.Join(dir, "ipac2023", "MOPA001 - Beam Loss_ A Study__talk.pdf"), items[0].Path)
	assert.Equal(t, filepath.Join(dir, "ipac2023", "MOPA001 - Beam Loss_ A Study_.pdf"), items[1].Path)
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain title", "plain title"},
		{"a/b\\c:d", "a_b_c_d"},
		{"tabs\tand\nnewlines", "tabs and newlines"},
		{"  spaced   out  ", "spaced out"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeFilename(tt.in), tt.in)
	}

	long := strings.Repeat("very long title ", 20)
	assert.LessOrEqual(t, len(SafeFilename(long)), maxFilenameLen)
}
