// Copyright Ming Liu, 2025. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iuming/jacow-papers-crawler/pkg/types"
)

// loadTestConfig points viper at a throwaway config file and decodes it
// into fileCfg, restoring both afterwards.
func loadTestConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jacow-crawler.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	fileCfg = types.CrawlerConfig{}
	t.Cleanup(func() { fileCfg = types.CrawlerConfig{} })
	require.NoError(t, decodeConfig())
}

func TestDecodeConfig(t *testing.T) {
	loadTestConfig(t, `
crawl:
  index_url: https://example.org/custom-index
  request_delay: 250ms
  max_retries: 5
  known_conferences: [IPAC, LINAC]
classify:
  bulk_keywords: [proceedings, abstracts]
extract:
  min_abstract_line: 30
templates:
  paper_url: https://mirror.example.org/%s/papers/%s.pdf
download:
  concurrency: 7
  max_file_size: 1048576
organize:
  library_dir: /srv/library
`)

	assert.Equal(t, "https://example.org/custom-index", fileCfg.Crawl.IndexURL)
	assert.Equal(t, 250*time.Millisecond, fileCfg.Crawl.RequestDelay)
	assert.Equal(t, 5, fileCfg.Crawl.MaxRetries)
	assert.Equal(t, []string{"IPAC", "LINAC"}, fileCfg.Crawl.KnownConferences)
	assert.Equal(t, []string{"proceedings", "abstracts"}, fileCfg.Classify.BulkKeywords)
	assert.Equal(t, 30, fileCfg.Extract.MinAbstractLine)
	assert.Equal(t, "https://mirror.example.org/%s/papers/%s.pdf", fileCfg.Templates.PaperURL)
	assert.Equal(t, 7, fileCfg.Download.Concurrency)
	assert.Equal(t, int64(1048576), fileCfg.Download.MaxFileSize)
	assert.Equal(t, "/srv/library", fileCfg.Organize.LibraryDir)
}

func TestConfigDefaultsCrawlFlags(t *testing.T) {
	loadTestConfig(t, `
crawl:
  index_url: https://example.org/custom-index
  conference_delay: 5s
`)

	flags := crawlCmd.Flags()
	t.Cleanup(func() {
		flags.Set("index-url", defaultIndexURL)
		flags.Visit(func(f *pflag.Flag) { f.Changed = false })
	})

	// File values replace the built-in flag defaults.
	assert.Equal(t, "https://example.org/custom-index",
		stringSetting(flags, "index-url", fileCfg.Crawl.IndexURL))
	assert.Equal(t, 5*time.Second,
		durationSetting(flags, "conference-delay", fileCfg.Crawl.ConferenceDelay))

	// Settings absent from the file keep the flag defaults.
	assert.Equal(t, defaultDelay, durationSetting(flags, "delay", fileCfg.Crawl.RequestDelay))
	assert.Equal(t, 0, intSetting(flags, "year", fileCfg.Crawl.YearFilter))

	// An explicitly set flag wins over the file.
	require.NoError(t, flags.Set("index-url", "https://example.org/flag-index"))
	assert.Equal(t, "https://example.org/flag-index",
		stringSetting(flags, "index-url", fileCfg.Crawl.IndexURL))
}
