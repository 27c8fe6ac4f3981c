// Copyright Ming Liu, 2025. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iuming/jacow-papers-crawler/internal/catalog"
	"github.com/iuming/jacow-papers-crawler/internal/download"
	"github.com/iuming/jacow-papers-crawler/pkg/types"
)

const (
	defaultDownloadTimeout = 5 * time.Minute
	defaultConcurrency     = 3
	defaultMaxFileSize     = 100 << 20 // 100 MB
	defaultMinFileSize     = 1024
)

var downloadCmd = &cobra.Command{
	Use:   "download [conference-codes...]",
	Short: "Download available PDFs for catalogued conferences",
	Long: `Download reads previously crawled papers from the catalog and transfers
every available artifact through a bounded worker pool. Already-downloaded
files are skipped, so interrupted runs resume where they left off. With no
arguments every catalogued conference is downloaded.`,
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().String("data", "data", "directory holding the crawl catalog")
	downloadCmd.Flags().String("output", "downloads", "directory to download PDFs into")
	downloadCmd.Flags().Int("concurrency", defaultConcurrency, "simultaneous downloads")
	downloadCmd.Flags().Int64("max-size", defaultMaxFileSize, "reject files larger than this many bytes")
	downloadCmd.Flags().Int64("min-size", defaultMinFileSize, "reject files smaller than this many bytes")
	downloadCmd.Flags().Duration("timeout", defaultDownloadTimeout, "per-file transfer timeout")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	dataDir := stringSetting(flags, "data", fileCfg.Crawl.OutputDir)

	userAgent := fileCfg.Download.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	store, err := catalog.Open(dataDir)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer store.Close()

	codes := args
	if len(codes) == 0 {
		confs, err := store.Conferences()
		if err != nil {
			return err
		}
		for _, c := range confs {
			codes = append(codes, c.Code)
		}
	}
	if len(codes) == 0 {
		return fmt.Errorf("catalog is empty, run crawl first")
	}

	cfg := types.DownloadConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   durationSetting(flags, "timeout", fileCfg.Download.Timeout),
			UserAgent: userAgent,
		},
		OutputDir:   stringSetting(flags, "output", fileCfg.Download.OutputDir),
		Concurrency: intSetting(flags, "concurrency", fileCfg.Download.Concurrency),
		MaxFileSize: int64Setting(flags, "max-size", fileCfg.Download.MaxFileSize),
		MinFileSize: int64Setting(flags, "min-size", fileCfg.Download.MinFileSize),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var total download.Stats
	for _, code := range codes {
		if ctx.Err() != nil {
			break
		}

		papers, err := store.Papers(code)
		if err != nil {
			return fmt.Errorf("loading papers for %s: %w", code, err)
		}

		// Skip anything the catalog recorded as downloaded, then fall
		// back to checking the target path.
		manager := download.New(cfg, os.Stdout, download.WithExistsCheck(func(item download.Item) bool {
			if done, err := store.IsDownloaded(code, item.PaperID, item.Kind); err == nil && done {
				return true
			}
			info, err := os.Stat(item.Path)
			return err == nil && info.Size() > 0
		}))

		conf := types.ConferenceRecord{Code: code}
		items := manager.Items(conf, papers)
		fmt.Printf("%s: %d artifacts to download\n", code, len(items))

		stats := manager.FetchAll(ctx, items)
		total.Downloaded += stats.Downloaded
		total.Skipped += stats.Skipped
		total.Failed += stats.Failed
		total.Bytes += stats.Bytes

		// Record successful transfers so future runs skip them.
		for _, item := range items {
			if _, err := os.Stat(item.Path); err != nil {
				continue
			}
			if err := store.MarkDownloaded(code, item.PaperID, item.Kind, item.Path); err != nil {
				fmt.Fprintf(os.Stderr, "cataloging %s: %v\n", item.Path, err)
			}
		}
	}

	fmt.Printf("downloaded %d, skipped %d, failed %d (%d bytes)\n",
		total.Downloaded, total.Skipped, total.Failed, total.Bytes)
	if total.Failed > 0 {
		return fmt.Errorf("%d artifact(s) failed to download", total.Failed)
	}
	return nil
}
