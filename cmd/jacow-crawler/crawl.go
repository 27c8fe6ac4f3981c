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

	"github.com/iuming/jacow-papers-crawler/internal/assemble"
	"github.com/iuming/jacow-papers-crawler/internal/catalog"
	"github.com/iuming/jacow-papers-crawler/internal/classify"
	"github.com/iuming/jacow-papers-crawler/internal/discover"
	"github.com/iuming/jacow-papers-crawler/internal/fetch"
	"github.com/iuming/jacow-papers-crawler/internal/report"
	"github.com/iuming/jacow-papers-crawler/internal/sessions"
	"github.com/iuming/jacow-papers-crawler/pkg/types"
)

const (
	defaultIndexURL        = "https://www.jacow.org/Main/Proceedings"
	defaultTimeout         = 30 * time.Second
	defaultDelay           = 1 * time.Second
	defaultConferenceDelay = 2 * time.Second
	defaultUserAgent       = "jacow-papers-crawler/1.0"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Discover conferences and extract paper metadata",
	Long: `Crawl walks the proceedings index, resolves each conference's session
pages, and extracts paper records with computed artifact URLs. Results are
saved to the catalog database and per-conference report files as soon as
each conference finishes, so an interrupted run keeps its progress.`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().String("index-url", defaultIndexURL, "proceedings index page")
	crawlCmd.Flags().String("output", "data", "output directory for catalog and reports")
	crawlCmd.Flags().Duration("delay", defaultDelay, "delay between page fetches")
	crawlCmd.Flags().Duration("conference-delay", defaultConferenceDelay, "pause between conferences")
	crawlCmd.Flags().Duration("timeout", defaultTimeout, "HTTP request timeout")
	crawlCmd.Flags().Int("max-conferences", 0, "process at most this many conferences (0 = all)")
	crawlCmd.Flags().Int("start-from", 0, "skip this many conferences before processing")
	crawlCmd.Flags().String("conference", "", "only conferences whose code contains this text")
	crawlCmd.Flags().Int("year", 0, "only conferences from this year")
	crawlCmd.Flags().Bool("probe", true, "probe artifact URLs with HEAD requests")

	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	probe, _ := flags.GetBool("probe")

	userAgent := fileCfg.Crawl.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	cfg := types.CrawlConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   durationSetting(flags, "timeout", fileCfg.Crawl.Timeout),
			UserAgent: userAgent,
		},
		IndexURL:         stringSetting(flags, "index-url", fileCfg.Crawl.IndexURL),
		RequestDelay:     durationSetting(flags, "delay", fileCfg.Crawl.RequestDelay),
		ConferenceDelay:  durationSetting(flags, "conference-delay", fileCfg.Crawl.ConferenceDelay),
		MaxRetries:       fileCfg.Crawl.MaxRetries,
		MaxConferences:   intSetting(flags, "max-conferences", fileCfg.Crawl.MaxConferences),
		StartFrom:        intSetting(flags, "start-from", fileCfg.Crawl.StartFrom),
		ConferenceFilter: stringSetting(flags, "conference", fileCfg.Crawl.ConferenceFilter),
		YearFilter:       intSetting(flags, "year", fileCfg.Crawl.YearFilter),
		KnownConferences: fileCfg.Crawl.KnownConferences,
		OutputDir:        stringSetting(flags, "output", fileCfg.Crawl.OutputDir),
	}

	classifier, err := classify.New(fileCfg.Classify)
	if err != nil {
		return fmt.Errorf("building classifier: %w", err)
	}
	templates := classify.NewTemplates(fileCfg.Templates)

	client := fetch.New(cfg)
	var prober assemble.Prober
	if probe {
		prober = client
	}
	assembler := assemble.New(fileCfg.Extract, classifier, templates, prober, os.Stdout)
	resolver := sessions.New(client, os.Stdout)

	store, err := catalog.Open(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer store.Close()
	reports := report.New(cfg.OutputDir)

	sink := func(data types.ConferenceData) error {
		if err := store.SaveConference(data); err != nil {
			return err
		}
		return reports.WriteConference(data)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := discover.New(cfg, client, resolver, assembler, sink, os.Stdout)
	stats, results, err := driver.Run(ctx)

	// Write the master index even on interrupt so partial runs stay usable.
	if len(results) > 0 {
		if werr := reports.WriteMaster(results, stats); werr != nil {
			fmt.Fprintf(os.Stderr, "writing master index: %v\n", werr)
		}
	}
	if err != nil {
		return fmt.Errorf("crawl aborted: %w", err)
	}

	fmt.Printf("processed %d/%d conferences, %d papers (%d errors)\n",
		stats.ConferencesProcessed, stats.ConferencesFound, stats.PapersFound, stats.Errors)
	return nil
}
