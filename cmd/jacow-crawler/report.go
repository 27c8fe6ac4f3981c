// Copyright Ming Liu, 2025. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iuming/jacow-papers-crawler/internal/catalog"
	"github.com/iuming/jacow-papers-crawler/internal/report"
	"github.com/iuming/jacow-papers-crawler/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Regenerate report files from the catalog",
	Long: `Report rebuilds the per-conference JSON/YAML/CSV/summary files and the
master index from the catalog database, without touching the network. Useful
after hand-editing the catalog or when report files were deleted.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("data", "data", "directory holding the crawl catalog")
	reportCmd.Flags().String("output", "", "report directory (default: same as --data)")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	dataDir := stringSetting(cmd.Flags(), "data", fileCfg.Crawl.OutputDir)
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = dataDir
	}

	store, err := catalog.Open(dataDir)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer store.Close()

	confs, err := store.Conferences()
	if err != nil {
		return err
	}
	if len(confs) == 0 {
		return fmt.Errorf("catalog is empty, run crawl first")
	}

	reports := report.New(output)
	var stats types.CrawlStats
	var all []types.ConferenceData

	for _, conf := range confs {
		papers, err := store.Papers(conf.Code)
		if err != nil {
			return fmt.Errorf("loading papers for %s: %w", conf.Code, err)
		}

		data := types.ConferenceData{Conference: conf, Papers: papers}
		if err := reports.WriteConference(data); err != nil {
			return err
		}

		stats.ConferencesFound++
		stats.ConferencesProcessed++
		stats.PapersFound += len(papers)
		for _, p := range papers {
			stats.CountAvailability(p)
		}
		all = append(all, data)
	}

	if err := reports.WriteMaster(all, stats); err != nil {
		return err
	}

	confCount, paperCount, err := store.Counts()
	if err != nil {
		return fmt.Errorf("counting catalog: %w", err)
	}
	fmt.Printf("catalog holds %d conferences, %d papers\n", confCount, paperCount)
	fmt.Printf("wrote reports to %s\n", output)
	return nil
}
