// Copyright Ming Liu, 2025. All rights reserved.

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/iuming/jacow-papers-crawler/internal/organize"
	"github.com/iuming/jacow-papers-crawler/pkg/types"
)

var organizeCmd = &cobra.Command{
	Use:   "organize",
	Short: "Arrange downloaded PDFs into a browsable library",
	Long: `Organize copies downloaded papers into a library with three views:
by conference, by year, and by topic bucket matched from filename keywords.
The download tree is never modified.`,
	RunE: runOrganize,
}

func init() {
	organizeCmd.Flags().String("source", "downloads", "directory holding downloaded PDFs")
	organizeCmd.Flags().String("library", "library", "directory to build the library in")

	rootCmd.AddCommand(organizeCmd)
}

func runOrganize(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	source := stringSetting(flags, "source", fileCfg.Download.OutputDir)
	library := stringSetting(flags, "library", fileCfg.Organize.LibraryDir)

	o := organize.New(types.OrganizeConfig{
		LibraryDir:    library,
		TopicKeywords: fileCfg.Organize.TopicKeywords,
	}, os.Stdout)
	stats, err := o.Organize(source)
	if err != nil {
		return err
	}

	topics := make([]string, 0, len(stats.ByTopic))
	for topic := range stats.ByTopic {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	for _, topic := range topics {
		fmt.Printf("  %-24s %d\n", topic, stats.ByTopic[topic])
	}
	fmt.Printf("organized %d papers\n", stats.Organized)
	return nil
}
