// Copyright Ming Liu, 2025. All rights reserved.

package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iuming/jacow-papers-crawler/internal/fetch"
	"github.com/iuming/jacow-papers-crawler/internal/sessions"
	"github.com/iuming/jacow-papers-crawler/pkg/types"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions <conference-root-url>",
	Short: "List the session pages of one conference",
	Long: `Sessions resolves and prints the session structure of a single
conference, given its proceedings root URL, e.g.
https://proceedings.jacow.org/ipac2023/. Useful for checking whether a
conference is crawlable before a full run.`,
	Args: cobra.ExactArgs(1),
	RunE: runSessions,
}

func init() {
	sessionsCmd.Flags().Duration("timeout", defaultTimeout, "HTTP request timeout")
	sessionsCmd.Flags().Duration("delay", defaultDelay, "delay between page fetches")

	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	rootURL := args[0]
	flags := cmd.Flags()
	timeout := durationSetting(flags, "timeout", fileCfg.Crawl.Timeout)
	delay := durationSetting(flags, "delay", fileCfg.Crawl.RequestDelay)

	userAgent := fileCfg.Crawl.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	u, err := url.Parse(rootURL)
	if err != nil {
		return fmt.Errorf("parsing conference url: %w", err)
	}
	code := strings.ToLower(strings.Trim(u.Path, "/"))
	if code == "" {
		return fmt.Errorf("no conference code in %s", rootURL)
	}

	cfg := types.CrawlConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: userAgent,
		},
		RequestDelay: delay,
		MaxRetries:   fileCfg.Crawl.MaxRetries,
	}
	client := fetch.New(cfg)
	resolver := sessions.New(client, os.Stderr)

	conf := types.ConferenceRecord{
		Code:    code,
		RootURL: strings.TrimSuffix(rootURL, "/") + "/",
		Year:    types.YearFromCode(code),
	}
	found := resolver.Resolve(cmd.Context(), conf)
	if len(found) == 0 {
		return fmt.Errorf("no sessions found for %s", code)
	}

	for _, s := range found {
		fmt.Printf("%-8s %s\n", s.ID, s.URL)
	}
	fmt.Printf("%d sessions\n", len(found))
	return nil
}
