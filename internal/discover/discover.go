// Copyright Ming Liu, 2025. All rights reserved.

// Package discover walks the proceedings index, enumerates conferences, and
// drives session resolution and paper assembly for each one. Crawling is
// strictly sequential; politeness comes from the fetch client's rate limiter
// plus a mandatory pause between conferences.
package discover

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/iuming/jacow-papers-crawler/internal/assemble"
	"github.com/iuming/jacow-papers-crawler/internal/fetch"
	"github.com/iuming/jacow-papers-crawler/internal/sessions"
	"github.com/iuming/jacow-papers-crawler/pkg/types"
)

// Sink receives each conference's assembled data as soon as it is complete,
// so an interrupted run keeps everything processed so far.
type Sink func(types.ConferenceData) error

// Driver runs the crawl end to end.
type Driver struct {
	cfg       types.CrawlConfig
	client    *fetch.Client
	resolver  *sessions.Resolver
	assembler *assemble.Assembler
	sink      Sink
	w         io.Writer
}

// New creates a Driver. sink may be nil.
func New(cfg types.CrawlConfig, client *fetch.Client, resolver *sessions.Resolver, assembler *assemble.Assembler, sink Sink, w io.Writer) *Driver {
	if w == nil {
		w = io.Discard
	}
	if len(cfg.KnownConferences) == 0 {
		cfg.KnownConferences = types.DefaultKnownConferences()
	}
	return &Driver{
		cfg:       cfg,
		client:    client,
		resolver:  resolver,
		assembler: assembler,
		sink:      sink,
		w:         w,
	}
}

// Conferences scrapes the index page and returns every recognized
// conference, de-duplicated by code in page order.
func (d *Driver) Conferences(ctx context.Context) ([]types.ConferenceRecord, error) {
	doc, err := d.client.Document(ctx, d.cfg.IndexURL)
	if err != nil {
		return nil, fmt.Errorf("fetching index %s: %w", d.cfg.IndexURL, err)
	}
	base, err := url.Parse(d.cfg.IndexURL)
	if err != nil {
		return nil, fmt.Errorf("parsing index url %s: %w", d.cfg.IndexURL, err)
	}

	seen := make(map[string]bool)
	var confs []types.ConferenceRecord

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, err := base.Parse(href)
		if err != nil {
			return
		}

		// A conference root is a single path segment like /ipac2023/.
		code := strings.ToLower(strings.Trim(ref.Path, "/"))
		if code == "" || strings.ContainsAny(code, "/.") {
			return
		}
		if !d.knownSeries(code) || seen[code] {
			return
		}
		seen[code] = true

		name := strings.TrimSpace(a.Text())
		if name == "" {
			name = strings.ToUpper(code)
		}
		confs = append(confs, types.ConferenceRecord{
			Name:    name,
			Code:    code,
			RootURL: ref.Scheme + "://" + ref.Host + "/" + code + "/",
			Year:    types.YearFromCode(code),
		})
	})

	fmt.Fprintf(d.w, "index lists %d conferences\n", len(confs))
	return confs, nil
}

// knownSeries reports whether the code starts with a recognized conference
// series name.
func (d *Driver) knownSeries(code string) bool {
	for _, series := range d.cfg.KnownConferences {
		if strings.HasPrefix(code, strings.ToLower(series)) {
			return true
		}
	}
	return false
}

// Run crawls every conference that passes the configured filters and
// returns the per-run statistics with all assembled data. Failures inside a
// single conference are counted and skipped, never fatal.
func (d *Driver) Run(ctx context.Context) (types.CrawlStats, []types.ConferenceData, error) {
	confs, err := d.Conferences(ctx)
	if err != nil {
		return types.CrawlStats{}, nil, err
	}

	stats := types.CrawlStats{ConferencesFound: len(confs)}
	selected := d.filter(confs)

	var results []types.ConferenceData
	for i, conf := range selected {
		if err := ctx.Err(); err != nil {
			return stats, results, err
		}
		if i > 0 && d.cfg.ConferenceDelay > 0 {
			if err := sleep(ctx, d.cfg.ConferenceDelay); err != nil {
				return stats, results, err
			}
		}

		fmt.Fprintf(d.w, "[%d/%d] crawling %s\n", i+1, len(selected), conf.Code)
		data := d.crawlConference(ctx, conf, &stats)
		if len(data.Sessions) == 0 {
			stats.ConferencesSkipped++
			continue
		}
		stats.ConferencesProcessed++
		results = append(results, data)

		if d.sink != nil {
			if err := d.sink(data); err != nil {
				stats.Errors++
				fmt.Fprintf(d.w, "saving %s: %v\n", conf.Code, err)
			}
		}
	}
	return stats, results, nil
}

// filter applies the conference/year filters, the resume offset, and the
// per-run conference cap.
func (d *Driver) filter(confs []types.ConferenceRecord) []types.ConferenceRecord {
	var out []types.ConferenceRecord
	for _, c := range confs {
		if d.cfg.ConferenceFilter != "" &&
			!strings.Contains(c.Code, strings.ToLower(d.cfg.ConferenceFilter)) {
			continue
		}
		if d.cfg.YearFilter != 0 && c.Year != d.cfg.YearFilter {
			continue
		}
		out = append(out, c)
	}
	if d.cfg.StartFrom > 0 {
		if d.cfg.StartFrom >= len(out) {
			return nil
		}
		out = out[d.cfg.StartFrom:]
	}
	if d.cfg.MaxConferences > 0 && len(out) > d.cfg.MaxConferences {
		out = out[:d.cfg.MaxConferences]
	}
	return out
}

// crawlConference walks one conference: resolve sessions via the known
// index locations, falling back to session links on the conference root for
// the newer site template, then assemble each session's papers.
func (d *Driver) crawlConference(ctx context.Context, conf types.ConferenceRecord, stats *types.CrawlStats) types.ConferenceData {
	data := types.ConferenceData{Conference: conf}

	sess := d.resolver.Resolve(ctx, conf)
	linkFormat := false
	if len(sess) == 0 {
		sess = d.sessionsFromRoot(ctx, conf)
		linkFormat = true
	}
	if len(sess) == 0 {
		fmt.Fprintf(d.w, "no sessions for %s, skipping\n", conf.Code)
		return data
	}

	for _, s := range sess {
		if ctx.Err() != nil {
			break
		}
		// Some conference indexes link the same session page twice.
		if !d.client.MarkVisited(s.URL) {
			continue
		}

		doc, err := d.client.Document(ctx, s.URL)
		if err != nil {
			stats.Errors++
			fmt.Fprintf(d.w, "session %s/%s: %v\n", conf.Code, s.ID, err)
			continue
		}

		var papers []types.PaperRecord
		if linkFormat {
			papers = d.assembler.FromAnchors(ctx, doc, s.URL, conf, s)
		} else {
			papers = d.assembler.FromSessionPage(ctx, doc, conf, s)
		}

		stats.SessionsProcessed++
		stats.PapersFound += len(papers)
		for _, p := range papers {
			stats.CountAvailability(p)
		}
		data.Sessions = append(data.Sessions, types.SessionData{Session: s, Papers: papers})
		data.Papers = append(data.Papers, papers...)
	}
	return data
}

// sessionsFromRoot handles conferences whose root page links each session
// directly instead of publishing a session index.
func (d *Driver) sessionsFromRoot(ctx context.Context, conf types.ConferenceRecord) []types.SessionRecord {
	doc, err := d.client.Document(ctx, conf.RootURL)
	if err != nil {
		return nil
	}
	return sessions.FromAnchors(doc, conf.RootURL)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
