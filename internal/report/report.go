// Copyright Ming Liu, 2025. All rights reserved.

// Package report writes crawl results to disk in the formats downstream
// tooling expects: JSON and YAML for programs, CSV for spreadsheets, and a
// plain-text summary for humans.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/iuming/jacow-papers-crawler/pkg/types"
)

const (
	conferenceJSON    = "conference_data.json"
	conferenceYAML    = "conference_data.yaml"
	conferenceCSV     = "all_papers.csv"
	conferenceSummary = "conference_summary.txt"

	masterJSON    = "master_index.json"
	masterCSV     = "all_conferences.csv"
	masterSummary = "crawl_summary.txt"
)

// Writer emits reports under a base directory, one subdirectory per
// conference plus master files at the root.
type Writer struct {
	dir string
	now func() time.Time
}

// New creates a Writer rooted at dir.
func New(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// WriteConference writes the JSON, YAML, CSV, and summary files for one
// conference under <dir>/<code>/.
func (r *Writer) WriteConference(data types.ConferenceData) error {
	confDir := filepath.Join(r.dir, data.Conference.Code)
	if err := os.MkdirAll(confDir, 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	if err := writeJSON(filepath.Join(confDir, conferenceJSON), data); err != nil {
		return err
	}
	if err := writeYAML(filepath.Join(confDir, conferenceYAML), data); err != nil {
		return err
	}
	if err := r.writeCSV(filepath.Join(confDir, conferenceCSV), []types.ConferenceData{data}); err != nil {
		return err
	}
	return r.writeConferenceSummary(filepath.Join(confDir, conferenceSummary), data)
}

// WriteMaster writes the cross-conference index and the run summary at the
// report root.
func (r *Writer) WriteMaster(all []types.ConferenceData, stats types.CrawlStats) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	index := struct {
		GeneratedAt time.Time              `json:"generated_at"`
		Stats       types.CrawlStats       `json:"stats"`
		Conferences []types.ConferenceData `json:"conferences"`
	}{r.now().UTC(), stats, all}

	if err := writeJSON(filepath.Join(r.dir, masterJSON), index); err != nil {
		return err
	}
	if err := r.writeCSV(filepath.Join(r.dir, masterCSV), all); err != nil {
		return err
	}
	return r.writeRunSummary(filepath.Join(r.dir, masterSummary), all, stats)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// csvHeader is the flat paper table schema shared by the per-conference and
// master CSV files.
var csvHeader = []string{
	"conference", "year", "session", "paper_id", "title", "authors",
	"institutions", "page", "doi", "paper_url", "paper_available",
	"talk_url", "talk_available", "poster_url", "poster_available",
}

func (r *Writer) writeCSV(path string, all []types.ConferenceData) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, data := range all {
		for _, p := range data.Papers {
			row := []string{
				data.Conference.Code,
				fmt.Sprintf("%d", data.Conference.Year),
				p.SessionID,
				p.PaperID,
				p.Title,
				strings.Join(p.Authors, "; "),
				strings.Join(p.Institutions, "; "),
				p.PageNumber,
				p.DOI,
				p.Artifacts[types.ArtifactPaper].URL,
				fmt.Sprintf("%t", p.Available(types.ArtifactPaper)),
				p.Artifacts[types.ArtifactPresentation].URL,
				fmt.Sprintf("%t", p.Available(types.ArtifactPresentation)),
				p.Artifacts[types.ArtifactPoster].URL,
				fmt.Sprintf("%t", p.Available(types.ArtifactPoster)),
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("writing csv row for %s: %w", p.PaperID, err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return nil
}

func (r *Writer) writeConferenceSummary(path string, data types.ConferenceData) error {
	var b strings.Builder
	conf := data.Conference

	fmt.Fprintf(&b, "%s (%s)\n", conf.Name, conf.Code)
	fmt.Fprintf(&b, "%s\n\n", conf.RootURL)
	fmt.Fprintf(&b, "Sessions: %d\n", len(data.Sessions))
	fmt.Fprintf(&b, "Papers:   %d\n\n", len(data.Papers))

	var papers, talks, posters int
	for _, p := range data.Papers {
		if p.Available(types.ArtifactPaper) {
			papers++
		}
		if p.Available(types.ArtifactPresentation) {
			talks++
		}
		if p.Available(types.ArtifactPoster) {
			posters++
		}
	}
	fmt.Fprintf(&b, "Available papers:  %d\n", papers)
	fmt.Fprintf(&b, "Available talks:   %d\n", talks)
	fmt.Fprintf(&b, "Available posters: %d\n\n", posters)

	for _, s := range data.Sessions {
		fmt.Fprintf(&b, "  %s: %d papers\n", s.Session.DisplayName, len(s.Papers))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func (r *Writer) writeRunSummary(path string, all []types.ConferenceData, stats types.CrawlStats) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Crawl finished %s\n\n", r.now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Conferences found:     %d\n", stats.ConferencesFound)
	fmt.Fprintf(&b, "Conferences processed: %d\n", stats.ConferencesProcessed)
	fmt.Fprintf(&b, "Conferences skipped:   %d\n", stats.ConferencesSkipped)
	fmt.Fprintf(&b, "Sessions processed:    %d\n", stats.SessionsProcessed)
	fmt.Fprintf(&b, "Papers found:          %d\n", stats.PapersFound)
	fmt.Fprintf(&b, "Errors:                %d\n\n", stats.Errors)

	for _, data := range all {
		fmt.Fprintf(&b, "  %-16s %4d papers\n", data.Conference.Code, len(data.Papers))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
