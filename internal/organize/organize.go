// Copyright Ming Liu, 2025. All rights reserved.

// Package organize arranges downloaded papers into a browsable library:
// one view by conference, one by year, one by topic bucket matched from
// filename keywords. Files are copied, never moved, so the raw download
// tree stays intact as the source of truth.
package organize

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/iuming/jacow-papers-crawler/pkg/types"
)

const (
	byConferenceDir = "By_Conference"
	byYearDir       = "By_Year"
	byTopicDir      = "By_Topic"

	// unknownYear collects conferences whose code carries no year.
	unknownYear = "Unknown_Year"

	// defaultTopic collects papers no keyword bucket claims.
	defaultTopic = "General"
)

// Stats summarizes one organize pass.
type Stats struct {
	Organized int
	ByTopic   map[string]int
}

// Organizer builds the library tree.
type Organizer struct {
	cfg    types.OrganizeConfig
	topics []string
	w      io.Writer
}

// New creates an Organizer writing progress to w. Topic buckets default to
// the standard accelerator-physics set.
func New(cfg types.OrganizeConfig, w io.Writer) *Organizer {
	if len(cfg.TopicKeywords) == 0 {
		cfg.TopicKeywords = types.DefaultTopicKeywords()
	}
	if w == nil {
		w = io.Discard
	}

	// Stable bucket order so repeated runs classify identically.
	topics := make([]string, 0, len(cfg.TopicKeywords))
	for topic := range cfg.TopicKeywords {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	return &Organizer{cfg: cfg, topics: topics, w: w}
}

// Organize walks sourceDir, expecting <conference>/<paper>.pdf, and copies
// each file into the three library views.
func (o *Organizer) Organize(sourceDir string) (Stats, error) {
	stats := Stats{ByTopic: make(map[string]int)}

	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}

		conference := filepath.Base(filepath.Dir(path))
		topic := o.Topic(d.Name())

		targets := []string{
			filepath.Join(o.cfg.LibraryDir, byConferenceDir, conference, d.Name()),
			filepath.Join(o.cfg.LibraryDir, byYearDir, yearBucket(conference), d.Name()),
			filepath.Join(o.cfg.LibraryDir, byTopicDir, topic, d.Name()),
		}
		for _, target := range targets {
			if err := copyFile(path, target); err != nil {
				return err
			}
		}

		stats.Organized++
		stats.ByTopic[topic]++
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("organizing %s: %w", sourceDir, err)
	}

	fmt.Fprintf(o.w, "organized %d papers into %s\n", stats.Organized, o.cfg.LibraryDir)
	return stats, nil
}

// Topic returns the first bucket, in name order, whose keyword appears in
// the filename.
func (o *Organizer) Topic(filename string) string {
	lower := strings.ToLower(filename)
	for _, topic := range o.topics {
		for _, kw := range o.cfg.TopicKeywords[topic] {
			if strings.Contains(lower, kw) {
				return topic
			}
		}
	}
	return defaultTopic
}

func yearBucket(conference string) string {
	if year := types.YearFromCode(conference); year > 0 {
		return strconv.Itoa(year)
	}
	return unknownYear
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying to %s: %w", dst, err)
	}
	return out.Close()
}
