// Copyright Ming Liu, 2025. All rights reserved.

// Package types defines the records exchanged between crawler stages and
// the configuration structs they consume.
package types

import (
	"regexp"
	"strconv"
)

// ArtifactKind identifies one downloadable file type attached to a paper.
type ArtifactKind string

const (
	ArtifactPaper        ArtifactKind = "paper"
	ArtifactPresentation ArtifactKind = "presentation"
	ArtifactPoster       ArtifactKind = "poster"
)

// ArtifactKinds lists every kind in report column order.
func ArtifactKinds() []ArtifactKind {
	return []ArtifactKind{ArtifactPresentation, ArtifactPaper, ArtifactPoster}
}

// ArtifactInfo holds one computed artifact URL and its probed availability.
type ArtifactInfo struct {
	URL       string `json:"url" yaml:"url"`
	Available bool   `json:"available" yaml:"available"`
}

// ConferenceRecord identifies one conference discovered on the proceedings
// index. Records are immutable once created and keyed by Code.
type ConferenceRecord struct {
	// Name is the human-readable conference name from the index page.
	Name string `json:"name" yaml:"name"`

	// Code is the short slug used in proceedings URLs (e.g. "ipac2023").
	Code string `json:"code" yaml:"code"`

	// RootURL is the conference site root, with trailing slash.
	RootURL string `json:"root_url" yaml:"root_url"`

	// Year is parsed from the code or link text; zero when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`
}

var yearSuffixRe = regexp.MustCompile(`(\d{2,4})$`)

// YearFromCode parses the trailing digits of a conference code. Two-digit
// years pivot at 90: "linac96" is 1996, "pac09" is 2009.
func YearFromCode(code string) int {
	m := yearSuffixRe.FindStringSubmatch(code)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	switch {
	case n >= 1000:
		return n
	case n >= 100:
		return 0
	case n >= 90:
		return 1900 + n
	default:
		return 2000 + n
	}
}

// SessionRecord identifies one session page within a conference.
type SessionRecord struct {
	// ID is the session code (e.g. "MOPA"), always uppercase.
	ID string `json:"id" yaml:"id"`

	// DisplayName combines the code with the session title.
	DisplayName string `json:"display_name" yaml:"display_name"`

	// URL is the session page address.
	URL string `json:"url" yaml:"url"`
}

// PaperRecord is the central entity produced by the assembler. Its artifact
// availability flags are filled by the probing step immediately after
// creation; the record is treated as read-only afterwards.
type PaperRecord struct {
	// PaperID is unique within a conference (e.g. "MOPA001").
	PaperID string `json:"paper_id" yaml:"paper_id"`

	Title        string   `json:"title" yaml:"title"`
	Authors      []string `json:"authors" yaml:"authors"`
	Institutions []string `json:"institutions" yaml:"institutions"`
	Abstract     string   `json:"abstract" yaml:"abstract"`

	// Artifacts always contains all three kinds with computed URLs;
	// only the Available flags vary.
	Artifacts map[ArtifactKind]ArtifactInfo `json:"artifacts" yaml:"artifacts"`

	// DOI is computed from the conference code and paper id.
	DOI string `json:"doi" yaml:"doi"`

	SessionID  string `json:"session_id" yaml:"session_id"`
	PageNumber string `json:"page_number,omitempty" yaml:"page_number,omitempty"`
}

// Available reports whether the artifact of the given kind was probed as
// reachable.
func (p PaperRecord) Available(kind ArtifactKind) bool {
	return p.Artifacts[kind].Available
}

// SessionData pairs a session with the papers extracted from its page.
type SessionData struct {
	Session SessionRecord `json:"session_info" yaml:"session_info"`
	Papers  []PaperRecord `json:"papers" yaml:"papers"`
}

// ConferenceData aggregates everything discovered for one conference.
type ConferenceData struct {
	Conference ConferenceRecord `json:"conference" yaml:"conference"`
	Sessions   []SessionData    `json:"sessions" yaml:"sessions"`
	Papers     []PaperRecord    `json:"papers" yaml:"papers"`
}

// CrawlStats summarizes a discovery run. Individual extraction misses are
// counted, not surfaced as failures.
type CrawlStats struct {
	ConferencesFound     int `json:"conferences_found" yaml:"conferences_found"`
	ConferencesProcessed int `json:"conferences_processed" yaml:"conferences_processed"`
	ConferencesSkipped   int `json:"conferences_skipped" yaml:"conferences_skipped"`
	SessionsProcessed    int `json:"sessions_processed" yaml:"sessions_processed"`
	PapersFound          int `json:"papers_found" yaml:"papers_found"`

	AvailablePapers        int `json:"available_papers" yaml:"available_papers"`
	AvailablePresentations int `json:"available_presentations" yaml:"available_presentations"`
	AvailablePosters       int `json:"available_posters" yaml:"available_posters"`

	Errors int `json:"errors" yaml:"errors"`
}

// CountAvailability folds one paper's probed artifacts into the stats.
func (s *CrawlStats) CountAvailability(p PaperRecord) {
	if p.Available(ArtifactPaper) {
		s.AvailablePapers++
	}
	if p.Available(ArtifactPresentation) {
		s.AvailablePresentations++
	}
	if p.Available(ArtifactPoster) {
		s.AvailablePosters++
	}
}
