// Copyright Ming Liu, 2025. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// CrawlConfig holds settings for the discovery and extraction stage.
type CrawlConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// IndexURL is the proceedings index page listing all conferences.
	IndexURL string `json:"index_url" yaml:"index_url" mapstructure:"index_url"`

	// RequestDelay is the politeness delay enforced between page fetches.
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay" mapstructure:"request_delay"`

	// ConferenceDelay is the mandatory pause between conferences.
	ConferenceDelay time.Duration `json:"conference_delay" yaml:"conference_delay" mapstructure:"conference_delay"`

	// MaxRetries bounds fetch retries on transient failures.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// MaxConferences limits how many conferences one run processes
	// (0 means all); StartFrom skips that many conferences first, so
	// interrupted runs can resume in batches.
	MaxConferences int `json:"max_conferences" yaml:"max_conferences" mapstructure:"max_conferences"`
	StartFrom      int `json:"start_from" yaml:"start_from" mapstructure:"start_from"`

	// ConferenceFilter keeps only conferences whose code contains the
	// given text (case-insensitive); YearFilter keeps one year.
	ConferenceFilter string `json:"conference_filter,omitempty" yaml:"conference_filter,omitempty" mapstructure:"conference_filter"`
	YearFilter       int    `json:"year_filter,omitempty" yaml:"year_filter,omitempty" mapstructure:"year_filter"`

	// KnownConferences lists conference series recognized on index pages.
	KnownConferences []string `json:"known_conferences" yaml:"known_conferences" mapstructure:"known_conferences"`

	// OutputDir is the base directory for reports and the catalog.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`
}

// ClassifyRules drives the individual-vs-bulk URL classifier. All fields
// are injectable so new site-template eras can be supported from config.
type ClassifyRules struct {
	// BulkKeywords mark aggregate proceedings files. Exclusion wins over
	// any shape match.
	BulkKeywords []string `json:"bulk_keywords" yaml:"bulk_keywords" mapstructure:"bulk_keywords"`

	// IndividualPatterns are regexps matched against the lowercased
	// filename stem.
	IndividualPatterns []string `json:"individual_patterns" yaml:"individual_patterns" mapstructure:"individual_patterns"`

	// MaxStemLength is the filename-stem length ceiling for the
	// short-name-with-digit fallback.
	MaxStemLength int `json:"max_stem_length" yaml:"max_stem_length" mapstructure:"max_stem_length"`
}

// DefaultClassifyRules returns the keyword and pattern sets observed across
// the historical site eras.
func DefaultClassifyRules() ClassifyRules {
	return ClassifyRules{
		BulkKeywords: []string{
			"proceedings", "complete", "full", "entire", "all", "volume", "brief",
		},
		IndividualPatterns: []string{
			`^[a-z]{2,4}[a-z0-9]{2,6}$`,
			`^[a-z]{2,6}\d{2,4}$`,
		},
		MaxStemLength: 20,
	}
}

// ArtifactTemplates are the format strings artifact URLs are computed from.
// These are contracts, constructed rather than scraped, and must be kept
// bit-exact.
type ArtifactTemplates struct {
	// PaperURL, TalkURL, and PosterURL take the conference code and the
	// lowercased paper id.
	PaperURL  string `json:"paper_url" yaml:"paper_url" mapstructure:"paper_url"`
	TalkURL   string `json:"talk_url" yaml:"talk_url" mapstructure:"talk_url"`
	PosterURL string `json:"poster_url" yaml:"poster_url" mapstructure:"poster_url"`

	// DOI takes the uppercased conference code and the paper id as-is.
	DOI string `json:"doi" yaml:"doi" mapstructure:"doi"`
}

// DefaultArtifactTemplates returns the proceedings host templates.
func DefaultArtifactTemplates() ArtifactTemplates {
	return ArtifactTemplates{
		PaperURL:  "https://proceedings.jacow.org/%s/papers/%s.pdf",
		TalkURL:   "https://proceedings.jacow.org/%s/talks/%s_talk.pdf",
		PosterURL: "https://proceedings.jacow.org/%s/posters/%s_poster.pdf",
		DOI:       "https://doi.org/10.18429/JACoW-%s-%s",
	}
}

// ExtractRules holds the keyword sets and thresholds the context extractor
// classifies lines with.
type ExtractRules struct {
	// InstitutionKeywords mark organization lines. Checked before the
	// author comma heuristic so institution names containing commas are
	// not misread as author lists.
	InstitutionKeywords []string `json:"institution_keywords" yaml:"institution_keywords" mapstructure:"institution_keywords"`

	// MetadataKeywords disqualify a comma line from being authors.
	MetadataKeywords []string `json:"metadata_keywords" yaml:"metadata_keywords" mapstructure:"metadata_keywords"`

	// TerminatorKeywords end a paper's content window.
	TerminatorKeywords []string `json:"terminator_keywords" yaml:"terminator_keywords" mapstructure:"terminator_keywords"`

	// LabelPrefixes exclude metadata lines from the abstract.
	LabelPrefixes []string `json:"label_prefixes" yaml:"label_prefixes" mapstructure:"label_prefixes"`

	// NonTitleKeywords reject sibling text blocks as titles.
	NonTitleKeywords []string `json:"non_title_keywords" yaml:"non_title_keywords" mapstructure:"non_title_keywords"`

	// MaxAuthorRun caps a captured author run; longer text is noise.
	MaxAuthorRun int `json:"max_author_run" yaml:"max_author_run" mapstructure:"max_author_run"`

	// MinAbstractLine is the minimum length for an abstract line.
	MinAbstractLine int `json:"min_abstract_line" yaml:"min_abstract_line" mapstructure:"min_abstract_line"`
}

// DefaultExtractRules returns the heuristics tuned against known-good
// conference pages.
func DefaultExtractRules() ExtractRules {
	return ExtractRules{
		InstitutionKeywords: []string{
			"University", "Laboratory", "Institute", "Center", "Corporation",
			"School", "Facility", "National", "Synchrotron", "KEK", "FRIB",
			"LBNL", "DESY", "SLAC", "CERN", "Jefferson Lab", "Argonne",
		},
		MetadataKeywords:   []string{"funding", "doi", "received", "accepted"},
		TerminatorKeywords: []string{"DOI:", "Received:", "Accepted:", "Paper:", "Cite:", "Export:"},
		LabelPrefixes:      []string{"Funding:", "DOI:", "Received:", "Accepted:"},
		NonTitleKeywords:   []string{"author", "doi", "cite"},
		MaxAuthorRun:       200,
		MinAbstractLine:    20,
	}
}

// DownloadConfig holds settings for the artifact transfer stage.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// OutputDir is the base directory downloads are written under.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// Concurrency is the worker-pool ceiling for simultaneous transfers.
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// MaxFileSize rejects artifacts whose Content-Length exceeds it
	// before any body bytes are streamed. MinFileSize rejects bodies too
	// small to be a real PDF.
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size" mapstructure:"max_file_size"`
	MinFileSize int64 `json:"min_file_size" yaml:"min_file_size" mapstructure:"min_file_size"`
}

// OrganizeConfig holds settings for the downloaded-library organizer.
type OrganizeConfig struct {
	// LibraryDir is the root of the organized paper library.
	LibraryDir string `json:"library_dir" yaml:"library_dir" mapstructure:"library_dir"`

	// TopicKeywords maps a topic bucket to the keywords that select it.
	TopicKeywords map[string][]string `json:"topic_keywords" yaml:"topic_keywords" mapstructure:"topic_keywords"`
}

// DefaultTopicKeywords returns the accelerator-physics topic buckets.
func DefaultTopicKeywords() map[string][]string {
	return map[string][]string{
		"Accelerator_Technology": {
			"accelerator", "magnet", "cavity", "superconducting",
			"cryogenic", "vacuum", "mechanical", "power supply",
		},
		"Beam_Dynamics": {
			"beam dynamics", "optics", "emittance", "tune", "chromaticity",
			"coupling", "lattice", "tracking", "simulation",
		},
		"Beam_Instrumentation": {
			"bpm", "beam position monitor", "diagnostics", "monitor",
			"measurement", "instrumentation", "profile",
		},
		"Controls": {
			"control", "epics", "software", "database", "automation",
			"interface", "timing", "synchronization",
		},
		"RF_Technology": {
			"rf", "microwave", "klystron", "magnetron", "waveguide",
			"coupler", "antenna", "frequency",
		},
	}
}

// DefaultKnownConferences lists the conference series the discovery stage
// recognizes on index pages.
func DefaultKnownConferences() []string {
	return []string{
		"IPAC", "LINAC", "PAC", "EPAC", "DIPAC", "BIW", "SRF", "IBIC",
		"COOL", "HB", "CYCLOTRONS", "RuPAC", "NA-PAC", "ICALEPCS",
		"PCaPAC", "HIAT", "FEL",
	}
}

// CrawlerConfig groups all stage configurations.
type CrawlerConfig struct {
	Crawl     CrawlConfig       `json:"crawl" yaml:"crawl" mapstructure:"crawl"`
	Classify  ClassifyRules     `json:"classify" yaml:"classify" mapstructure:"classify"`
	Extract   ExtractRules      `json:"extract" yaml:"extract" mapstructure:"extract"`
	Templates ArtifactTemplates `json:"templates" yaml:"templates" mapstructure:"templates"`
	Download  DownloadConfig    `json:"download" yaml:"download" mapstructure:"download"`
	Organize  OrganizeConfig    `json:"organize" yaml:"organize" mapstructure:"organize"`
}
