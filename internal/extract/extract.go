// Copyright Ming Liu, 2025. All rights reserved.

// Package extract recovers human-readable paper fields from inconsistently
// formatted proceedings markup. Extraction is a waterfall of cheap textual
// heuristics: each stage degrades by falling through, never by failing, so
// the worst outcome of malformed input is an empty field.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/iuming/jacow-papers-crawler/pkg/types"
)

// Fields holds the extracted human-readable paper fields. Absent fields are
// empty strings or nil slices.
type Fields struct {
	Title        string
	Authors      []string
	Institutions []string
	Abstract     string
}

// Extractor applies the configured keyword sets and thresholds.
type Extractor struct {
	rules types.ExtractRules
}

// New creates an Extractor, filling zero fields with defaults so partial
// rule sets from a config file stay usable.
func New(rules types.ExtractRules) *Extractor {
	def := types.DefaultExtractRules()
	if len(rules.InstitutionKeywords) == 0 {
		rules.InstitutionKeywords = def.InstitutionKeywords
	}
	if len(rules.MetadataKeywords) == 0 {
		rules.MetadataKeywords = def.MetadataKeywords
	}
	if len(rules.TerminatorKeywords) == 0 {
		rules.TerminatorKeywords = def.TerminatorKeywords
	}
	if len(rules.LabelPrefixes) == 0 {
		rules.LabelPrefixes = def.LabelPrefixes
	}
	if len(rules.NonTitleKeywords) == 0 {
		rules.NonTitleKeywords = def.NonTitleKeywords
	}
	if rules.MaxAuthorRun <= 0 {
		rules.MaxAuthorRun = def.MaxAuthorRun
	}
	if rules.MinAbstractLine <= 0 {
		rules.MinAbstractLine = def.MinAbstractLine
	}
	return &Extractor{rules: rules}
}

var (
	titleTailRe  = regexp.MustCompile(`(?i)\s+(DOI:|Cite:|Author:|Abstract:).*`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	pageNumberRe = regexp.MustCompile(`^\d{1,3}$`)

	// Author runs on link-format pages follow a marker glyph or an
	// explicit label.
	authorMarkerRes = []*regexp.Regexp{
		regexp.MustCompile(`■\s*([^■]+)`),
		regexp.MustCompile(`(?im)Authors?:\s*([^\n]+)`),
		regexp.MustCompile(`(?im)By:\s*([^\n]+)`),
	}
)

// FromLink recovers fields for one paper from its anchor element and the
// enclosing container. Used on the site template that lists each paper as
// an explicit PDF link.
func (e *Extractor) FromLink(link *goquery.Selection, paperCode string) Fields {
	return Fields{
		Title:   e.titleFromLink(link, paperCode),
		Authors: e.authorsFromLink(link),
	}
}

func (e *Extractor) titleFromLink(link *goquery.Selection, paperCode string) string {
	// The link's own text, when it is more than the bare code.
	linkText := strings.TrimSpace(link.Text())
	if linkText != "" && linkText != paperCode && len(linkText) > len(paperCode) {
		return cleanTitle(linkText)
	}

	// The container text after the code: "MOPA001 Design of ...".
	parent := link.Parent()
	if parent.Length() > 0 {
		codeRe := regexp.MustCompile(regexp.QuoteMeta(paperCode) + `\s+(.+)`)
		if m := codeRe.FindStringSubmatch(parent.Text()); m != nil {
			if title := cleanTitle(m[1]); title != "" {
				return title
			}
		}

		// First substantial sibling block that is not metadata.
		var found string
		parent.NextAll().EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if len(text) <= 10 {
				return true
			}
			lower := strings.ToLower(text)
			for _, kw := range e.rules.NonTitleKeywords {
				if strings.HasPrefix(lower, kw) {
					return true
				}
			}
			found = cleanTitle(text)
			return false
		})
		if found != "" {
			return found
		}
	}

	return paperCode
}

func (e *Extractor) authorsFromLink(link *goquery.Selection) []string {
	parent := link.Parent()
	if parent.Length() == 0 {
		return nil
	}
	text := parent.Text()

	for _, re := range authorMarkerRes {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		run := whitespaceRe.ReplaceAllString(strings.TrimSpace(m[1]), " ")
		if run == "" || len(run) > e.rules.MaxAuthorRun {
			continue
		}
		return splitAuthors(run)
	}
	return nil
}

// FromWindow recovers fields from a paper's content window on a dense
// session page. The first non-blank, non-page-number line is the title; a
// line of one to three digits is the page number. Each remaining line is
// assigned to exactly one of institutions, authors, or abstract.
func (e *Extractor) FromWindow(window string) (Fields, string) {
	var f Fields
	var pageNumber string

	var lines []string
	for _, raw := range strings.Split(window, "\n") {
		if line := strings.TrimSpace(raw); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return f, ""
	}

	for _, line := range lines {
		if pageNumberRe.MatchString(line) {
			if pageNumber == "" {
				pageNumber = line
			}
			continue
		}
		if f.Title == "" {
			f.Title = cleanTitle(line)
			continue
		}

		// Institutions before the comma heuristic: organization names
		// containing commas must not be swallowed as author lists.
		if e.isInstitutionLine(line) {
			f.Institutions = append(f.Institutions, line)
			continue
		}
		if e.isAuthorLine(line) {
			f.Authors = append(f.Authors, splitAuthors(line)...)
			continue
		}
		if e.isAbstractLine(line) {
			if f.Abstract != "" {
				f.Abstract += " "
			}
			f.Abstract += line
		}
	}
	return f, pageNumber
}

func (e *Extractor) isInstitutionLine(line string) bool {
	for _, kw := range e.rules.InstitutionKeywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}

func (e *Extractor) isAuthorLine(line string) bool {
	if !strings.Contains(line, ",") {
		return false
	}
	lower := strings.ToLower(line)
	for _, kw := range e.rules.MetadataKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}

func (e *Extractor) isAbstractLine(line string) bool {
	if len(line) <= e.rules.MinAbstractLine {
		return false
	}
	for _, prefix := range e.rules.LabelPrefixes {
		if strings.HasPrefix(line, prefix) {
			return false
		}
	}
	return true
}

// cleanTitle strips trailing metadata labels, collapses whitespace, and
// trims edge punctuation.
func cleanTitle(title string) string {
	title = titleTailRe.ReplaceAllString(title, "")
	title = whitespaceRe.ReplaceAllString(title, " ")
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(title), ".,;:"))
}

// splitAuthors turns a comma-separated run into individual names.
func splitAuthors(run string) []string {
	var authors []string
	for _, part := range strings.Split(run, ",") {
		if name := strings.TrimSpace(part); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}
