// Copyright Ming Liu, 2025. All rights reserved.

// Package assemble turns session pages into paper records. It supports the
// two page shapes found in the wild: flattened-text pages where paper codes
// delimit per-paper windows, and anchor-based pages where each paper is a
// PDF link. Every record carries computed artifact URLs, availability flags
// come from HEAD probes.
package assemble

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/iuming/jacow-papers-crawler/internal/classify"
	"github.com/iuming/jacow-papers-crawler/internal/extract"
	"github.com/iuming/jacow-papers-crawler/pkg/types"
)

// Prober checks whether an artifact URL serves a PDF. A nil Prober leaves
// every availability flag false, which keeps tests and dry runs offline.
type Prober interface {
	ProbePDF(ctx context.Context, url string) bool
}

// Assembler builds paper records from session pages.
type Assembler struct {
	extractor   *extract.Extractor
	classifier  *classify.Classifier
	templates   classify.Templates
	prober      Prober
	terminators []string
	w           io.Writer
}

// New creates an Assembler. Terminator keywords default to the rule set
// defaults when the supplied rules leave them empty.
func New(rules types.ExtractRules, classifier *classify.Classifier, templates classify.Templates, prober Prober, w io.Writer) *Assembler {
	if len(rules.TerminatorKeywords) == 0 {
		rules.TerminatorKeywords = types.DefaultExtractRules().TerminatorKeywords
	}
	if w == nil {
		w = io.Discard
	}
	return &Assembler{
		extractor:   extract.New(rules),
		classifier:  classifier,
		templates:   templates,
		prober:      prober,
		terminators: rules.TerminatorKeywords,
		w:           w,
	}
}

// paperIDRe matches any paper code, used to bound one paper's text window
// at the start of the next.
var paperIDRe = regexp.MustCompile(`[A-Z]{4,}\d+`)

// window is one paper's slice of the flattened session page text.
type window struct {
	id   string
	text string
}

// FromSessionPage extracts papers from a flattened-text session page. Paper
// codes are the session id followed by digits; each code's first occurrence
// opens a window that runs to the next code or a terminator keyword. A paper
// that fails extraction is kept with its id as title so artifact URLs stay
// usable.
func (a *Assembler) FromSessionPage(ctx context.Context, doc *goquery.Document, conf types.ConferenceRecord, session types.SessionRecord) []types.PaperRecord {
	windows := a.paperWindows(doc.Text(), session.ID)

	papers := make([]types.PaperRecord, 0, len(windows))
	for _, win := range windows {
		if ctx.Err() != nil {
			break
		}

		fields, pageNumber := a.extractor.FromWindow(strings.TrimPrefix(win.text, win.id))
		if fields.Title == "" {
			fields.Title = win.id
		}

		p := types.PaperRecord{
			PaperID:      win.id,
			Title:        fields.Title,
			Authors:      fields.Authors,
			Institutions: fields.Institutions,
			Abstract:     fields.Abstract,
			SessionID:    session.ID,
			PageNumber:   pageNumber,
			Artifacts:    a.templates.Artifacts(conf.Code, win.id),
			DOI:          a.templates.DOI(conf.Code, win.id),
		}
		a.probe(ctx, &p)
		papers = append(papers, p)
	}

	fmt.Fprintf(a.w, "session %s: %d papers\n", session.ID, len(papers))
	return papers
}

// FromAnchors extracts papers from an anchor-based session page. Only links
// the classifier accepts as individual papers are kept; duplicates of the
// same target URL collapse to the first anchor.
func (a *Assembler) FromAnchors(ctx context.Context, doc *goquery.Document, pageURL string, conf types.ConferenceRecord, session types.SessionRecord) []types.PaperRecord {
	base, err := url.Parse(pageURL)
	if err != nil {
		fmt.Fprintf(a.w, "bad session page url %q: %v\n", pageURL, err)
		return nil
	}

	seen := make(map[string]bool)
	var papers []types.PaperRecord

	doc.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		if ctx.Err() != nil {
			return false
		}
		href, _ := link.Attr("href")
		if !strings.Contains(strings.ToLower(href), ".pdf") {
			return true
		}

		ref, err := base.Parse(href)
		if err != nil {
			return true
		}
		target := ref.String()
		if seen[target] || a.classifier.Classify(target) != classify.Individual {
			return true
		}
		seen[target] = true

		paperID := strings.ToUpper(strings.TrimSuffix(path.Base(ref.Path), path.Ext(ref.Path)))
		fields := a.extractor.FromLink(link, paperID)
		if fields.Title == "" {
			fields.Title = paperID
		}

		p := types.PaperRecord{
			PaperID:   paperID,
			Title:     fields.Title,
			Authors:   fields.Authors,
			SessionID: session.ID,
			Artifacts: a.templates.Artifacts(conf.Code, paperID),
			DOI:       a.templates.DOI(conf.Code, paperID),
		}
		// The observed link is authoritative for the paper file; talk
		// and poster URLs stay computed.
		p.Artifacts[types.ArtifactPaper] = types.ArtifactInfo{URL: target}
		a.probe(ctx, &p)
		papers = append(papers, p)
		return true
	})

	fmt.Fprintf(a.w, "session %s: %d papers\n", session.ID, len(papers))
	return papers
}

// paperWindows slices the page text into per-paper windows, ordered by the
// numeric part of the paper code.
func (a *Assembler) paperWindows(text, sessionID string) []window {
	idRe, err := regexp.Compile(regexp.QuoteMeta(strings.ToUpper(sessionID)) + `\d+`)
	if err != nil {
		return nil
	}

	firstAt := make(map[string]int)
	var order []string
	for _, loc := range idRe.FindAllStringIndex(text, -1) {
		id := text[loc[0]:loc[1]]
		if _, ok := firstAt[id]; ok {
			continue
		}
		firstAt[id] = loc[0]
		order = append(order, id)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return paperNumber(order[i], sessionID) < paperNumber(order[j], sessionID)
	})

	windows := make([]window, 0, len(order))
	for _, id := range order {
		start := firstAt[id]
		body := text[start:]
		if m := paperIDRe.FindStringIndex(body[len(id):]); m != nil {
			body = body[:len(id)+m[0]]
		}
		windows = append(windows, window{id: id, text: a.trimAtTerminator(body, len(id))})
	}
	return windows
}

// trimAtTerminator cuts the window at the earliest terminator keyword found
// after the leading paper code.
func (a *Assembler) trimAtTerminator(body string, after int) string {
	cut := len(body)
	for _, kw := range a.terminators {
		if i := strings.Index(body[after:], kw); i >= 0 && after+i < cut {
			cut = after + i
		}
	}
	return body[:cut]
}

func paperNumber(id, sessionID string) int {
	n, err := strconv.Atoi(id[len(sessionID):])
	if err != nil {
		return 0
	}
	return n
}

// probe fills availability flags for every artifact kind.
func (a *Assembler) probe(ctx context.Context, p *types.PaperRecord) {
	if a.prober == nil {
		return
	}
	for kind, info := range p.Artifacts {
		info.Available = a.prober.ProbePDF(ctx, info.URL)
		p.Artifacts[kind] = info
	}
}
