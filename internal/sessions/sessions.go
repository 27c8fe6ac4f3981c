// Copyright Ming Liu, 2025. All rights reserved.

// Package sessions discovers the session pages of a conference. The site
// family changed its session-index naming and layout several times over the
// years, so resolution is an ordered stack of fallbacks: known URL suffixes
// first, then a structured table, then a plain-text line scan.
package sessions

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/iuming/jacow-papers-crawler/internal/fetch"
	"github.com/iuming/jacow-papers-crawler/pkg/types"
)

// indexSuffixes are the known session-index locations relative to a
// conference root, in probe order. "sessi0n" is not a typo here: one
// conference year shipped with that spelling and it must stay supported.
var indexSuffixes = []string{
	"html/sessi0n.htm",
	"html/sessi0n1.htm",
	"html/session.htm",
	"html/sessions.htm",
}

// Resolver finds session pages for a conference.
type Resolver struct {
	client *fetch.Client
	w      io.Writer
}

// New creates a Resolver that logs progress to w.
func New(client *fetch.Client, w io.Writer) *Resolver {
	if w == nil {
		w = io.Discard
	}
	return &Resolver{client: client, w: w}
}

// Resolve returns the ordered, de-duplicated session list for a conference.
// It never fails: when no usable session structure exists the result is
// empty and the caller skips the conference.
func (r *Resolver) Resolve(ctx context.Context, conf types.ConferenceRecord) []types.SessionRecord {
	root := strings.TrimSuffix(conf.RootURL, "/") + "/"

	for _, suffix := range indexSuffixes {
		if ctx.Err() != nil {
			return nil
		}

		doc, err := r.client.Document(ctx, root+suffix)
		if err != nil {
			continue
		}

		// A frame-redirect stub mentions frames instead of carrying
		// the session list; the real content lives elsewhere.
		if isFramePage(doc) {
			fmt.Fprintf(r.w, "session page %s uses frames, trying next candidate\n", suffix)
			continue
		}

		sessions := FromTable(doc, root)
		if len(sessions) == 0 {
			sessions = FromLines(doc.Text(), root)
		}
		if len(sessions) > 0 {
			fmt.Fprintf(r.w, "found %d sessions for %s via %s\n", len(sessions), conf.Code, suffix)
			return dedupe(sessions)
		}
	}

	fmt.Fprintf(r.w, "no session page found for %s\n", conf.Code)
	return nil
}

func isFramePage(doc *goquery.Document) bool {
	text := strings.ToLower(doc.Text())
	return strings.Contains(text, "frames") ||
		strings.Contains(text, "your browser doesn't support them")
}

// FromTable applies the structured-table strategy: each row with at least
// two cells yields (id, name), accepting only ids that are fully uppercase
// and at least four characters, which filters header and junk rows.
func FromTable(doc *goquery.Document, root string) []types.SessionRecord {
	var sessions []types.SessionRecord

	doc.Find("table").First().Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		id := strings.TrimSpace(cells.Eq(0).Text())
		name := strings.TrimSpace(cells.Eq(1).Text())

		if !isSessionID(id) || name == "" || strings.Contains(id, "Table of Sessions") {
			return
		}
		sessions = append(sessions, types.SessionRecord{
			ID:          id,
			DisplayName: id + " - " + name,
			URL:         SessionURL(root, id),
		})
	})
	return sessions
}

// FromLines applies the line-scan fallback over flattened page text: an
// uppercase alphabetic line of at least four characters is a candidate
// session id and the following line, if not itself uppercase, is its name.
func FromLines(text, root string) []types.SessionRecord {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		if line := strings.TrimSpace(raw); line != "" {
			lines = append(lines, line)
		}
	}

	var sessions []types.SessionRecord
	for i := 0; i < len(lines); i++ {
		id := lines[i]
		if !isSessionID(id) || !isAlpha(id) {
			continue
		}
		if i+1 >= len(lines) {
			break
		}
		name := lines[i+1]
		// Two uppercase lines in a row are two ids, not an id and
		// its name.
		if name == strings.ToUpper(name) {
			continue
		}
		sessions = append(sessions, types.SessionRecord{
			ID:          id,
			DisplayName: id + " - " + name,
			URL:         SessionURL(root, id),
		})
		i++
	}
	return sessions
}

// FromAnchors applies the link-based strategy used by the newer site
// template: session pages are anchors whose href matches the session-index
// shape, collected as-is.
func FromAnchors(doc *goquery.Document, baseURL string) []types.SessionRecord {
	var sessions []types.SessionRecord

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, "/session/") || !strings.HasSuffix(href, "index.html") {
			return
		}
		name := strings.TrimSpace(a.Text())
		if name == "" {
			return
		}
		sessions = append(sessions, types.SessionRecord{
			ID:          sessionIDFromHref(href),
			DisplayName: name,
			URL:         resolveRef(baseURL, href),
		})
	})
	return dedupe(sessions)
}

// SessionURL computes the deterministic session page address used by the
// table-format template.
func SessionURL(root, id string) string {
	return strings.TrimSuffix(root, "/") + "/html/" + strings.ToLower(id) + ".htm"
}

// sessionIDFromHref recovers the session code from a path segment like
// "session/238-mopa/index.html".
func sessionIDFromHref(href string) string {
	parts := strings.Split(href, "/session/")
	if len(parts) < 2 {
		return "UNKNOWN"
	}
	code := strings.SplitN(parts[1], "/", 2)[0]
	if i := strings.Index(code, "-"); i >= 0 && i+1 < len(code) {
		code = code[i+1:]
	}
	return strings.ToUpper(code)
}

func resolveRef(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(href, "/")
}

func isSessionID(id string) bool {
	return len(id) >= 4 && id == strings.ToUpper(id) && id != strings.ToLower(id)
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return len(s) > 0
}

// dedupe keeps the first occurrence of each session id, preserving
// discovery order.
func dedupe(sessions []types.SessionRecord) []types.SessionRecord {
	seen := make(map[string]bool, len(sessions))
	var out []types.SessionRecord
	for _, s := range sessions {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out
}
