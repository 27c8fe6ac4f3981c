// Copyright Ming Liu, 2025. All rights reserved.

package sessions

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iuming/jacow-papers-crawler/internal/fetch"
	"github.com/iuming/jacow-papers-crawler/pkg/types"
)

const tablePage = `<html><body>
<table>
<tr><th>Session</th><th>Title</th></tr>
<tr><td>MOPA</td><td>Monday Poster Session A</td></tr>
<tr><td>TUOB</td><td>Tuesday Orals B</td></tr>
<tr><td>x</td><td>junk row</td></tr>
<tr><td>lowercase</td><td>not a session</td></tr>
</table>
</body></html>`

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestFromTable(t *testing.T) {
	doc := parseDoc(t, tablePage)

	sessions := FromTable(doc, "https://proceedings.jacow.org/ipac2023/")
	require.Len(t, sessions, 2)

	assert.Equal(t, "MOPA", sessions[0].ID)
	assert.Equal(t, "MOPA - Monday Poster Session A", sessions[0].DisplayName)
	assert.Equal(t, "https://proceedings.jacow.org/ipac2023/html/mopa.htm", sessions[0].URL)
	assert.Equal(t, "TUOB", sessions[1].ID)
}

func TestFromLines(t *testing.T) {
	text := strings.Join([]string{
		"Table of Sessions",
		"",
		"MOPA",
		"Monday Poster Session A",
		"TUOB",
		"WEPC",
		"Wednesday Posters C",
		"ab",
		"not an id",
	}, "\n")

	sessions := FromLines(text, "https://proceedings.jacow.org/ipac2023/")
	require.Len(t, sessions, 2)

	assert.Equal(t, "MOPA", sessions[0].ID)
	assert.Equal(t, "MOPA - Monday Poster Session A", sessions[0].DisplayName)
	// TUOB is followed by another id, so it gets no name and is skipped.
	assert.Equal(t, "WEPC", sessions[1].ID)
	assert.Equal(t, "https://proceedings.jacow.org/ipac2023/html/wepc.htm", sessions[1].URL)
}

func TestFromAnchors(t *testing.T) {
	page := `<html><body>
	<a href="session/238-mopa/index.html">MOPA: Monday Posters</a>
	<a href="session/239-tuob/index.html">TUOB: Tuesday Orals</a>
	<a href="session/238-mopa/index.html">MOPA: Monday Posters</a>
	<a href="papers/mopa001.pdf">A Paper</a>
	</body></html>`
	doc := parseDoc(t, page)

	sessions := FromAnchors(doc, "https://proceedings.jacow.org/ipac2023/")
	require.Len(t, sessions, 2)

	assert.Equal(t, "MOPA", sessions[0].ID)
	assert.Equal(t, "MOPA: Monday Posters", sessions[0].DisplayName)
	assert.Equal(t, "https://proceedings.jacow.org/ipac2023/session/238-mopa/index.html", sessions[0].URL)
	assert.Equal(t, "TUOB", sessions[1].ID)
}

func TestResolveProbesSuffixesInOrder(t *testing.T) {
	var probed []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probed = append(probed, r.URL.Path)
		if r.URL.Path == "/html/session.htm" {
			fmt.Fprint(w, tablePage)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := fetch.New(types.CrawlConfig{})
	resolver := New(client, io.Discard)
	conf := types.ConferenceRecord{Code: "ipac2023", RootURL: srv.URL + "/"}

	sessions := resolver.Resolve(context.Background(), conf)
	require.Len(t, sessions, 2)
	assert.Equal(t, []string{
		"/html/sessi0n.htm",
		"/html/sessi0n1.htm",
		"/html/session.htm",
	}, probed)
}

func TestResolveSkipsFramePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/html/sessi0n.htm":
			fmt.Fprint(w, `<html><body>This page uses frames, but your browser doesn't support them.</body></html>`)
		case "/html/sessi0n1.htm":
			fmt.Fprint(w, tablePage)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := fetch.New(types.CrawlConfig{})
	resolver := New(client, io.Discard)
	conf := types.ConferenceRecord{Code: "linac2004", RootURL: srv.URL + "/"}

	sessions := resolver.Resolve(context.Background(), conf)
	require.Len(t, sessions, 2)
	assert.Equal(t, "MOPA", sessions[0].ID)
}

func TestResolveNothingFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	client := fetch.New(types.CrawlConfig{})
	resolver := New(client, io.Discard)
	conf := types.ConferenceRecord{Code: "empty", RootURL: srv.URL + "/"}

	assert.Empty(t, resolver.Resolve(context.Background(), conf))
}

func TestSessionURL(t *testing.T) {
	got := SessionURL("https://proceedings.jacow.org/ipac2023/", "MOPA")
	assert.Equal(t, "https://proceedings.jacow.org/ipac2023/html/mopa.htm", got)
}
