// Copyright Ming Liu, 2025. All rights reserved.

package classify

import (
	"testing"

	"github.com/iuming/jacow-papers-crawler/pkg/types"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(types.DefaultClassifyRules())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestClassify(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name string
		url  string
		want Verdict
	}{
		{"paper code", "MOPA001.pdf", Individual},
		{"paper code other session", "TUPB123.pdf", Individual},
		{"paper code full url", "https://proceedings.jacow.org/ipac2023/papers/mopa001.pdf", Individual},
		{"short code", "WEPL45.pdf", Individual},
		{"proceedings volume", "ipac-23_proceedings_volume.pdf", Bulk},
		{"proceedings brief", "ipac-23_proceedings_brief.pdf", Bulk},
		{"complete volume", "complete_conference.pdf", Bulk},
		{"entire set", "entire_set.pdf", Bulk},
		{"long name no digits", "abcdefghijklmnopqrstuvwxy.pdf", Bulk},
		{"short with digit fallback", "x2017y.pdf", Individual},
		{"short no digit", "abc.pdf", Bulk},
		{"empty", "", Bulk},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.url); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

// A zero rule set, as decoded from an empty or partial config file, falls
// back to the default keywords and patterns.
func TestNewFillsEmptyRules(t *testing.T) {
	c, err := New(types.ClassifyRules{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := c.Classify("MOPA001.pdf"); got != Individual {
		t.Errorf("Classify(MOPA001.pdf) = %v, want Individual", got)
	}
	if got := c.Classify("proceedings_volume.pdf"); got != Bulk {
		t.Errorf("Classify(proceedings_volume.pdf) = %v, want Bulk", got)
	}
}

// Filenames containing both a bulk keyword and a paper-code shape must
// classify as bulk: exclusion takes priority over inclusion.
func TestClassifyExclusionWins(t *testing.T) {
	c := newTestClassifier(t)

	for _, url := range []string{
		"proceedings_MOPA001.pdf",
		"MOPA001_full.pdf",
		"volume_TUPB123.pdf",
	} {
		if got := c.Classify(url); got != Bulk {
			t.Errorf("Classify(%q) = %v, want Bulk", url, got)
		}
	}
}

func TestClassifyBadPattern(t *testing.T) {
	rules := types.DefaultClassifyRules()
	rules.IndividualPatterns = []string{"("}
	if _, err := New(rules); err == nil {
		t.Fatal("New with invalid pattern: expected error")
	}
}

func TestArtifactURLs(t *testing.T) {
	tpl := NewTemplates(types.ArtifactTemplates{})

	tests := []struct {
		kind types.ArtifactKind
		want string
	}{
		{types.ArtifactPaper, "https://proceedings.jacow.org/ipac2023/papers/mopa001.pdf"},
		{types.ArtifactPresentation, "https://proceedings.jacow.org/ipac2023/talks/mopa001_talk.pdf"},
		{types.ArtifactPoster, "https://proceedings.jacow.org/ipac2023/posters/mopa001_poster.pdf"},
	}
	for _, tt := range tests {
		if got := tpl.ArtifactURL(tt.kind, "ipac2023", "MOPA001"); got != tt.want {
			t.Errorf("ArtifactURL(%s) = %q, want %q", tt.kind, got, tt.want)
		}
	}

	wantDOI := "https://doi.org/10.18429/JACoW-IPAC2023-MOPA001"
	if got := tpl.DOI("ipac2023", "MOPA001"); got != wantDOI {
		t.Errorf("DOI = %q, want %q", got, wantDOI)
	}
}

func TestArtifactsMapComplete(t *testing.T) {
	tpl := NewTemplates(types.ArtifactTemplates{})
	m := tpl.Artifacts("srf2017", "MOXA01")

	if len(m) != 3 {
		t.Fatalf("Artifacts map has %d kinds, want 3", len(m))
	}
	for _, kind := range types.ArtifactKinds() {
		info, ok := m[kind]
		if !ok {
			t.Errorf("missing artifact kind %s", kind)
			continue
		}
		if info.URL == "" {
			t.Errorf("empty URL for kind %s", kind)
		}
		if info.Available {
			t.Errorf("kind %s available before probing", kind)
		}
	}
}
