// Copyright Ming Liu, 2025. All rights reserved.

package classify

import (
	"fmt"
	"strings"

	"github.com/iuming/jacow-papers-crawler/pkg/types"
)

// Templates computes the deterministic artifact and DOI URLs for a paper.
// The URLs are constructed, never scraped, so the format is a contract.
type Templates struct {
	tpl types.ArtifactTemplates
}

// NewTemplates wraps the configured format strings, falling back to the
// proceedings-host defaults for any empty field.
func NewTemplates(tpl types.ArtifactTemplates) Templates {
	def := types.DefaultArtifactTemplates()
	if tpl.PaperURL == "" {
		tpl.PaperURL = def.PaperURL
	}
	if tpl.TalkURL == "" {
		tpl.TalkURL = def.TalkURL
	}
	if tpl.PosterURL == "" {
		tpl.PosterURL = def.PosterURL
	}
	if tpl.DOI == "" {
		tpl.DOI = def.DOI
	}
	return Templates{tpl: tpl}
}

// ArtifactURL returns the download URL for one artifact kind. The paper id
// is lowercased per the site's filename convention.
func (t Templates) ArtifactURL(kind types.ArtifactKind, confCode, paperID string) string {
	id := strings.ToLower(paperID)
	switch kind {
	case types.ArtifactPresentation:
		return fmt.Sprintf(t.tpl.TalkURL, confCode, id)
	case types.ArtifactPoster:
		return fmt.Sprintf(t.tpl.PosterURL, confCode, id)
	default:
		return fmt.Sprintf(t.tpl.PaperURL, confCode, id)
	}
}

// DOI returns the registered DOI URL for the paper. The conference code is
// uppercased; the paper id keeps its original case.
func (t Templates) DOI(confCode, paperID string) string {
	return fmt.Sprintf(t.tpl.DOI, strings.ToUpper(confCode), paperID)
}

// Artifacts returns the full artifact map for a paper with availability
// unset; the assembler's probing step fills the flags in.
func (t Templates) Artifacts(confCode, paperID string) map[types.ArtifactKind]types.ArtifactInfo {
	m := make(map[types.ArtifactKind]types.ArtifactInfo, 3)
	for _, kind := range types.ArtifactKinds() {
		m[kind] = types.ArtifactInfo{URL: t.ArtifactURL(kind, confCode, paperID)}
	}
	return m
}
