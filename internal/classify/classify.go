// Copyright Ming Liu, 2025. All rights reserved.

// Package classify decides from a URL or filename alone whether a candidate
// artifact is an individual paper or a bulk proceedings volume. It also owns
// the artifact URL templates so classifier and assembler share one source of
// truth for filename conventions.
package classify

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/iuming/jacow-papers-crawler/pkg/types"
)

// Verdict is the classification result for a candidate URL.
type Verdict int

const (
	// Bulk marks aggregate artifacts: whole-conference or whole-session
	// proceedings volumes.
	Bulk Verdict = iota

	// Individual marks a single paper's artifact.
	Individual
)

func (v Verdict) String() string {
	if v == Individual {
		return "individual"
	}
	return "bulk"
}

// Classifier applies the configured keyword and shape rules. The zero value
// is not usable; construct with New.
type Classifier struct {
	bulkKeywords []string
	patterns     []*regexp.Regexp
	maxStemLen   int
}

// New compiles the rule set into a Classifier. Empty fields fall back to
// the defaults, so partial rule sets from a config file stay usable.
func New(rules types.ClassifyRules) (*Classifier, error) {
	defaults := types.DefaultClassifyRules()
	if len(rules.BulkKeywords) == 0 {
		rules.BulkKeywords = defaults.BulkKeywords
	}
	if len(rules.IndividualPatterns) == 0 {
		rules.IndividualPatterns = defaults.IndividualPatterns
	}
	if rules.MaxStemLength <= 0 {
		rules.MaxStemLength = defaults.MaxStemLength
	}

	c := &Classifier{
		bulkKeywords: rules.BulkKeywords,
		maxStemLen:   rules.MaxStemLength,
	}
	for _, p := range rules.IndividualPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling individual pattern %q: %w", p, err)
		}
		c.patterns = append(c.patterns, re)
	}
	return c, nil
}

var digitRe = regexp.MustCompile(`\d`)

// Classify is pure and total: unrecognized shapes fall through to the
// length/digit heuristic and default to Bulk. Bulk keywords are checked
// first because some volume filenames incidentally match the paper-code
// shape; exclusion must win.
func (c *Classifier) Classify(rawURL string) Verdict {
	filename := strings.ToLower(path.Base(strings.TrimSuffix(rawURL, "/")))

	for _, kw := range c.bulkKeywords {
		if strings.Contains(filename, kw) {
			return Bulk
		}
	}

	stem := strings.TrimSuffix(filename, path.Ext(filename))
	for _, re := range c.patterns {
		if re.MatchString(stem) {
			return Individual
		}
	}

	// Short names with at least one digit are accepted as individual
	// papers: early conference eras used no consistent code convention,
	// and the availability probe verifies existence downstream anyway.
	if len(stem) < c.maxStemLen && digitRe.MatchString(stem) {
		return Individual
	}
	return Bulk
}
