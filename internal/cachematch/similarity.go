// Package cachematch decides whether a lookup should be served by an article
// that is already in the cache. A cheap string-similarity pass runs first and
// an LLM arbiter is consulted only when it finds nothing.
package cachematch

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Normalize maps a title or cache key onto the form used for comparison:
// NFC, case-folded, trimmed, underscores read as spaces, whitespace collapsed.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = folder.String(s)
	s = strings.ReplaceAll(s, "_", " ")

	return strings.Join(strings.Fields(s), " ")
}

// Score returns the similarity ratio of a and b in [0, 1] after normalization.
// It is symmetric and Score(x, x) is 1.
func Score(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	if a == b {
		return 1.0
	}

	if b < a {
		a, b = b, a
	}

	matcher := difflib.NewMatcherWithJunk(splitRunes(a), splitRunes(b), false, nil)

	return matcher.Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}

	return out
}
