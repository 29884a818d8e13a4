package cachematch

import (
	"fmt"

	"github.com/lueurxax/wikisynth/internal/core/domain"
)

// DefaultThreshold is the similarity a candidate must exceed to match without arbitration.
const DefaultThreshold = 0.95

const (
	rationaleExactFmt     = "exact match: %s"
	rationaleNearExactFmt = "near-exact match: %s"
)

// Matcher finds exact and near-exact candidates without calling a model.
type Matcher struct {
	threshold float64
	score     func(a, b string) float64
}

// NewMatcher creates a Matcher. A threshold outside (0, 1] falls back to DefaultThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}

	return &Matcher{threshold: threshold, score: Score}
}

// Threshold returns the configured similarity threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match walks candidates in order. A candidate whose identifier equals query
// after normalization is returned at once; otherwise the first one scoring
// strictly above the threshold wins. Both carry confidence 1.0.
func (m *Matcher) Match(query string, candidates []domain.CachedEntry) (domain.MatchCandidate, bool) {
	if len(candidates) == 0 {
		return domain.MatchCandidate{}, false
	}

	normalized := Normalize(query)

	for _, entry := range candidates {
		if Normalize(entry.Identifier) == normalized {
			return domain.MatchCandidate{
				Entry:      entry,
				Confidence: 1.0,
				Rationale:  fmt.Sprintf(rationaleExactFmt, entry.Identifier),
			}, true
		}

		if m.score(query, entry.Identifier) > m.threshold {
			return domain.MatchCandidate{
				Entry:      entry,
				Confidence: 1.0,
				Rationale:  fmt.Sprintf(rationaleNearExactFmt, entry.Identifier),
			}, true
		}
	}

	return domain.MatchCandidate{}, false
}
