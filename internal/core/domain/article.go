package domain

// CachedEntry is one synthesized article stored in the article cache.
type CachedEntry struct {
	// Identifier is the cache key inside a language partition, e.g. "Albert_Einstein".
	Identifier string `json:"identifier"`
	// Location is an opaque handle to the stored body (a file path for the filesystem cache).
	Location string `json:"location"`
}

// Query is a single user lookup against the cache.
type Query struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// MatchCandidate is a proposed redirect target.
type MatchCandidate struct {
	Entry      CachedEntry
	Confidence float64
	Rationale  string
}

// Outcome labels how a Decision was reached.
type Outcome string

const (
	OutcomeEmpty         Outcome = "empty"
	OutcomeDeterministic Outcome = "deterministic"
	OutcomeArbitrated    Outcome = "arbitrated"
	OutcomeRejected      Outcome = "rejected"
	OutcomeError         Outcome = "error"
)

// Decision is the result of resolving a Query against the cache.
// ShouldRedirect is true only when Target is set.
type Decision struct {
	ShouldRedirect bool         `json:"should_redirect"`
	Target         *CachedEntry `json:"target,omitempty"`
	Confidence     float64      `json:"confidence"`
	Rationale      string       `json:"rationale"`
	Outcome        Outcome      `json:"outcome"`
}

// SynthesisSource reports where a synthesis result came from.
type SynthesisSource string

const (
	SourceCache       SynthesisSource = "cache"
	SourceRedirect    SynthesisSource = "redirect"
	SourceSynthesized SynthesisSource = "synthesized"
)

// LangLink is a link from an article to the same topic in another language edition.
type LangLink struct {
	Language string `json:"lang"`
	Title    string `json:"title"`
}
