package cachematch

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/wikisynth/internal/core/domain"
	apperrors "github.com/lueurxax/wikisynth/internal/core/errors"
	"github.com/lueurxax/wikisynth/internal/core/llm"
	"github.com/lueurxax/wikisynth/internal/platform/config"
	"github.com/lueurxax/wikisynth/internal/platform/observability"
)

const (
	defaultArbiterTimeout     = 30 * time.Second
	defaultArbiterMaxTokens   = 1000
	defaultArbiterTemperature = 0.2

	rationaleServiceError = "error processing the request"
	rationaleNoMatch      = "no suitable cached article"
	rationaleUnknownFmt   = "suggested article is not cached: %s"

	errFmtMalformed = "%w: %s"
)

const (
	promptQueryPlaceholder    = "{{QUERY}}"
	promptLanguagePlaceholder = "{{LANGUAGE}}"
	promptArticlesPlaceholder = "{{CACHED_ARTICLES}}"
)

const judgmentPrompt = `I need your help determining if a user's search query is similar enough to existing cached articles that we should redirect to one of them, rather than creating a new article.

User search query: "{{QUERY}}"
Language: {{LANGUAGE}}

Existing cached articles in this language:
{{CACHED_ARTICLES}}

Please determine if any of these cached articles are similar enough to the user's query that we should redirect to it instead of creating a new article. Consider:
1. If the query is a slight misspelling of an existing article
2. If the query is a synonym or alternative form of an existing article
3. If the query is a more or less specific version of an existing article (e.g. "Albert Einstein" vs "Einstein")
4. If the query is a related concept that would be fully covered by an existing article

Format your response as a JSON object like this:
{
  "redirect": true or false,
  "filename": "exact name of the file to redirect to, if any",
  "confidence": 0-1 score of how confident you are in this match,
  "rationale": "brief explanation of your decision"
}

Be relatively conservative in your matching - only suggest a redirect if you're confident the existing article would satisfy the user's query. We prefer to create new articles when in doubt.`

// Judgment is the arbiter's verdict. Match is nil when no redirect should happen.
// Err is set when the verdict was degraded because of a service or parse failure.
type Judgment struct {
	Match      *domain.MatchCandidate
	Confidence float64
	Rationale  string
	Err        error
}

// Judge decides between ambiguous candidates.
type Judge interface {
	Judge(ctx context.Context, query, language string, candidates []domain.CachedEntry) Judgment
}

// Arbiter asks an LLM whether a query is covered by one of the cached articles.
type Arbiter struct {
	client      llm.Client
	model       string
	timeout     time.Duration
	maxTokens   int
	temperature float32
	logger      *zerolog.Logger
}

var _ Judge = (*Arbiter)(nil)

// NewArbiter creates an Arbiter from the match settings.
func NewArbiter(client llm.Client, cfg config.MatchConfig, logger *zerolog.Logger) *Arbiter {
	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}

	a := &Arbiter{
		client:      client,
		model:       cfg.Model,
		timeout:     cfg.Timeout,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      logger,
	}

	if a.timeout <= 0 {
		a.timeout = defaultArbiterTimeout
	}

	if a.maxTokens <= 0 {
		a.maxTokens = defaultArbiterMaxTokens
	}

	if a.temperature <= 0 {
		a.temperature = defaultArbiterTemperature
	}

	return a
}

// Judge never returns an error: completion and parse failures degrade to a
// no-redirect Judgment carrying the failure in Err.
func (a *Arbiter) Judge(ctx context.Context, query, language string, candidates []domain.CachedEntry) Judgment {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()

	resp, err := a.client.Complete(ctx, llm.Request{
		Task:        llm.TaskTypeCacheMatch,
		Prompt:      BuildJudgmentPrompt(query, language, candidates),
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Temperature: llm.Float32(a.temperature),
		JSON:        true,
	})

	observability.CacheMatchArbitrationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		a.logger.Warn().Err(err).Str(logKeyQuery, query).Str(logKeyLanguage, language).Msg("cache-match arbitration failed")
		return failedJudgment(err)
	}

	judgment, err := parseJudgment(resp.Text, candidates)
	if err != nil {
		a.logger.Warn().Err(err).Str(logKeyQuery, query).Msg("cache-match arbitration returned malformed output")
		return failedJudgment(err)
	}

	a.logger.Debug().
		Str(logKeyQuery, query).
		Bool(logKeyRedirect, judgment.Match != nil).
		Float64(logKeyConfidence, judgment.Confidence).
		Msg("cache-match arbitration done")

	return judgment
}

// BuildJudgmentPrompt renders the arbitration prompt with a 1-indexed candidate list.
func BuildJudgmentPrompt(query, language string, candidates []domain.CachedEntry) string {
	var list strings.Builder

	for i, c := range candidates {
		fmt.Fprintf(&list, "%d. %s\n", i+1, c.Identifier)
	}

	return strings.NewReplacer(
		promptQueryPlaceholder, query,
		promptLanguagePlaceholder, language,
		promptArticlesPlaceholder, strings.TrimRight(list.String(), "\n"),
	).Replace(judgmentPrompt)
}

type rawJudgment struct {
	Redirect   json.RawMessage `json:"redirect"`
	Filename   string          `json:"filename"`
	Confidence json.RawMessage `json:"confidence"`
	Rationale  string          `json:"rationale"`
}

// parseJudgment reads the model reply. A redirect naming a file outside
// candidates is turned into a no-match.
func parseJudgment(text string, candidates []domain.CachedEntry) (Judgment, error) {
	object, ok := llm.ExtractJSONObject(text)
	if !ok {
		return Judgment{}, fmt.Errorf(errFmtMalformed, apperrors.ErrMalformedResponse, "no JSON object in reply")
	}

	var raw rawJudgment
	if err := json.Unmarshal([]byte(object), &raw); err != nil {
		return Judgment{}, fmt.Errorf(errFmtMalformed, apperrors.ErrMalformedResponse, err.Error())
	}

	rationale := strings.TrimSpace(raw.Rationale)

	if !parseRedirect(raw.Redirect) {
		if rationale == "" {
			rationale = rationaleNoMatch
		}

		return Judgment{Rationale: rationale}, nil
	}

	entry, found := findCandidate(raw.Filename, candidates)
	if !found {
		return Judgment{Rationale: fmt.Sprintf(rationaleUnknownFmt, raw.Filename)}, nil
	}

	confidence := parseConfidence(raw.Confidence)

	return Judgment{
		Match: &domain.MatchCandidate{
			Entry:      entry,
			Confidence: confidence,
			Rationale:  rationale,
		},
		Confidence: confidence,
		Rationale:  rationale,
	}, nil
}

func failedJudgment(err error) Judgment {
	return Judgment{Rationale: rationaleServiceError, Err: err}
}

func parseRedirect(raw json.RawMessage) bool {
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}

	return v
}

func parseConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}

		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}

		value = parsed
	}

	return clamp01(value)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func findCandidate(filename string, candidates []domain.CachedEntry) (domain.CachedEntry, bool) {
	name := strings.TrimSpace(filename)
	if name == "" {
		return domain.CachedEntry{}, false
	}

	for _, c := range candidates {
		if strings.EqualFold(c.Identifier, name) {
			return c, true
		}
	}

	return domain.CachedEntry{}, false
}
