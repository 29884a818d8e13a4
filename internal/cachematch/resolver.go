package cachematch

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lueurxax/wikisynth/internal/core/domain"
	"github.com/lueurxax/wikisynth/internal/core/ports"
	"github.com/lueurxax/wikisynth/internal/platform/observability"
)

const (
	rationaleEmptyCache   = "no cached articles available"
	rationaleCacheFailure = "cached articles unavailable"
)

const (
	logKeyQuery      = "query"
	logKeyLanguage   = "language"
	logKeyRedirect   = "redirect"
	logKeyConfidence = "confidence"
	logKeyTarget     = "target"
	logKeyOutcome    = "outcome"
)

// Resolver decides whether a query should be redirected to a cached article.
// It reads the cache but never writes to it.
type Resolver struct {
	index   ports.ArticleIndex
	matcher *Matcher
	judge   Judge
	logger  *zerolog.Logger
}

// NewResolver wires a Resolver. It panics when a collaborator is missing.
func NewResolver(index ports.ArticleIndex, matcher *Matcher, judge Judge, logger *zerolog.Logger) *Resolver {
	if index == nil || matcher == nil || judge == nil {
		panic("cachematch: NewResolver requires index, matcher and judge")
	}

	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}

	return &Resolver{index: index, matcher: matcher, judge: judge, logger: logger}
}

// Resolve runs the deterministic matcher and, only when it finds nothing, the
// arbiter. It never fails: every problem degrades to a no-redirect Decision.
func (r *Resolver) Resolve(ctx context.Context, query domain.Query) domain.Decision {
	decision := r.resolve(ctx, query)

	observability.CacheMatchDecisions.WithLabelValues(string(decision.Outcome), query.Language).Inc()

	event := r.logger.Info().
		Str(logKeyQuery, query.Text).
		Str(logKeyLanguage, query.Language).
		Str(logKeyOutcome, string(decision.Outcome)).
		Bool(logKeyRedirect, decision.ShouldRedirect).
		Float64(logKeyConfidence, decision.Confidence)
	if decision.Target != nil {
		event = event.Str(logKeyTarget, decision.Target.Identifier)
	}

	event.Msg("cache-match resolved")

	return decision
}

func (r *Resolver) resolve(ctx context.Context, query domain.Query) domain.Decision {
	candidates, err := r.index.ListEntries(query.Language)
	if err != nil {
		r.logger.Warn().Err(err).Str(logKeyLanguage, query.Language).Msg("failed to list cached articles")
		return noRedirect(rationaleCacheFailure, domain.OutcomeError)
	}

	observability.CacheMatchCandidates.Observe(float64(len(candidates)))

	if len(candidates) == 0 {
		return noRedirect(rationaleEmptyCache, domain.OutcomeEmpty)
	}

	if match, ok := r.matcher.Match(query.Text, candidates); ok {
		return redirect(match, domain.OutcomeDeterministic)
	}

	judgment := r.judge.Judge(ctx, query.Text, query.Language, candidates)

	switch {
	case judgment.Err != nil:
		return noRedirect(judgment.Rationale, domain.OutcomeError)
	case judgment.Match == nil:
		return noRedirect(judgment.Rationale, domain.OutcomeRejected)
	default:
		return redirect(*judgment.Match, domain.OutcomeArbitrated)
	}
}

func redirect(match domain.MatchCandidate, outcome domain.Outcome) domain.Decision {
	target := match.Entry

	return domain.Decision{
		ShouldRedirect: true,
		Target:         &target,
		Confidence:     match.Confidence,
		Rationale:      match.Rationale,
		Outcome:        outcome,
	}
}

func noRedirect(rationale string, outcome domain.Outcome) domain.Decision {
	return domain.Decision{
		Confidence: 0.0,
		Rationale:  rationale,
		Outcome:    outcome,
	}
}
