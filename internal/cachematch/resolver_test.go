package cachematch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/wikisynth/internal/core/domain"
	"github.com/lueurxax/wikisynth/internal/core/ports/mocks"
)

func newTestResolver(store *mocks.ArticleStore, client *fakeLLM) *Resolver {
	return NewResolver(store, NewMatcher(DefaultThreshold), NewArbiter(client, testMatchConfig(), nil), nil)
}

func TestResolveExactMatch(t *testing.T) {
	store := mocks.NewArticleStore()
	store.Seed("en", "Albert_Einstein", "body")

	client := &fakeLLM{}
	got := newTestResolver(store, client).Resolve(context.Background(), domain.Query{Text: "Albert Einstein", Language: "en"})

	assert.True(t, got.ShouldRedirect)
	require.NotNil(t, got.Target)
	assert.Equal(t, "Albert_Einstein", got.Target.Identifier)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
	assert.Equal(t, "exact match: Albert_Einstein", got.Rationale)
	assert.Equal(t, domain.OutcomeDeterministic, got.Outcome)
	assert.Zero(t, client.calls(), "arbiter must not run after a deterministic match")
}

func TestResolveArbitratedMatch(t *testing.T) {
	store := mocks.NewArticleStore()
	store.Seed("en", "Albert_Einstein", "body")

	client := &fakeLLM{reply: `{"redirect": true, "filename": "Albert_Einstein", "confidence": 0.8, "rationale": "surname only"}`}
	got := newTestResolver(store, client).Resolve(context.Background(), domain.Query{Text: "Einstein", Language: "en"})

	assert.True(t, got.ShouldRedirect)
	require.NotNil(t, got.Target)
	assert.Equal(t, "Albert_Einstein", got.Target.Identifier)
	assert.InDelta(t, 0.8, got.Confidence, 1e-9)
	assert.Equal(t, "surname only", got.Rationale)
	assert.Equal(t, domain.OutcomeArbitrated, got.Outcome)
	assert.Equal(t, 1, client.calls())
}

func TestResolveEmptyPartition(t *testing.T) {
	store := mocks.NewArticleStore()
	store.Seed("de", "Albert_Einstein", "body")

	client := &fakeLLM{}
	got := newTestResolver(store, client).Resolve(context.Background(), domain.Query{Text: "Albert Einstein", Language: "en"})

	assert.False(t, got.ShouldRedirect)
	assert.Nil(t, got.Target)
	assert.InDelta(t, 0.0, got.Confidence, 1e-9)
	assert.Equal(t, "no cached articles available", got.Rationale)
	assert.Equal(t, domain.OutcomeEmpty, got.Outcome)
	assert.Zero(t, client.calls())
}

func TestResolveArbiterFailure(t *testing.T) {
	store := mocks.NewArticleStore()
	store.Seed("en", "Albert_Einstein", "body")

	client := &fakeLLM{err: errUpstream}
	got := newTestResolver(store, client).Resolve(context.Background(), domain.Query{Text: "Einstein", Language: "en"})

	assert.False(t, got.ShouldRedirect)
	assert.Nil(t, got.Target)
	assert.InDelta(t, 0.0, got.Confidence, 1e-9)
	assert.Equal(t, "error processing the request", got.Rationale)
	assert.Equal(t, domain.OutcomeError, got.Outcome)
}

func TestResolveRejectsUnknownFilename(t *testing.T) {
	store := mocks.NewArticleStore()
	store.Seed("en", "Albert_Einstein", "body")

	client := &fakeLLM{reply: `{"redirect": true, "filename": "Einstein_(crater)", "confidence": 0.95}`}
	got := newTestResolver(store, client).Resolve(context.Background(), domain.Query{Text: "Einstein", Language: "en"})

	assert.False(t, got.ShouldRedirect)
	assert.Nil(t, got.Target)
	assert.InDelta(t, 0.0, got.Confidence, 1e-9)
	assert.Equal(t, domain.OutcomeRejected, got.Outcome)
}

func TestResolveNoRedirectHasZeroConfidence(t *testing.T) {
	store := mocks.NewArticleStore()
	store.Seed("en", "Albert_Einstein", "body")

	client := &fakeLLM{reply: `{"redirect": false, "confidence": 0.9, "rationale": "different topic"}`}
	got := newTestResolver(store, client).Resolve(context.Background(), domain.Query{Text: "Photosynthesis", Language: "en"})

	assert.False(t, got.ShouldRedirect)
	assert.InDelta(t, 0.0, got.Confidence, 1e-9)
	assert.Equal(t, "different topic", got.Rationale)
}

func TestResolveListingErrorDegrades(t *testing.T) {
	store := mocks.NewArticleStore()
	store.ListEntriesFn = func(string) ([]domain.CachedEntry, error) {
		return nil, errors.New("disk gone")
	}

	client := &fakeLLM{}
	got := newTestResolver(store, client).Resolve(context.Background(), domain.Query{Text: "Einstein", Language: "en"})

	assert.False(t, got.ShouldRedirect)
	assert.Equal(t, "cached articles unavailable", got.Rationale)
	assert.Equal(t, domain.OutcomeError, got.Outcome)
	assert.Zero(t, client.calls())
}

func TestResolveIsIdempotent(t *testing.T) {
	store := mocks.NewArticleStore()
	store.Seed("en", "Albert_Einstein", "body")
	store.Seed("en", "Quantum_mechanics", "body")

	client := &fakeLLM{reply: `{"redirect": true, "filename": "Albert_Einstein", "confidence": 0.7}`}
	resolver := newTestResolver(store, client)
	query := domain.Query{Text: "Einstein", Language: "en"}

	first := resolver.Resolve(context.Background(), query)
	second := resolver.Resolve(context.Background(), query)

	assert.Equal(t, first, second)
	assert.Zero(t, store.PutCalls.Load(), "resolution must not write to the cache")
}

func TestResolveRedirectAlwaysHasTarget(t *testing.T) {
	replies := []string{
		`{"redirect": true, "filename": "Albert_Einstein", "confidence": 0.6}`,
		`{"redirect": true, "filename": "", "confidence": 0.6}`,
		`{"redirect": true, "confidence": 1}`,
		`{"redirect": false, "filename": "Albert_Einstein"}`,
		`garbage`,
	}

	store := mocks.NewArticleStore()
	store.Seed("en", "Albert_Einstein", "body")

	for _, reply := range replies {
		got := newTestResolver(store, &fakeLLM{reply: reply}).Resolve(context.Background(), domain.Query{Text: "Einstein", Language: "en"})
		if got.ShouldRedirect {
			assert.NotNil(t, got.Target, reply)
		} else {
			assert.Nil(t, got.Target, reply)
		}
	}
}

func TestNewResolverPanicsOnMissingCollaborator(t *testing.T) {
	store := mocks.NewArticleStore()
	arbiter := NewArbiter(&fakeLLM{}, testMatchConfig(), nil)

	assert.Panics(t, func() { NewResolver(nil, NewMatcher(DefaultThreshold), arbiter, nil) })
	assert.Panics(t, func() { NewResolver(store, nil, arbiter, nil) })
	assert.Panics(t, func() { NewResolver(store, NewMatcher(DefaultThreshold), nil, nil) })
}
