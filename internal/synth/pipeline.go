// Package synth builds one article out of several Wikipedia language editions.
//
// A run checks the article cache, optionally redirects to a close cached
// article, and otherwise fetches the source article, lets a model pick the
// most useful other editions, translates them in parallel and streams a
// synthesized article that is then written to the cache.
package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/wikisynth/internal/core/domain"
	apperrors "github.com/lueurxax/wikisynth/internal/core/errors"
	"github.com/lueurxax/wikisynth/internal/core/llm"
	"github.com/lueurxax/wikisynth/internal/core/ports"
	"github.com/lueurxax/wikisynth/internal/core/wikipedia"
	"github.com/lueurxax/wikisynth/internal/platform/config"
	"github.com/lueurxax/wikisynth/internal/platform/observability"
)

const (
	logKeyRunID     = "run_id"
	logKeyTitle     = "title"
	logKeyLanguage  = "language"
	logKeySource    = "source"
	logKeyLanguages = "languages"
	logKeyTarget    = "target"
	logKeyDuration  = "duration"

	defaultMaxTranslations = 5
	defaultWorkers         = 10
	defaultMaxArticleChars = 128000

	errFmtWrap = "%s: %w"
)

// ArticleSource retrieves Wikipedia articles.
type ArticleSource interface {
	FetchArticle(ctx context.Context, title, language string) (wikipedia.Article, error)
	FindTitle(ctx context.Context, query, language string) (string, error)
}

// MatchResolver decides whether a title is already covered by a cached article.
type MatchResolver interface {
	Resolve(ctx context.Context, query domain.Query) domain.Decision
}

// Request is one synthesis run.
type Request struct {
	Title           string
	Language        string
	MaxTranslations int
	// NoCache skips both the cache lookup and the redirect check.
	NoCache bool
	// OnDelta receives synthesized text as it streams in.
	OnDelta llm.DeltaFunc
}

// Result is the article produced or found by a run.
type Result struct {
	RunID    string
	Title    string
	Language string
	Body     string
	Source   domain.SynthesisSource
	Entry    domain.CachedEntry
	Decision *domain.Decision
	// Languages lists the editions that went into a synthesized article.
	Languages []string
}

// Pipeline runs synthesis requests.
type Pipeline struct {
	store    ports.ArticleStore
	source   ArticleSource
	resolver MatchResolver
	llm      llm.Client
	cfg      config.SynthesisConfig
	fuzzy    bool
	logger   *zerolog.Logger
}

// NewPipeline creates a Pipeline. resolver may be nil, which disables redirects.
func NewPipeline(store ports.ArticleStore, source ArticleSource, resolver MatchResolver, client llm.Client, cfg config.SynthesisConfig, fuzzy bool, logger *zerolog.Logger) *Pipeline {
	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}

	if cfg.MaxTranslations <= 0 {
		cfg.MaxTranslations = defaultMaxTranslations
	}

	if cfg.TranslationWorkers <= 0 {
		cfg.TranslationWorkers = defaultWorkers
	}

	if cfg.MaxArticleChars <= 0 {
		cfg.MaxArticleChars = defaultMaxArticleChars
	}

	return &Pipeline{
		store:    store,
		source:   source,
		resolver: resolver,
		llm:      client,
		cfg:      cfg,
		fuzzy:    fuzzy && resolver != nil,
		logger:   logger,
	}
}

// Run executes one synthesis request.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return Result{}, fmt.Errorf("%w: empty title", apperrors.ErrInvalidInput)
	}

	if !wikipedia.ValidLanguage(req.Language) {
		return Result{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidLanguage, req.Language)
	}

	if req.MaxTranslations <= 0 {
		req.MaxTranslations = p.cfg.MaxTranslations
	}

	runID := uuid.NewString()
	logger := p.logger.With().Str(logKeyRunID, runID).Str(logKeyTitle, req.Title).Str(logKeyLanguage, req.Language).Logger()
	start := time.Now()

	result, err := p.run(ctx, req, &logger)
	result.RunID = runID

	label := string(result.Source)
	if err != nil {
		label = "error"
	}

	observability.PipelineRuns.WithLabelValues(label).Inc()
	observability.PipelineRunDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Error().Err(err).Dur(logKeyDuration, time.Since(start)).Msg("synthesis run failed")
		return result, err
	}

	logger.Info().Str(logKeySource, label).Dur(logKeyDuration, time.Since(start)).Msg("synthesis run finished")

	return result, nil
}

func (p *Pipeline) run(ctx context.Context, req Request, logger *zerolog.Logger) (Result, error) {
	if !req.NoCache {
		if result, ok := p.fromCache(ctx, req, logger); ok {
			return result, nil
		}

		if result, ok := p.fromRedirect(ctx, req, logger); ok {
			return result, nil
		}
	}

	unlock, err := p.store.Lock(ctx, req.Language, req.Title)
	if err != nil {
		return Result{}, fmt.Errorf(errFmtWrap, "lock article", err)
	}

	defer func() {
		if err := unlock(); err != nil {
			logger.Warn().Err(err).Msg("failed to release article lock")
		}
	}()

	// Another process may have finished the same article while we waited.
	if !req.NoCache {
		if result, ok := p.fromCache(ctx, req, logger); ok {
			return result, nil
		}
	}

	return p.synthesize(ctx, req, logger)
}

func (p *Pipeline) fromCache(ctx context.Context, req Request, logger *zerolog.Logger) (Result, bool) {
	body, err := p.store.Get(ctx, req.Language, req.Title)
	if err != nil {
		if !errors.Is(err, apperrors.ErrCacheNotFound) {
			logger.Warn().Err(err).Msg("cache lookup failed")
		}

		return Result{}, false
	}

	logger.Info().Msg("cache hit")

	return Result{Title: req.Title, Language: req.Language, Body: body, Source: domain.SourceCache}, true
}

func (p *Pipeline) fromRedirect(ctx context.Context, req Request, logger *zerolog.Logger) (Result, bool) {
	if !p.fuzzy {
		return Result{}, false
	}

	decision := p.resolver.Resolve(ctx, domain.Query{Text: req.Title, Language: req.Language})
	if !decision.ShouldRedirect || decision.Target == nil {
		return Result{}, false
	}

	body, err := p.store.Read(ctx, *decision.Target)
	if err != nil {
		logger.Warn().Err(err).Str(logKeyTarget, decision.Target.Identifier).Msg("redirect target unreadable")
		return Result{}, false
	}

	logger.Info().Str(logKeyTarget, decision.Target.Identifier).Msg("redirecting to cached article")

	return Result{
		Title:    decision.Target.Identifier,
		Language: req.Language,
		Body:     body,
		Source:   domain.SourceRedirect,
		Entry:    *decision.Target,
		Decision: &decision,
	}, true
}

func (p *Pipeline) synthesize(ctx context.Context, req Request, logger *zerolog.Logger) (Result, error) {
	source, err := p.fetchSource(ctx, req.Title, req.Language, logger)
	if err != nil {
		return Result{}, err
	}

	logger.Info().Int("language_links", len(source.LangLinks)).Msg("source article retrieved")

	selected := p.SelectLanguages(ctx, req.Title, req.Language, source.LangLinks, req.MaxTranslations)
	logger.Info().Strs(logKeyLanguages, selected).Msg("languages selected")

	editions := p.fetchEditions(ctx, selected, source.LangLinks, logger)

	versions := p.translateAll(ctx, editions, req.Language, logger)
	versions[req.Language] = source.Text

	body, err := p.synthesizeVersions(ctx, req.Title, req.Language, versions, req.OnDelta)
	if err != nil {
		return Result{}, err
	}

	entry, err := p.store.Put(ctx, req.Language, req.Title, body)
	if err != nil {
		return Result{}, fmt.Errorf(errFmtWrap, "save article", err)
	}

	return Result{
		Title:     req.Title,
		Language:  req.Language,
		Body:      body,
		Source:    domain.SourceSynthesized,
		Entry:     entry,
		Languages: sortedKeys(versions),
	}, nil
}

// fetchSource fetches the requested article, falling back to the closest
// suggested title when the exact one does not exist.
func (p *Pipeline) fetchSource(ctx context.Context, title, language string, logger *zerolog.Logger) (wikipedia.Article, error) {
	article, err := p.source.FetchArticle(ctx, title, language)
	if errors.Is(err, apperrors.ErrArticleNotFound) {
		suggested, findErr := p.source.FindTitle(ctx, title, language)
		if findErr == nil && suggested != "" && suggested != title {
			logger.Info().Str("suggested_title", suggested).Msg("using suggested title")
			article, err = p.source.FetchArticle(ctx, suggested, language)
		}
	}

	if err != nil {
		return wikipedia.Article{}, fmt.Errorf(errFmtWrap, "fetch source article", err)
	}

	if strings.TrimSpace(article.Text) == "" {
		return wikipedia.Article{}, fmt.Errorf("%w: %s:%s", apperrors.ErrArticleNotFound, language, title)
	}

	if len(article.LangLinks) == 0 {
		return wikipedia.Article{}, fmt.Errorf("%w: %w", apperrors.ErrArticleNotFound, apperrors.ErrNoLanguageLinks)
	}

	return article, nil
}

// fetchEditions retrieves the selected editions one after another. Editions
// that cannot be fetched are left out.
func (p *Pipeline) fetchEditions(ctx context.Context, languages []string, links []domain.LangLink, logger *zerolog.Logger) map[string]string {
	titles := make(map[string]string, len(links))
	for _, l := range links {
		titles[l.Language] = l.Title
	}

	editions := make(map[string]string, len(languages))

	for _, lang := range languages {
		article, err := p.source.FetchArticle(ctx, titles[lang], lang)
		if err != nil || strings.TrimSpace(article.Text) == "" {
			logger.Warn().Err(err).Str(logKeyLanguage, lang).Msg("edition not retrieved")
			observability.TranslationFailures.WithLabelValues(lang).Inc()

			continue
		}

		editions[lang] = article.Text
	}

	return editions
}

func (p *Pipeline) synthesizeVersions(ctx context.Context, title, language string, versions map[string]string, onDelta llm.DeltaFunc) (string, error) {
	trimmed := make(map[string]string, len(versions))
	for lang, text := range versions {
		trimmed[lang] = truncateRunes(text, p.cfg.MaxArticleChars)
	}

	resp, err := p.llm.Stream(ctx, llm.Request{
		Task:      llm.TaskTypeSynthesize,
		Prompt:    llm.BuildSynthesisPrompt(title, language, trimmed),
		MaxTokens: p.cfg.SynthesisMaxTokens,
	}, onDelta)
	if err != nil {
		return "", fmt.Errorf(errFmtWrap, "synthesize", err)
	}

	body := strings.TrimSpace(resp.Text)
	if body == "" {
		return "", fmt.Errorf("synthesize: %w", apperrors.ErrEmptyResponse)
	}

	return body, nil
}
