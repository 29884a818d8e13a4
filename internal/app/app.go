// Package app wires the wikisynth dependencies together.
//
// The App type owns the article cache, the MediaWiki client, the LLM
// registry, the cache-match resolver and the synthesis pipeline, and exposes
// the operations the command line and the HTTP server need:
//
//   - Synthesize: produce (or reuse) an article for a title and language
//   - Resolve: decide whether a query is already covered by a cached article
//   - Serve: run the health, metrics and article API server
package app

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/lueurxax/wikisynth/internal/cachematch"
	"github.com/lueurxax/wikisynth/internal/core/domain"
	"github.com/lueurxax/wikisynth/internal/core/llm"
	"github.com/lueurxax/wikisynth/internal/core/wikipedia"
	"github.com/lueurxax/wikisynth/internal/platform/config"
	"github.com/lueurxax/wikisynth/internal/platform/observability"
	"github.com/lueurxax/wikisynth/internal/storage"
	"github.com/lueurxax/wikisynth/internal/synth"
)

// App holds the application dependencies.
type App struct {
	cfg      *config.Config
	store    *storage.Store
	llm      llm.Client
	resolver *cachematch.Resolver
	pipeline *synth.Pipeline
	logger   *zerolog.Logger
}

// New builds the application on top of fs. Production passes afero.NewOsFs().
func New(ctx context.Context, cfg *config.Config, fs afero.Fs, logger *zerolog.Logger) *App {
	return NewWithLLM(cfg, fs, llm.New(ctx, cfg, logger), logger)
}

// NewWithLLM builds the application around an existing LLM client.
func NewWithLLM(cfg *config.Config, fs afero.Fs, client llm.Client, logger *zerolog.Logger) *App {
	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}

	store := storage.New(fs, cfg.Cache, logger)

	wiki := wikipedia.New(wikipedia.Config{
		BaseURLTemplate: cfg.Wiki.BaseURLTemplate,
		UserAgent:       cfg.Wiki.UserAgent,
		RPS:             cfg.Wiki.RPS,
		Timeout:         cfg.Wiki.Timeout,
		PageSize:        cfg.Wiki.PageSize,
		MaxRetries:      cfg.Wiki.MaxRetries,
		SearchLimit:     cfg.Wiki.SearchLimit,
	}, logger)

	resolver := cachematch.NewResolver(
		store,
		cachematch.NewMatcher(cfg.Match.SimilarityThreshold),
		cachematch.NewArbiter(client, cfg.Match, logger),
		logger,
	)

	return &App{
		cfg:      cfg,
		store:    store,
		llm:      client,
		resolver: resolver,
		pipeline: synth.NewPipeline(store, wiki, resolver, client, cfg.Synthesis, cfg.Match.Enabled, logger),
		logger:   logger,
	}
}

// Synthesize runs one synthesis request.
func (a *App) Synthesize(ctx context.Context, req synth.Request) (synth.Result, error) {
	return a.pipeline.Run(ctx, req)
}

// Resolve matches a query against the cached articles of its language.
func (a *App) Resolve(ctx context.Context, query domain.Query) domain.Decision {
	return a.resolver.Resolve(ctx, query)
}

// ProviderStatuses reports the registered LLM providers.
func (a *App) ProviderStatuses() []llm.ProviderStatus {
	return a.llm.GetProviderStatuses()
}

// Serve runs the HTTP server until ctx is canceled.
func (a *App) Serve(ctx context.Context) error {
	if err := a.store.Ready(); err != nil {
		return err
	}

	return observability.NewServer(a.store, a.store, a.resolver, a.cfg.HTTPPort, a.logger).Start(ctx)
}
