package observability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lueurxax/wikisynth/internal/core/domain"
	apperrors "github.com/lueurxax/wikisynth/internal/core/errors"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second

	contentTypeJSON     = "application/json"
	contentTypeMarkdown = "text/markdown; charset=utf-8"
	headerContentType   = "Content-Type"

	msgOK = "OK"
)

// ReadinessChecker reports whether the article cache can be used.
type ReadinessChecker interface {
	Ready() error
}

// ArticleGetter reads cached articles.
type ArticleGetter interface {
	Get(ctx context.Context, language, title string) (string, error)
}

// QueryResolver resolves a title against cached articles.
type QueryResolver interface {
	Resolve(ctx context.Context, query domain.Query) domain.Decision
}

// Server serves health probes, metrics and the read-only article API.
type Server struct {
	ready    ReadinessChecker
	articles ArticleGetter
	resolver QueryResolver
	port     int
	logger   *zerolog.Logger
}

// NewServer creates a Server. resolver may be nil, in which case
// /api/resolve answers 404.
func NewServer(ready ReadinessChecker, articles ArticleGetter, resolver QueryResolver, port int, logger *zerolog.Logger) *Server {
	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}

	return &Server{
		ready:    ready,
		articles: articles,
		resolver: resolver,
		port:     port,
		logger:   logger,
	}
}

// Handler returns the server routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, msgOK)
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		if err := s.ready.Ready(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprintf(w, "cache error: %v", err)

			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, msgOK)
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	if s.resolver != nil {
		mux.HandleFunc("GET /api/resolve", s.handleResolve)
	}

	mux.HandleFunc("GET /api/articles/{lang}/{title...}", s.handleArticle)

	return mux
}

// Start serves until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(s.port)),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)

		defer cancel()

		//nolint:errcheck,contextcheck // shutdown on cancel is best-effort, non-inherited context intentional
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Int("port", s.port).Msg("HTTP server starting")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := domain.Query{Text: q.Get("q"), Language: q.Get("lang")}
	if query.Text == "" || query.Language == "" {
		http.Error(w, "q and lang are required", http.StatusBadRequest)
		return
	}

	decision := s.resolver.Resolve(r.Context(), query)

	w.Header().Set(headerContentType, contentTypeJSON)

	if err := json.NewEncoder(w).Encode(decision); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write resolve response")
	}
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	lang := r.PathValue("lang")
	title := r.PathValue("title")

	body, err := s.articles.Get(r.Context(), lang, title)
	if err != nil {
		if errors.Is(err, apperrors.ErrCacheNotFound) || errors.Is(err, apperrors.ErrInvalidInput) ||
			errors.Is(err, apperrors.ErrInvalidLanguage) {
			http.NotFound(w, r)
			return
		}

		s.logger.Error().Err(err).Str("language", lang).Str("title", title).Msg("failed to read article")
		http.Error(w, "failed to read article", http.StatusInternalServerError)

		return
	}

	w.Header().Set(headerContentType, contentTypeMarkdown)
	_, _ = fmt.Fprint(w, body)
}
