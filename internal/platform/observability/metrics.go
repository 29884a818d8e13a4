package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache-match decisions
	CacheMatchDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikisynth_cache_match_decisions_total",
		Help: "Cache-match decisions by outcome",
	}, []string{"outcome", "language"})

	CacheMatchCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wikisynth_cache_match_candidates",
		Help:    "Number of cached entries considered per decision",
		Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
	})

	CacheMatchArbitrationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wikisynth_cache_match_arbitration_duration_seconds",
		Help:    "Duration of LLM arbitration calls",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
	})

	// LLM token usage metrics
	LLMTokensPrompt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikisynth_llm_tokens_prompt_total",
		Help: "Total number of prompt tokens used",
	}, []string{"provider", "model", "task"})

	LLMTokensCompletion = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikisynth_llm_tokens_completion_total",
		Help: "Total number of completion tokens used",
	}, []string{"provider", "model", "task"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikisynth_llm_requests_total",
		Help: "Total number of LLM requests",
	}, []string{"provider", "model", "task", "status"})

	// LLM fallback and circuit breaker metrics
	LLMFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikisynth_llm_fallbacks_total",
		Help: "Total number of LLM fallback events",
	}, []string{"from_provider", "to_provider", "task"})

	LLMCircuitBreakerOpens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikisynth_llm_circuit_breaker_opens_total",
		Help: "Total number of times LLM circuit breaker opened",
	}, []string{"provider"})

	LLMCircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wikisynth_llm_circuit_breaker_state",
		Help: "Current state of LLM circuit breaker (0=closed, 1=open, 2=half-open)",
	}, []string{"provider"})

	LLMRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wikisynth_llm_request_latency_seconds",
		Help:    "Latency of LLM requests by provider and task",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
	}, []string{"provider", "model", "task"})

	// LLM estimated costs (in millicents to avoid floating point issues)
	LLMEstimatedCost = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikisynth_llm_estimated_cost_millicents_total",
		Help: "Estimated LLM cost in millicents (0.001 cents)",
	}, []string{"provider", "model", "task"})

	LLMProviderAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wikisynth_llm_provider_available",
		Help: "Whether LLM provider is currently available (0=no, 1=yes)",
	}, []string{"provider"})

	LLMTruncatedOutputs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikisynth_llm_truncated_outputs_total",
		Help: "LLM responses cut off by the max token limit",
	}, []string{"provider", "task"})

	// MediaWiki retrieval
	WikiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikisynth_wiki_requests_total",
		Help: "MediaWiki API requests by action and status",
	}, []string{"action", "status"})

	WikiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wikisynth_wiki_request_duration_seconds",
		Help:    "Duration of MediaWiki API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})

	// Synthesis pipeline
	PipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikisynth_pipeline_runs_total",
		Help: "Synthesis runs by result source",
	}, []string{"source"})

	PipelineRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wikisynth_pipeline_run_duration_seconds",
		Help:    "Duration of synthesis runs",
		Buckets: []float64{0.01, 0.1, 1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"source"})

	TranslationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikisynth_translation_failures_total",
		Help: "Translations dropped from a synthesis run",
	}, []string{"language"})

	LanguageSelectionFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wikisynth_language_selection_fallbacks_total",
		Help: "Times language selection fell back to alphabetical order",
	})

	// Article cache
	CacheEntriesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikisynth_cache_entries_written_total",
		Help: "Articles written to the cache",
	}, []string{"language"})
)
