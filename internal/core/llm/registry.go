package llm

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/wikisynth/internal/platform/observability"
)

// Registry errors.
var (
	ErrNoProvidersAvailable = errors.New("no LLM providers available")
	ErrAllProvidersFailed   = errors.New("all LLM providers failed")
)

// Registry manages LLM providers with fallback support.
type Registry struct {
	mu              sync.RWMutex
	providers       map[ProviderName]Provider
	order           []ProviderName // Priority order (highest first)
	circuitBreakers map[ProviderName]*CircuitBreaker
	taskConfig      map[TaskType]TaskProviderChain
	modelOverrides  map[TaskType]string // Per-task model overrides from config
	logger          *zerolog.Logger
}

// NewRegistry creates a new provider registry.
func NewRegistry(logger *zerolog.Logger) *Registry {
	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}

	return &Registry{
		providers:       make(map[ProviderName]Provider),
		order:           make([]ProviderName, 0),
		circuitBreakers: make(map[ProviderName]*CircuitBreaker),
		taskConfig:      DefaultTaskConfig(),
		modelOverrides:  make(map[TaskType]string),
		logger:          logger,
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider, cfg CircuitBreakerConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}

	r.providers[name] = p
	r.circuitBreakers[name] = NewCircuitBreaker(name, cfg, r.logger)

	r.sortProvidersByPriority()

	available := MetricValueUnavailable
	if p.IsAvailable() {
		available = MetricValueAvailable
	}

	observability.LLMProviderAvailable.WithLabelValues(string(name)).Set(available)
	observability.LLMCircuitBreakerState.WithLabelValues(string(name)).Set(MetricValueCBClosed)

	r.logger.Info().
		Str(logKeyProvider, string(name)).
		Int("priority", p.Priority()).
		Msg("registered LLM provider")
}

// ProviderCount returns the number of registered providers.
func (r *Registry) ProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.providers)
}

// SetTaskModelOverride sets a model override for a specific task type.
func (r *Registry) SetTaskModelOverride(taskType TaskType, model string) {
	if model == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.modelOverrides[taskType] = model

	r.logger.Debug().
		Str(logKeyTask, string(taskType)).
		Str(logKeyModel, model).
		Msg("set task model override")
}

func (r *Registry) getTaskModelOverride(taskType TaskType) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.modelOverrides[taskType]
}

// Complete implements Client with task-aware fallback.
func (r *Registry) Complete(ctx context.Context, req Request) (Response, error) {
	return r.executeWithTaskFallback(ctx, req, func(p Provider, model string) (Response, error) {
		return p.Complete(ctx, req, model)
	})
}

// Stream implements Client with task-aware fallback. When a provider fails
// mid-stream the next provider starts over, so onDelta may see text twice.
func (r *Registry) Stream(ctx context.Context, req Request, onDelta DeltaFunc) (Response, error) {
	if onDelta == nil {
		onDelta = func(string) {}
	}

	return r.executeWithTaskFallback(ctx, req, func(p Provider, model string) (Response, error) {
		return p.Stream(ctx, req, model, onDelta)
	})
}

// chainFor returns the configured chain for a task followed by every other
// registered provider in priority order.
func (r *Registry) chainFor(taskType TaskType) []ProviderModel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var chain []ProviderModel
	if cfg, ok := r.taskConfig[taskType]; ok {
		chain = cfg.GetProviderChain()
	}

	listed := make(map[ProviderName]bool, len(chain))
	for _, pm := range chain {
		listed[pm.Provider] = true
	}

	for _, name := range r.order {
		if !listed[name] {
			chain = append(chain, ProviderModel{Provider: name})
			listed[name] = true
		}
	}

	return chain
}

// attemptOutcome tells executeWithTaskFallback what happened to one provider.
type attemptOutcome int

const (
	attemptSkipped attemptOutcome = iota
	attemptFailed
	attemptSucceeded
)

func (r *Registry) executeWithTaskFallback(ctx context.Context, req Request, fn func(Provider, string) (Response, error)) (Response, error) {
	chain := r.chainFor(req.Task)
	if len(chain) == 0 {
		return Response{}, ErrNoProvidersAvailable
	}

	override := req.Model
	if override == "" {
		override = r.getTaskModelOverride(req.Task)
	}

	var (
		lastErr     error
		firstFailed ProviderName
	)

	for _, pm := range chain {
		if err := ctx.Err(); err != nil {
			return Response{}, err
		}

		resp, outcome, err := r.attempt(pm, override, req.Task, fn)

		switch outcome {
		case attemptSkipped:
			continue
		case attemptFailed:
			lastErr = err

			if firstFailed == "" {
				firstFailed = pm.Provider
			}

			continue
		case attemptSucceeded:
		}

		if firstFailed != "" {
			observability.LLMFallbacks.WithLabelValues(string(firstFailed), string(pm.Provider), string(req.Task)).Inc()

			r.logger.Info().
				Str(logKeyProvider, string(pm.Provider)).
				Str("from_provider", string(firstFailed)).
				Str(logKeyTask, string(req.Task)).
				Msg("used fallback LLM provider")
		}

		return resp, nil
	}

	if lastErr != nil {
		return Response{}, errors.Join(ErrAllProvidersFailed, lastErr)
	}

	return Response{}, ErrNoProvidersAvailable
}

// attempt runs fn against one provider behind its circuit breaker.
// Unknown, unavailable and open-circuit providers are skipped.
func (r *Registry) attempt(pm ProviderModel, override string, taskType TaskType, fn func(Provider, string) (Response, error)) (Response, attemptOutcome, error) {
	r.mu.RLock()
	p, ok := r.providers[pm.Provider]
	cb := r.circuitBreakers[pm.Provider]
	r.mu.RUnlock()

	if !ok || !p.IsAvailable() {
		return Response{}, attemptSkipped, nil
	}

	if !cb.CanAttempt() {
		r.logger.Debug().Str(logKeyProvider, string(pm.Provider)).Str(logKeyTask, string(taskType)).Msg(logMsgCircuitBreakerOpen)
		return Response{}, attemptSkipped, nil
	}

	model := pm.Model
	if override != "" {
		model = override
	}

	start := time.Now()
	resp, err := cb.Execute(func() (Response, error) { return fn(p, model) })
	elapsed := time.Since(start)

	observability.LLMRequestLatency.WithLabelValues(string(pm.Provider), model, string(taskType)).Observe(elapsed.Seconds())

	if err != nil {
		r.logger.Warn().
			Err(err).
			Str(logKeyProvider, string(pm.Provider)).
			Str(logKeyModel, model).
			Str(logKeyTask, string(taskType)).
			Dur("elapsed", elapsed).
			Msg("LLM provider failed")

		return Response{}, attemptFailed, err
	}

	if resp.Truncated {
		observability.LLMTruncatedOutputs.WithLabelValues(string(pm.Provider), string(taskType)).Inc()
	}

	return resp, attemptSucceeded, nil
}

// sortProvidersByPriority sorts providers by priority in descending order.
func (r *Registry) sortProvidersByPriority() {
	sort.SliceStable(r.order, func(i, j int) bool {
		pi := r.providers[r.order[i]].Priority()
		pj := r.providers[r.order[j]].Priority()

		return pi > pj
	})
}

// ProviderStatus holds status information for a provider.
type ProviderStatus struct {
	Name             ProviderName
	Priority         int
	Available        bool
	CircuitBreakerOK bool
	CircuitState     string
}

// GetProviderStatuses returns status information for all registered providers.
func (r *Registry) GetProviderStatuses() []ProviderStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]ProviderStatus, 0, len(r.order))

	for _, name := range r.order {
		p := r.providers[name]
		cb := r.circuitBreakers[name]

		statuses = append(statuses, ProviderStatus{
			Name:             name,
			Priority:         p.Priority(),
			Available:        p.IsAvailable(),
			CircuitBreakerOK: cb.CanAttempt(),
			CircuitState:     cb.State(),
		})
	}

	return statuses
}

// RecordTokenUsage records token usage and estimated cost metrics for an LLM request.
func RecordTokenUsage(provider, model, task string, promptTokens, completionTokens int, success bool) {
	status := StatusSuccess
	if !success {
		status = StatusError
	}

	observability.LLMRequests.WithLabelValues(provider, model, task, status).Inc()

	if promptTokens > 0 {
		observability.LLMTokensPrompt.WithLabelValues(provider, model, task).Add(float64(promptTokens))
	}

	if completionTokens > 0 {
		observability.LLMTokensCompletion.WithLabelValues(provider, model, task).Add(float64(completionTokens))
	}

	if !success {
		return
	}

	if cost := estimateCost(provider, model, promptTokens, completionTokens); cost > 0 {
		observability.LLMEstimatedCost.WithLabelValues(provider, model, task).Add(cost * usdToMillicents)
	}
}

// Ensure Registry implements Client interface.
var _ Client = (*Registry)(nil)
