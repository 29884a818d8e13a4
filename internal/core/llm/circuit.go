package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	apperrors "github.com/lueurxax/wikisynth/internal/core/errors"
	"github.com/lueurxax/wikisynth/internal/platform/observability"
)

// CircuitBreakerConfig configures the per-provider circuit breaker.
type CircuitBreakerConfig struct {
	Threshold  int
	ResetAfter time.Duration
}

// CircuitBreaker guards calls to a single provider.
type CircuitBreaker struct {
	cb       *gobreaker.CircuitBreaker
	provider ProviderName
}

// NewCircuitBreaker creates a circuit breaker that opens after Threshold consecutive failures
// and half-opens after ResetAfter.
func NewCircuitBreaker(provider ProviderName, cfg CircuitBreakerConfig, logger *zerolog.Logger) *CircuitBreaker {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = defaultCircuitThreshold
	}

	settings := gobreaker.Settings{
		Name:    string(provider),
		Timeout: cfg.ResetAfter,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold) //nolint:gosec // threshold is positive
		},
		// Caller cancellation says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.LLMCircuitBreakerState.WithLabelValues(name).Set(stateGauge(to))

			if to == gobreaker.StateOpen {
				observability.LLMCircuitBreakerOpens.WithLabelValues(name).Inc()
				observability.LLMProviderAvailable.WithLabelValues(name).Set(MetricValueUnavailable)
			}

			if to == gobreaker.StateClosed {
				observability.LLMProviderAvailable.WithLabelValues(name).Set(MetricValueAvailable)
			}

			if logger != nil {
				logger.Warn().
					Str(logKeyProvider, name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("LLM circuit breaker state changed")
			}
		},
	}

	return &CircuitBreaker{
		cb:       gobreaker.NewCircuitBreaker(settings),
		provider: provider,
	}
}

// CanAttempt returns true if the circuit allows an attempt.
func (c *CircuitBreaker) CanAttempt() bool {
	return c.cb.State() != gobreaker.StateOpen
}

// State returns the current breaker state name.
func (c *CircuitBreaker) State() string {
	return c.cb.State().String()
}

// Execute runs fn through the breaker. Rejections caused by an open breaker
// are reported as apperrors.ErrCircuitBreakerOpen.
func (c *CircuitBreaker) Execute(fn func() (Response, error)) (Response, error) {
	out, err := c.cb.Execute(func() (interface{}, error) {
		return fn()
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Response{}, fmt.Errorf("%w: %s", apperrors.ErrCircuitBreakerOpen, c.provider)
	}

	resp, _ := out.(Response) //nolint:errcheck // nil on failure

	return resp, err
}

func stateGauge(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return MetricValueCBOpen
	case gobreaker.StateHalfOpen:
		return MetricValueCBHalfOpen
	default:
		return MetricValueCBClosed
	}
}
