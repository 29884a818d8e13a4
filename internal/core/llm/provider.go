package llm

import "context"

// ProviderName identifies an LLM provider.
type ProviderName string

// Provider name constants.
const (
	ProviderOpenAI     ProviderName = "openai"
	ProviderAnthropic  ProviderName = "anthropic"
	ProviderGoogle     ProviderName = "google"
	ProviderOpenRouter ProviderName = "openrouter"
	ProviderMock       ProviderName = "mock"
)

// Priority constants for provider ordering.
const (
	PriorityPrimary        = 100 // Primary provider (OpenAI)
	PriorityFallback       = 50  // First fallback (Anthropic)
	PrioritySecondFallback = 25  // Second fallback (Google)
	PriorityThirdFallback  = 10  // Third fallback (OpenRouter)
	PriorityMock           = 0   // Mock provider for testing
)

// DeltaFunc receives incremental text while a response streams in.
type DeltaFunc func(delta string)

// Provider defines the interface for LLM providers.
type Provider interface {
	// Name returns the provider identifier.
	Name() ProviderName

	// IsAvailable returns true if the provider is configured and available.
	IsAvailable() bool

	// Priority returns the provider priority (higher = preferred).
	Priority() int

	// Complete runs a single non-streaming completion.
	Complete(ctx context.Context, req Request, model string) (Response, error)

	// Stream runs a completion and reports text deltas as they arrive.
	// The returned Response carries the full accumulated text.
	Stream(ctx context.Context, req Request, model string, onDelta DeltaFunc) (Response, error)
}
