package llm

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lueurxax/wikisynth/internal/platform/config"
)

// Request describes a single prompt sent to a provider.
type Request struct {
	Task   TaskType
	Prompt string
	// Model overrides the task chain model when set.
	Model       string
	MaxTokens   int
	Temperature *float32
	// JSON asks the provider for a JSON object response where supported.
	JSON bool
}

// Response is the text produced for a Request together with usage data.
type Response struct {
	Text             string
	Provider         ProviderName
	Model            string
	PromptTokens     int
	CompletionTokens int
	Truncated        bool
}

type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Stream(ctx context.Context, req Request, onDelta DeltaFunc) (Response, error)
	GetProviderStatuses() []ProviderStatus
}

// Float32 returns a pointer to v, for Request.Temperature.
func Float32(v float32) *float32 {
	return &v
}

func (r Request) maxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}

	return defaultMaxTokens
}

// buildCircuitConfig creates a CircuitBreakerConfig with defaults applied.
func buildCircuitConfig(cfg *config.Config) CircuitBreakerConfig {
	circuitCfg := CircuitBreakerConfig{
		Threshold:  cfg.LLM.CircuitThreshold,
		ResetAfter: cfg.LLM.CircuitTimeout,
	}

	if circuitCfg.Threshold == 0 {
		circuitCfg.Threshold = defaultCircuitThreshold
	}

	if circuitCfg.ResetAfter == 0 {
		circuitCfg.ResetAfter = defaultCircuitTimeout
	}

	return circuitCfg
}

// registerProviders registers all configured LLM providers with the registry.
func registerProviders(ctx context.Context, registry *Registry, cfg *config.Config, logger *zerolog.Logger, circuitCfg CircuitBreakerConfig) {
	if cfg.LLM.APIKey != "" && cfg.LLM.APIKey != llmAPIKeyMock {
		registry.Register(NewOpenAIProvider(cfg, logger), circuitCfg)
	}

	if cfg.LLM.AnthropicAPIKey != "" {
		registry.Register(NewAnthropicProvider(cfg, logger), circuitCfg)
	}

	if cfg.LLM.GoogleAPIKey != "" {
		googleProvider, err := NewGoogleProvider(ctx, cfg, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to create Google LLM provider")
		} else {
			registry.Register(googleProvider, circuitCfg)
		}
	}

	if cfg.LLM.OpenRouterAPIKey != "" {
		registry.Register(NewOpenRouterProvider(cfg, logger), circuitCfg)
	}

	// If no providers configured, use mock
	if registry.ProviderCount() == 0 {
		logger.Warn().Msg("no LLM API keys configured, using mock provider")
		registry.Register(NewMockProvider(), circuitCfg)
	}
}

// New creates a new LLM client with multi-provider fallback support.
// Providers are registered in priority order: OpenAI, Anthropic, Google, OpenRouter.
// If no providers are configured, the registry serves the mock provider.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *Registry {
	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}

	registry := NewRegistry(logger)
	registry.SetTaskModelOverride(TaskTypeTranslate, cfg.LLM.TranslateModel)
	registry.SetTaskModelOverride(TaskTypeSynthesize, cfg.LLM.SynthesizeModel)
	registry.SetTaskModelOverride(TaskTypeLanguageSelect, cfg.LLM.SelectModel)

	registerProviders(ctx, registry, cfg, logger, buildCircuitConfig(cfg))

	return registry
}
