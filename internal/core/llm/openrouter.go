package llm

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/lueurxax/wikisynth/internal/platform/config"
)

// OpenRouter API constants.
const (
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"

	// ModelLlama31Instruct is the cheap default OpenRouter model.
	ModelLlama31Instruct = "meta-llama/llama-3.1-8b-instruct"

	defaultOpenRouterModel = ModelLlama31Instruct
)

// NewOpenRouterProvider creates an OpenRouter provider. OpenRouter speaks the
// OpenAI chat completions protocol, so the OpenAI SDK is pointed at its base URL.
func NewOpenRouterProvider(cfg *config.Config, logger *zerolog.Logger) *openaiProvider {
	clientCfg := openai.DefaultConfig(cfg.LLM.OpenRouterAPIKey)
	clientCfg.BaseURL = OpenRouterBaseURL

	defaultModel := cfg.LLM.OpenRouterModel
	if defaultModel == "" {
		defaultModel = defaultOpenRouterModel
	}

	return &openaiProvider{
		name:         ProviderOpenRouter,
		priority:     PriorityThirdFallback,
		apiKey:       cfg.LLM.OpenRouterAPIKey,
		defaultModel: defaultModel,
		client:       openai.NewClientWithConfig(clientCfg),
		logger:       logger,
		rateLimiter:  newRateLimiter(cfg.LLM.RateLimitRPS),
		resolve:      resolveOpenRouterModel,
	}
}

// resolveOpenRouterModel keeps vendor-qualified names ("vendor/model") and maps
// everything else to the default.
func resolveOpenRouterModel(model, fallback string) string {
	if strings.Contains(model, "/") {
		return model
	}

	return fallback
}
