package llm

import "time"

// Error message templates
const (
	errRateLimiter           = "rate limiter error: %w"
	errOpenAIChatCompletion  = "openai chat completion error: %w"
	errOpenAIStream          = "openai chat stream error: %w"
	errAnthropicMessages     = "anthropic messages error: %w"
	errAnthropicStream       = "anthropic messages stream error: %w"
	errGoogleGenAICompletion = "google genai completion: %w"
	errGoogleGenAIStream     = "google genai stream: %w"
)

// Model mapping strings
const (
	modelPrefixGPT4   = "gpt-4"
	modelPrefixGPT5   = "gpt-5"
	modelPrefixNano   = "nano"
	modelPrefixMini   = "mini"
	modelPrefixO      = "o"
	modelPrefixClaude = "claude"
	modelPrefixGemini = "gemini"
	llmAPIKeyMock     = "mock"
)

// Log message strings
const (
	logMsgCircuitBreakerOpen = "skipping provider - circuit breaker open"
	logMsgTruncated          = "LLM output truncated due to max_tokens limit"
)

// Log key strings
const (
	logKeyProvider     = "provider"
	logKeyTask         = "task"
	logKeyModel        = "model"
	logKeyMaxTokens    = "max_tokens"
	logKeyOutputTokens = "output_tokens"
)

// Numeric constants
const (
	rateLimiterBurst = 5
	defaultMaxTokens = 4096
)

// Circuit breaker defaults
const (
	defaultCircuitThreshold = 5
	defaultCircuitTimeout   = time.Minute
)

// Cost conversion
const (
	usdToMillicents = 100000.0 // 1 USD = 100,000 millicents
)

// Request status for metrics.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metric gauge values.
const (
	MetricValueAvailable   = 1.0
	MetricValueUnavailable = 0.0
	MetricValueCBClosed    = 0.0
	MetricValueCBOpen      = 1.0
	MetricValueCBHalfOpen  = 2.0
)
