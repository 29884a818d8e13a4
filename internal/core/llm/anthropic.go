package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/wikisynth/internal/core/errors"
	"github.com/lueurxax/wikisynth/internal/platform/config"
)

// Anthropic model constants.
const (
	ModelClaudeHaiku = "claude-haiku-4-5"

	contentTypeText = "text"
)

// anthropicProvider implements the Provider interface for Anthropic Claude.
type anthropicProvider struct {
	apiKey       string
	defaultModel string
	client       anthropic.Client
	logger       *zerolog.Logger
	rateLimiter  *rate.Limiter
}

// NewAnthropicProvider creates a new Anthropic LLM provider.
func NewAnthropicProvider(cfg *config.Config, logger *zerolog.Logger) *anthropicProvider {
	defaultModel := cfg.LLM.AnthropicModel
	if defaultModel == "" {
		defaultModel = ModelClaudeHaiku
	}

	return &anthropicProvider{
		apiKey:       cfg.LLM.AnthropicAPIKey,
		defaultModel: defaultModel,
		client:       anthropic.NewClient(option.WithAPIKey(cfg.LLM.AnthropicAPIKey)),
		logger:       logger,
		rateLimiter:  newRateLimiter(cfg.LLM.RateLimitRPS),
	}
}

// Name returns the provider identifier.
func (p *anthropicProvider) Name() ProviderName {
	return ProviderAnthropic
}

// IsAvailable returns true if the provider is configured and available.
func (p *anthropicProvider) IsAvailable() bool {
	return p.apiKey != ""
}

// Priority returns the provider priority.
func (p *anthropicProvider) Priority() int {
	return PriorityFallback
}

// resolveModel maps non-Claude model names to the configured Claude model.
func (p *anthropicProvider) resolveModel(model string) string {
	if strings.HasPrefix(model, modelPrefixClaude) {
		return model
	}

	return p.defaultModel
}

func (p *anthropicProvider) buildParams(req Request, model string) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(req.maxTokens()),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}

	if req.Temperature != nil {
		params.Temperature = anthropic.Float(float64(*req.Temperature))
	}

	return params
}

// Complete implements Provider interface.
func (p *anthropicProvider) Complete(ctx context.Context, req Request, model string) (Response, error) {
	model = p.resolveModel(model)

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf(errRateLimiter, err)
	}

	resp, err := p.client.Messages.New(ctx, p.buildParams(req, model))
	if err != nil {
		RecordTokenUsage(string(ProviderAnthropic), model, string(req.Task), 0, 0, false)

		return Response{}, fmt.Errorf(errAnthropicMessages, err)
	}

	return p.finish(resp, req, model)
}

// Stream implements Provider interface.
func (p *anthropicProvider) Stream(ctx context.Context, req Request, model string, onDelta DeltaFunc) (Response, error) {
	model = p.resolveModel(model)

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf(errRateLimiter, err)
	}

	stream := p.client.Messages.NewStreaming(ctx, p.buildParams(req, model))
	defer stream.Close()

	message := anthropic.Message{}

	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			RecordTokenUsage(string(ProviderAnthropic), model, string(req.Task), 0, 0, false)

			return Response{}, fmt.Errorf(errAnthropicStream, err)
		}

		if ev, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if text, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && text.Text != "" {
				onDelta(text.Text)
			}
		}
	}

	if err := stream.Err(); err != nil {
		RecordTokenUsage(string(ProviderAnthropic), model, string(req.Task), 0, 0, false)

		return Response{}, fmt.Errorf(errAnthropicStream, err)
	}

	return p.finish(&message, req, model)
}

func (p *anthropicProvider) finish(msg *anthropic.Message, req Request, model string) (Response, error) {
	promptTokens := int(msg.Usage.InputTokens)
	completionTokens := int(msg.Usage.OutputTokens)

	RecordTokenUsage(string(ProviderAnthropic), model, string(req.Task), promptTokens, completionTokens, true)

	out := Response{
		Text:             strings.TrimSpace(extractTextFromResponse(msg)),
		Provider:         ProviderAnthropic,
		Model:            model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		Truncated:        msg.StopReason == anthropic.StopReasonMaxTokens,
	}

	if out.Text == "" {
		return Response{}, fmt.Errorf("anthropic: %w", apperrors.ErrEmptyResponse)
	}

	if out.Truncated {
		p.logger.Warn().
			Str(logKeyProvider, string(ProviderAnthropic)).
			Str(logKeyModel, model).
			Str(logKeyTask, string(req.Task)).
			Int(logKeyMaxTokens, req.maxTokens()).
			Int(logKeyOutputTokens, completionTokens).
			Msg(logMsgTruncated)
	}

	return out, nil
}

// extractTextFromResponse extracts text content from Anthropic response.
func extractTextFromResponse(resp *anthropic.Message) string {
	var result strings.Builder

	for _, block := range resp.Content {
		if block.Type == contentTypeText {
			result.WriteString(block.Text)
		}
	}

	return result.String()
}

// Ensure anthropicProvider implements Provider interface.
var _ Provider = (*anthropicProvider)(nil)
