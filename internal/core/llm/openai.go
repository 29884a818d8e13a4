package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/wikisynth/internal/core/errors"
	"github.com/lueurxax/wikisynth/internal/platform/config"
)

// OpenAI model constants.
const (
	ModelGPT4oMini = "gpt-4o-mini"

	defaultOpenAIModel = ModelGPT4oMini
)

// openaiProvider implements Provider for OpenAI and OpenAI-compatible chat APIs.
type openaiProvider struct {
	name         ProviderName
	priority     int
	apiKey       string
	defaultModel string
	client       *openai.Client
	logger       *zerolog.Logger
	rateLimiter  *rate.Limiter
	resolve      func(model, fallback string) string
}

// NewOpenAIProvider creates a new OpenAI LLM provider.
func NewOpenAIProvider(cfg *config.Config, logger *zerolog.Logger) *openaiProvider {
	defaultModel := cfg.LLM.Model
	if defaultModel == "" {
		defaultModel = defaultOpenAIModel
	}

	return &openaiProvider{
		name:         ProviderOpenAI,
		priority:     PriorityPrimary,
		apiKey:       cfg.LLM.APIKey,
		defaultModel: defaultModel,
		client:       openai.NewClient(cfg.LLM.APIKey),
		logger:       logger,
		rateLimiter:  newRateLimiter(cfg.LLM.RateLimitRPS),
		resolve:      resolveOpenAIModel,
	}
}

func newRateLimiter(rps int) *rate.Limiter {
	if rps <= 0 {
		rps = 1
	}

	return rate.NewLimiter(rate.Limit(float64(rps)), rateLimiterBurst)
}

// Name returns the provider identifier.
func (p *openaiProvider) Name() ProviderName {
	return p.name
}

// IsAvailable returns true if the provider is configured and available.
func (p *openaiProvider) IsAvailable() bool {
	return p.apiKey != "" && p.apiKey != llmAPIKeyMock
}

// Priority returns the provider priority.
func (p *openaiProvider) Priority() int {
	return p.priority
}

// resolveOpenAIModel keeps OpenAI model names and maps everything else to the default.
func resolveOpenAIModel(model, fallback string) string {
	if model == "" {
		return fallback
	}

	if strings.HasPrefix(model, "gpt-") || isReasoningModel(model) {
		return model
	}

	return fallback
}

// isReasoningModel reports models that only accept the default temperature.
func isReasoningModel(model string) bool {
	if strings.HasPrefix(model, modelPrefixGPT5) {
		return true
	}

	return len(model) > 1 && strings.HasPrefix(model, modelPrefixO) && model[1] >= '1' && model[1] <= '9'
}

func (p *openaiProvider) buildRequest(req Request, model string) openai.ChatCompletionRequest {
	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxCompletionTokens: req.maxTokens(),
	}

	if req.Temperature != nil && !isReasoningModel(model) {
		chatReq.Temperature = *req.Temperature
	}

	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	return chatReq
}

// Complete implements Provider interface.
func (p *openaiProvider) Complete(ctx context.Context, req Request, model string) (Response, error) {
	model = p.resolve(model, p.defaultModel)

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf(errRateLimiter, err)
	}

	resp, err := p.client.CreateChatCompletion(ctx, p.buildRequest(req, model))
	if err != nil {
		RecordTokenUsage(string(p.name), model, string(req.Task), 0, 0, false)

		return Response{}, fmt.Errorf(errOpenAIChatCompletion, err)
	}

	RecordTokenUsage(string(p.name), model, string(req.Task), resp.Usage.PromptTokens, resp.Usage.CompletionTokens, true)

	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("%s: %w", p.name, apperrors.ErrEmptyResponse)
	}

	choice := resp.Choices[0]
	out := Response{
		Text:             strings.TrimSpace(choice.Message.Content),
		Provider:         p.name,
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		Truncated:        choice.FinishReason == openai.FinishReasonLength,
	}

	p.warnIfTruncated(out, req)

	return out, nil
}

// Stream implements Provider interface.
func (p *openaiProvider) Stream(ctx context.Context, req Request, model string, onDelta DeltaFunc) (Response, error) {
	model = p.resolve(model, p.defaultModel)

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf(errRateLimiter, err)
	}

	chatReq := p.buildRequest(req, model)
	chatReq.Stream = true
	chatReq.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	stream, err := p.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		RecordTokenUsage(string(p.name), model, string(req.Task), 0, 0, false)

		return Response{}, fmt.Errorf(errOpenAIStream, err)
	}
	defer stream.Close()

	var sb strings.Builder

	out := Response{Provider: p.name, Model: model}

	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}

		if recvErr != nil {
			RecordTokenUsage(string(p.name), model, string(req.Task), 0, 0, false)

			return Response{}, fmt.Errorf(errOpenAIStream, recvErr)
		}

		if chunk.Usage != nil {
			out.PromptTokens = chunk.Usage.PromptTokens
			out.CompletionTokens = chunk.Usage.CompletionTokens
		}

		if len(chunk.Choices) == 0 {
			continue
		}

		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			sb.WriteString(delta)
			onDelta(delta)
		}

		if chunk.Choices[0].FinishReason == openai.FinishReasonLength {
			out.Truncated = true
		}
	}

	RecordTokenUsage(string(p.name), model, string(req.Task), out.PromptTokens, out.CompletionTokens, true)

	out.Text = strings.TrimSpace(sb.String())
	if out.Text == "" {
		return Response{}, fmt.Errorf("%s stream: %w", p.name, apperrors.ErrEmptyResponse)
	}

	p.warnIfTruncated(out, req)

	return out, nil
}

func (p *openaiProvider) warnIfTruncated(out Response, req Request) {
	if !out.Truncated {
		return
	}

	p.logger.Warn().
		Str(logKeyProvider, string(p.name)).
		Str(logKeyModel, out.Model).
		Str(logKeyTask, string(req.Task)).
		Int(logKeyMaxTokens, req.maxTokens()).
		Int(logKeyOutputTokens, out.CompletionTokens).
		Msg(logMsgTruncated)
}

// Ensure openaiProvider implements Provider interface.
var _ Provider = (*openaiProvider)(nil)
