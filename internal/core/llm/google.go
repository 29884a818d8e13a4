package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	apperrors "github.com/lueurxax/wikisynth/internal/core/errors"
	"github.com/lueurxax/wikisynth/internal/platform/config"
)

// Google model constants.
const (
	// ModelGeminiFlashLite is the cheapest/fastest Google model.
	ModelGeminiFlashLite = "gemini-2.5-flash-lite"

	mimeTypeJSON = "application/json"
)

// sanitizeUTF8 replaces invalid UTF-8 sequences.
// Google's protobuf API requires valid UTF-8, and scraped article text may contain invalid bytes.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	return strings.ToValidUTF8(s, string(utf8.RuneError))
}

// googleProvider implements the Provider interface for Google Gemini.
type googleProvider struct {
	apiKey       string
	defaultModel string
	client       *genai.Client
	logger       *zerolog.Logger
	rateLimiter  *rate.Limiter
}

// NewGoogleProvider creates a new Google Gemini LLM provider.
func NewGoogleProvider(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*googleProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.LLM.GoogleAPIKey))
	if err != nil {
		return nil, fmt.Errorf("creating google genai client: %w", err)
	}

	defaultModel := cfg.LLM.GoogleModel
	if defaultModel == "" {
		defaultModel = ModelGeminiFlashLite
	}

	return &googleProvider{
		apiKey:       cfg.LLM.GoogleAPIKey,
		defaultModel: defaultModel,
		client:       client,
		logger:       logger,
		rateLimiter:  newRateLimiter(cfg.LLM.RateLimitRPS),
	}, nil
}

// Close closes the Google client.
func (p *googleProvider) Close() error {
	if p.client != nil {
		if err := p.client.Close(); err != nil {
			return fmt.Errorf("closing google genai client: %w", err)
		}
	}

	return nil
}

// Name returns the provider identifier.
func (p *googleProvider) Name() ProviderName {
	return ProviderGoogle
}

// IsAvailable returns true if the provider is configured and available.
func (p *googleProvider) IsAvailable() bool {
	return p.apiKey != ""
}

// Priority returns the provider priority.
func (p *googleProvider) Priority() int {
	return PrioritySecondFallback
}

// resolveModel keeps Gemini model names and maps everything else to the default.
func (p *googleProvider) resolveModel(model string) string {
	if strings.HasPrefix(model, modelPrefixGemini) {
		return model
	}

	return p.defaultModel
}

func (p *googleProvider) model(req Request, model string) *genai.GenerativeModel {
	genModel := p.client.GenerativeModel(model)
	genModel.SetMaxOutputTokens(int32(req.maxTokens())) //nolint:gosec // token limits fit in int32

	if req.Temperature != nil {
		genModel.SetTemperature(*req.Temperature)
	}

	if req.JSON {
		genModel.ResponseMIMEType = mimeTypeJSON
	}

	return genModel
}

// Complete implements Provider interface.
func (p *googleProvider) Complete(ctx context.Context, req Request, model string) (Response, error) {
	model = p.resolveModel(model)

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf(errRateLimiter, err)
	}

	resp, err := p.model(req, model).GenerateContent(ctx, genai.Text(sanitizeUTF8(req.Prompt)))
	if err != nil {
		RecordTokenUsage(string(ProviderGoogle), model, string(req.Task), 0, 0, false)

		return Response{}, fmt.Errorf(errGoogleGenAICompletion, err)
	}

	out := Response{
		Text:      strings.TrimSpace(extractGoogleResponseText(resp)),
		Provider:  ProviderGoogle,
		Model:     model,
		Truncated: isMaxTokens(resp),
	}
	applyUsage(&out, resp)

	return p.finish(out, req)
}

// Stream implements Provider interface.
func (p *googleProvider) Stream(ctx context.Context, req Request, model string, onDelta DeltaFunc) (Response, error) {
	model = p.resolveModel(model)

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf(errRateLimiter, err)
	}

	iter := p.model(req, model).GenerateContentStream(ctx, genai.Text(sanitizeUTF8(req.Prompt)))

	var sb strings.Builder

	out := Response{Provider: ProviderGoogle, Model: model}

	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			RecordTokenUsage(string(ProviderGoogle), model, string(req.Task), 0, 0, false)

			return Response{}, fmt.Errorf(errGoogleGenAIStream, err)
		}

		if delta := extractGoogleResponseText(resp); delta != "" {
			sb.WriteString(delta)
			onDelta(delta)
		}

		if isMaxTokens(resp) {
			out.Truncated = true
		}

		applyUsage(&out, resp)
	}

	out.Text = strings.TrimSpace(sb.String())

	return p.finish(out, req)
}

func (p *googleProvider) finish(out Response, req Request) (Response, error) {
	RecordTokenUsage(string(ProviderGoogle), out.Model, string(req.Task), out.PromptTokens, out.CompletionTokens, true)

	if out.Text == "" {
		return Response{}, fmt.Errorf("google: %w", apperrors.ErrEmptyResponse)
	}

	if out.Truncated {
		p.logger.Warn().
			Str(logKeyProvider, string(ProviderGoogle)).
			Str(logKeyModel, out.Model).
			Str(logKeyTask, string(req.Task)).
			Int(logKeyMaxTokens, req.maxTokens()).
			Int(logKeyOutputTokens, out.CompletionTokens).
			Msg(logMsgTruncated)
	}

	return out, nil
}

func applyUsage(out *Response, resp *genai.GenerateContentResponse) {
	if resp == nil || resp.UsageMetadata == nil {
		return
	}

	out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
	out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
}

func isMaxTokens(resp *genai.GenerateContentResponse) bool {
	if resp == nil {
		return false
	}

	for _, candidate := range resp.Candidates {
		if candidate.FinishReason == genai.FinishReasonMaxTokens {
			return true
		}
	}

	return false
}

// extractGoogleResponseText extracts text content from Google Gemini response.
func extractGoogleResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var result strings.Builder

	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					result.WriteString(string(text))
				}
			}
		}
	}

	return result.String()
}

// Ensure googleProvider implements Provider interface.
var _ Provider = (*googleProvider)(nil)
