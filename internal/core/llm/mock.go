package llm

import (
	"context"
	"fmt"
	"strings"
)

const (
	mockModel        = "mock"
	mockPreviewRunes = 200

	mockCacheMatchResponse     = `{"redirect": false, "filename": "", "confidence": 0.0, "rationale": "mock provider does not judge cache matches"}`
	mockLanguageSelectResponse = `{"selected_languages": [], "rationale": "mock provider does not select languages"}`
)

// mockProvider implements the Provider interface for local runs without API keys.
type mockProvider struct{}

// NewMockProvider creates a new mock LLM provider.
func NewMockProvider() *mockProvider {
	return &mockProvider{}
}

// Name returns the provider identifier.
func (p *mockProvider) Name() ProviderName {
	return ProviderMock
}

// IsAvailable returns true as mock is always available.
func (p *mockProvider) IsAvailable() bool {
	return true
}

// Priority returns the provider priority.
func (p *mockProvider) Priority() int {
	return PriorityMock
}

// Complete implements Provider interface.
func (p *mockProvider) Complete(_ context.Context, req Request, _ string) (Response, error) {
	var text string

	switch req.Task {
	case TaskTypeCacheMatch:
		text = mockCacheMatchResponse
	case TaskTypeLanguageSelect:
		text = mockLanguageSelectResponse
	default:
		text = fmt.Sprintf("[mock %s] %s", req.Task, preview(req.Prompt))
	}

	RecordTokenUsage(string(ProviderMock), mockModel, string(req.Task), 0, 0, true)

	return Response{Text: text, Provider: ProviderMock, Model: mockModel}, nil
}

// Stream implements Provider interface.
func (p *mockProvider) Stream(ctx context.Context, req Request, model string, onDelta DeltaFunc) (Response, error) {
	resp, err := p.Complete(ctx, req, model)
	if err != nil {
		return Response{}, err
	}

	onDelta(resp.Text)

	return resp, nil
}

func preview(s string) string {
	s = strings.TrimSpace(s)

	runes := []rune(s)
	if len(runes) > mockPreviewRunes {
		return string(runes[:mockPreviewRunes]) + "..."
	}

	return s
}

// Ensure mockProvider implements Provider interface.
var _ Provider = (*mockProvider)(nil)
