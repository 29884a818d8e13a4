package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errProviderDown = errors.New("provider down")

type fakeProvider struct {
	name      ProviderName
	priority  int
	available bool
	err       error
	text      string

	mu     sync.Mutex
	calls  int
	models []string
}

func (f *fakeProvider) Name() ProviderName { return f.name }
func (f *fakeProvider) IsAvailable() bool  { return f.available }
func (f *fakeProvider) Priority() int      { return f.priority }

func (f *fakeProvider) Complete(_ context.Context, _ Request, model string) (Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.models = append(f.models, model)

	if f.err != nil {
		return Response{}, f.err
	}

	return Response{Text: f.text, Provider: f.name, Model: model}, nil
}

func (f *fakeProvider) Stream(ctx context.Context, req Request, model string, onDelta DeltaFunc) (Response, error) {
	resp, err := f.Complete(ctx, req, model)
	if err != nil {
		return Response{}, err
	}

	for _, word := range []string{resp.Text[:len(resp.Text)/2], resp.Text[len(resp.Text)/2:]} {
		onDelta(word)
	}

	return resp, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

func newTestRegistry(t *testing.T, providers ...Provider) *Registry {
	t.Helper()

	logger := zerolog.Nop()
	r := NewRegistry(&logger)

	for _, p := range providers {
		r.Register(p, CircuitBreakerConfig{Threshold: 2, ResetAfter: time.Minute})
	}

	return r
}

func TestRegistry_UsesTaskChainOrder(t *testing.T) {
	openai := &fakeProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, text: "from openai"}
	anthropic := &fakeProvider{name: ProviderAnthropic, priority: PriorityFallback, available: true, text: "from anthropic"}

	r := newTestRegistry(t, openai, anthropic)

	// Translate chain starts with Anthropic even though OpenAI has higher priority.
	resp, err := r.Complete(context.Background(), Request{Task: TaskTypeTranslate, Prompt: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "from anthropic", resp.Text)
	assert.Equal(t, 0, openai.callCount())
	assert.Equal(t, []string{ModelClaudeHaiku}, anthropic.models)
}

func TestRegistry_FallsBackOnError(t *testing.T) {
	openai := &fakeProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, err: errProviderDown}
	anthropic := &fakeProvider{name: ProviderAnthropic, priority: PriorityFallback, available: true, text: "fallback"}

	r := newTestRegistry(t, openai, anthropic)

	resp, err := r.Complete(context.Background(), Request{Task: TaskTypeCacheMatch, Prompt: "judge"})
	require.NoError(t, err)

	assert.Equal(t, "fallback", resp.Text)
	assert.Equal(t, ProviderAnthropic, resp.Provider)
	assert.Equal(t, 1, openai.callCount())
}

func TestRegistry_AllProvidersFail(t *testing.T) {
	openai := &fakeProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, err: errProviderDown}

	r := newTestRegistry(t, openai)

	_, err := r.Complete(context.Background(), Request{Task: TaskTypeComplete})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
	assert.ErrorIs(t, err, errProviderDown)
}

func TestRegistry_NoProviders(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Complete(context.Background(), Request{Task: TaskType("unknown")})
	assert.ErrorIs(t, err, ErrNoProvidersAvailable)
}

func TestRegistry_SkipsUnavailableProviders(t *testing.T) {
	openai := &fakeProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: false, text: "nope"}
	google := &fakeProvider{name: ProviderGoogle, priority: PrioritySecondFallback, available: true, text: "gemini"}

	r := newTestRegistry(t, openai, google)

	resp, err := r.Complete(context.Background(), Request{Task: TaskTypeCacheMatch})
	require.NoError(t, err)

	assert.Equal(t, "gemini", resp.Text)
	assert.Equal(t, 0, openai.callCount())
}

func TestRegistry_CircuitBreakerOpensAfterThreshold(t *testing.T) {
	openai := &fakeProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, err: errProviderDown}
	google := &fakeProvider{name: ProviderGoogle, priority: PrioritySecondFallback, available: true, text: "ok"}

	r := newTestRegistry(t, openai, google)
	req := Request{Task: TaskTypeCacheMatch}

	for i := 0; i < 3; i++ {
		_, err := r.Complete(context.Background(), req)
		require.NoError(t, err)
	}

	// Threshold is 2: the third request skips OpenAI entirely.
	assert.Equal(t, 2, openai.callCount())
	assert.Equal(t, 3, google.callCount())

	statuses := r.GetProviderStatuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, ProviderOpenAI, statuses[0].Name)
	assert.False(t, statuses[0].CircuitBreakerOK)
	assert.Equal(t, "open", statuses[0].CircuitState)
	assert.True(t, statuses[1].CircuitBreakerOK)
}

func TestRegistry_ModelOverrides(t *testing.T) {
	tests := []struct {
		name          string
		taskOverride  string
		requestModel  string
		expectedModel string
	}{
		{name: "chain default", expectedModel: "gpt-5-mini"},
		{name: "task override", taskOverride: "gpt-4o", expectedModel: "gpt-4o"},
		{name: "request model wins", taskOverride: "gpt-4o", requestModel: "gpt-4.1", expectedModel: "gpt-4.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			openai := &fakeProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, text: "ok"}
			r := newTestRegistry(t, openai)
			r.SetTaskModelOverride(TaskTypeCacheMatch, tt.taskOverride)

			_, err := r.Complete(context.Background(), Request{Task: TaskTypeCacheMatch, Model: tt.requestModel})
			require.NoError(t, err)

			assert.Equal(t, []string{tt.expectedModel}, openai.models)
		})
	}
}

func TestRegistry_StreamDeliversDeltas(t *testing.T) {
	anthropic := &fakeProvider{name: ProviderAnthropic, priority: PriorityFallback, available: true, text: "streamed text"}
	r := newTestRegistry(t, anthropic)

	var got string

	resp, err := r.Stream(context.Background(), Request{Task: TaskTypeSynthesize}, func(delta string) {
		got += delta
	})
	require.NoError(t, err)

	assert.Equal(t, "streamed text", got)
	assert.Equal(t, "streamed text", resp.Text)
}

func TestRegistry_StreamNilCallback(t *testing.T) {
	anthropic := &fakeProvider{name: ProviderAnthropic, priority: PriorityFallback, available: true, text: "ok"}
	r := newTestRegistry(t, anthropic)

	resp, err := r.Stream(context.Background(), Request{Task: TaskTypeTranslate}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
}

func TestRegistry_CanceledContext(t *testing.T) {
	openai := &fakeProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, text: "ok"}
	r := newTestRegistry(t, openai)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Complete(ctx, Request{Task: TaskTypeCacheMatch})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, openai.callCount())
}

func TestRegistry_ReRegisterKeepsSingleEntry(t *testing.T) {
	first := &fakeProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, text: "first"}
	second := &fakeProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, text: "second"}

	r := newTestRegistry(t, first, second)

	assert.Equal(t, 1, r.ProviderCount())
	assert.Len(t, r.GetProviderStatuses(), 1)
}

func TestMockProvider(t *testing.T) {
	r := newTestRegistry(t, NewMockProvider())

	resp, err := r.Complete(context.Background(), Request{Task: TaskTypeCacheMatch})
	require.NoError(t, err)

	obj, ok := ExtractJSONObject(resp.Text)
	require.True(t, ok)
	assert.Contains(t, obj, `"redirect": false`)
	assert.Equal(t, ProviderMock, resp.Provider)
}
