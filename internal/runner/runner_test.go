package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/promptbench/internal/kv"
	"github.com/nikhilbhutani/promptbench/internal/llm"
	"github.com/nikhilbhutani/promptbench/internal/models"
	"github.com/nikhilbhutani/promptbench/internal/prompt"
)

type fakeGateway struct {
	mu       sync.Mutex
	requests []llm.InvokeRequest
	invoke   func(req llm.InvokeRequest) (*llm.Result, error)
}

func (g *fakeGateway) ListModels(context.Context, map[models.Provider]string) []models.ModelDefinition {
	return nil
}

func (g *fakeGateway) ValidateKey(context.Context, models.Provider, string) bool { return true }

func (g *fakeGateway) ResolveProvider(modelID string, known []models.ModelDefinition) models.Provider {
	for _, m := range known {
		if m.ID == modelID {
			return m.Provider
		}
	}
	return models.ProviderOpenAI
}

func (g *fakeGateway) Invoke(_ context.Context, req llm.InvokeRequest) (*llm.Result, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	return g.invoke(req)
}

func (g *fakeGateway) BuiltinModels() []models.ModelDefinition { return nil }

type staticKeys map[models.Provider]string

func (k staticKeys) Get(_ context.Context, p models.Provider) (models.APIKeyConfig, error) {
	return models.APIKeyConfig{Key: k[p], Status: models.KeyValid}, nil
}

type staticCatalog []models.ModelDefinition

func (c staticCatalog) Models(context.Context) ([]models.ModelDefinition, error) { return c, nil }

var catalog = staticCatalog{
	{ID: "claude-3-haiku", Provider: models.ProviderAnthropic},
	{ID: "gpt-4o", Provider: models.ProviderOpenAI},
	{ID: "gemini-pro", Provider: models.ProviderGemini},
}

var keys = staticKeys{
	models.ProviderAnthropic: "ak",
	models.ProviderOpenAI:    "ok",
	models.ProviderGemini:    "gk",
}

func echo(req llm.InvokeRequest) (*llm.Result, error) {
	return &llm.Result{Text: req.ModelID + ": " + req.UserText, Usage: llm.Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5}}, nil
}

func TestRunStoredPrompt(t *testing.T) {
	ctx := context.Background()
	prompts := prompt.NewService(kv.NewMemory(), nil)
	v, err := prompts.Create(ctx, prompt.Draft{SystemPrompt: "Be {{tone}}.", UserPrompt: "Describe {{ topic }}"})
	require.NoError(t, err)

	gw := &fakeGateway{invoke: echo}
	r := New(gw, prompts, keys, catalog)
	r.newID = func() string { return "result-1" }

	tr, err := r.Run(ctx, RunRequest{
		PromptID:  v.ID,
		ModelID:   "claude-3-haiku",
		Variables: map[string]string{"tone": "brief", "topic": "rain"},
		Save:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, "result-1", tr.ID)
	assert.Equal(t, "claude-3-haiku: Describe rain", tr.Response)
	assert.Equal(t, 5, tr.Metrics.TotalTokens)
	assert.GreaterOrEqual(t, tr.Metrics.ResponseTimeMs, int64(0))
	assert.Equal(t, "brief", tr.Variables["tone"])

	require.Len(t, gw.requests, 1)
	assert.Equal(t, "ak", gw.requests[0].APIKey, "key of the resolved provider")
	assert.Equal(t, "Be brief.", gw.requests[0].SystemText)
	assert.Equal(t, []models.ModelDefinition(catalog), gw.requests[0].KnownModels)

	saved, err := prompts.Get(ctx, v.ID)
	require.NoError(t, err)
	require.NotNil(t, saved.SavedTestResult)
	assert.Equal(t, "result-1", saved.SavedTestResult.ID)
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()
	prompts := prompt.NewService(kv.NewMemory(), nil)
	apiErr := &llm.APIError{Provider: models.ProviderOpenAI, StatusCode: 401, Message: "bad key"}
	r := New(&fakeGateway{invoke: func(llm.InvokeRequest) (*llm.Result, error) { return nil, apiErr }}, prompts, keys, catalog)

	_, err := r.Run(ctx, RunRequest{UserPrompt: "hi"})
	assert.ErrorIs(t, err, ErrModelRequired)

	_, err = r.Run(ctx, RunRequest{PromptID: "missing", ModelID: "gpt-4o"})
	assert.ErrorIs(t, err, prompt.ErrNotFound)

	_, err = r.Run(ctx, RunRequest{UserPrompt: "hi", ModelID: "gpt-4o"})
	var got *llm.APIError
	require.ErrorAs(t, err, &got)
	assert.ErrorIs(t, err, llm.ErrUnauthorized)
}

func TestCompareSettlesIndependently(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	gw := &fakeGateway{invoke: func(req llm.InvokeRequest) (*llm.Result, error) {
		if req.ModelID == "gemini-pro" {
			return nil, &llm.APIError{Provider: models.ProviderGemini, StatusCode: 500, Message: "boom"}
		}
		<-release
		return echo(req)
	}}
	r := New(gw, prompt.NewService(kv.NewMemory(), nil), keys, catalog)

	b, err := r.Start(ctx, CompareRequest{
		RunRequest: RunRequest{UserPrompt: "Hi {{who}}", Variables: map[string]string{"who": "there"}},
		ModelIDs:   []string{"claude-3-haiku", "gpt-4o", "gemini-pro", "gpt-4o"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"claude-3-haiku", "gpt-4o", "gemini-pro"}, b.Models())

	first := <-b.Updates()
	assert.Equal(t, "gemini-pro", first.ModelID)
	assert.Equal(t, "API Error: boom", first.Error)
	assert.False(t, b.Done(), "others still pending")
	assert.Len(t, b.Snapshot(), 1)

	close(release)
	var rest []string
	for o := range b.Updates() {
		require.NoError(t, o.Err)
		rest = append(rest, o.ModelID)
	}
	assert.ElementsMatch(t, []string{"claude-3-haiku", "gpt-4o"}, rest)
	assert.True(t, b.Done())

	outcomes := b.Wait()
	require.Len(t, outcomes, 3)
	assert.Equal(t, "claude-3-haiku: Hi there", outcomes[0].Result.Response)
	assert.Equal(t, "gpt-4o: Hi there", outcomes[1].Result.Response)
	assert.Nil(t, outcomes[2].Result)
}

func TestCompareCallback(t *testing.T) {
	gw := &fakeGateway{invoke: func(req llm.InvokeRequest) (*llm.Result, error) {
		if req.ModelID == "gpt-4o" {
			time.Sleep(20 * time.Millisecond)
			return nil, errors.New("dial tcp: refused")
		}
		return echo(req)
	}}
	r := New(gw, prompt.NewService(kv.NewMemory(), nil), keys, catalog)

	var seen []string
	outcomes, err := r.Compare(context.Background(), CompareRequest{
		RunRequest: RunRequest{UserPrompt: "x"},
		ModelIDs:   []string{"claude-3-haiku", "gpt-4o", "gemini-pro"},
	}, func(o Outcome) { seen = append(seen, o.ModelID) })
	require.NoError(t, err)
	assert.Len(t, seen, 3)
	assert.Equal(t, "gpt-4o", seen[2], "slowest settles last")
	assert.Error(t, outcomes[1].Err)
	assert.NotNil(t, outcomes[0].Result)
	assert.NotNil(t, outcomes[2].Result)

	_, err = r.Compare(context.Background(), CompareRequest{}, nil)
	assert.ErrorIs(t, err, ErrNoModels)
}
