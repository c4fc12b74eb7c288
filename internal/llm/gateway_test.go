package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/promptbench/internal/config"
	"github.com/nikhilbhutani/promptbench/internal/models"
)

type stubProvider struct {
	name      models.Provider
	static    []models.ModelDefinition
	live      []models.ModelDefinition
	listErr   error
	keyErr    error
	result    *Result
	err       error
	lastKey   string
	lastReq   CompletionRequest
	completed int
}

func (s *stubProvider) Name() models.Provider             { return s.name }
func (s *stubProvider) Models() []models.ModelDefinition { return s.static }

func (s *stubProvider) ListModels(context.Context, string) ([]models.ModelDefinition, error) {
	return s.live, s.listErr
}

func (s *stubProvider) ValidateKey(_ context.Context, key string) error {
	s.lastKey = key
	return s.keyErr
}

func (s *stubProvider) Complete(_ context.Context, key string, req CompletionRequest) (*Result, error) {
	s.completed++
	s.lastKey = key
	s.lastReq = req
	return s.result, s.err
}

func newStubs() (*stubProvider, *stubProvider, *stubProvider) {
	gem := &stubProvider{
		name:   models.ProviderGemini,
		static: []models.ModelDefinition{{ID: "gemini-1.5-pro", Provider: models.ProviderGemini}},
		result: &Result{Text: "from gemini"},
	}
	oai := &stubProvider{
		name:   models.ProviderOpenAI,
		live:   []models.ModelDefinition{{ID: "gpt-4o", Provider: models.ProviderOpenAI}},
		result: &Result{Text: "from openai"},
	}
	ant := &stubProvider{
		name:   models.ProviderAnthropic,
		static: []models.ModelDefinition{{ID: "claude-3-haiku-20240307", Provider: models.ProviderAnthropic}},
		result: &Result{Text: "from anthropic"},
	}
	return gem, oai, ant
}

func newStubGateway(t *testing.T) (Gateway, *stubProvider, *stubProvider, *stubProvider) {
	t.Helper()
	gem, oai, ant := newStubs()
	gw, err := NewGatewayWithProviders(models.ProviderOpenAI, gem, oai, ant)
	require.NoError(t, err)
	return gw, gem, oai, ant
}

func TestNewGatewayCoversEveryProvider(t *testing.T) {
	gw, err := NewGateway(config.LLMConfig{DefaultProvider: "gemini"}, nil)
	require.NoError(t, err)

	impl := gw.(*gateway)
	for _, p := range models.Providers() {
		assert.Contains(t, impl.providers, p)
	}

	gem, oai, _ := newStubs()
	_, err = NewGatewayWithProviders(models.ProviderOpenAI, gem, oai)
	assert.ErrorContains(t, err, "anthropic")

	_, err = NewGateway(config.LLMConfig{DefaultProvider: "mistral"}, nil)
	assert.Error(t, err)
}

func TestResolveProvider(t *testing.T) {
	gw, _, _, _ := newStubGateway(t)

	known := []models.ModelDefinition{{ID: "claude-3-haiku-20240307", Provider: models.ProviderGemini}}
	assert.Equal(t, models.ProviderGemini, gw.ResolveProvider("claude-3-haiku-20240307", known), "caller catalog wins")
	assert.Equal(t, models.ProviderAnthropic, gw.ResolveProvider("claude-3-haiku-20240307", nil))
	assert.Equal(t, models.ProviderGemini, gw.ResolveProvider("gemini-1.5-pro", nil))
	assert.Equal(t, models.ProviderOpenAI, gw.ResolveProvider("something-new", nil), "falls back to default")
}

func TestInvokeRequiresKey(t *testing.T) {
	gw, gem, _, _ := newStubGateway(t)

	_, err := gw.Invoke(context.Background(), InvokeRequest{ModelID: "gemini-1.5-pro", UserText: "hi"})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, models.ProviderGemini, cfgErr.Provider)
	assert.Zero(t, gem.completed)
}

func TestInvokeDispatches(t *testing.T) {
	gw, gem, oai, _ := newStubGateway(t)

	res, err := gw.Invoke(context.Background(), InvokeRequest{
		ModelID:    "gemini-1.5-pro",
		APIKey:     "k-gem",
		UserText:   "user",
		SystemText: "system",
	})
	require.NoError(t, err)
	assert.Equal(t, "from gemini", res.Text)
	assert.Equal(t, "k-gem", gem.lastKey)
	assert.Equal(t, CompletionRequest{Model: "gemini-1.5-pro", System: "system", User: "user"}, gem.lastReq)
	assert.Zero(t, oai.completed)
}

func TestInvokeNormalizesErrors(t *testing.T) {
	gw, _, oai, ant := newStubGateway(t)
	oai.err = errors.New("connection reset")
	ant.err = newAPIError(models.ProviderAnthropic, 429, "slow down", nil)

	_, err := gw.Invoke(context.Background(), InvokeRequest{ModelID: "unknown-model", APIKey: "k"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, models.ProviderOpenAI, apiErr.Provider)
	assert.True(t, apiErr.Network())
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, "API Error: connection reset", err.Error())

	_, err = gw.Invoke(context.Background(), InvokeRequest{ModelID: "claude-3-haiku-20240307", APIKey: "k"})
	require.ErrorAs(t, err, &apiErr)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, "API Error: slow down", err.Error())
}

func TestListModelsDegrades(t *testing.T) {
	gw, _, oai, _ := newStubGateway(t)
	ctx := context.Background()

	ids := func(defs []models.ModelDefinition) []string {
		var out []string
		for _, d := range defs {
			out = append(out, d.ID)
		}
		return out
	}

	assert.Equal(t, []string{"gemini-1.5-pro", "claude-3-haiku-20240307"}, ids(gw.ListModels(ctx, nil)), "no key, no live fetch")

	keys := map[models.Provider]string{models.ProviderOpenAI: "sk"}
	assert.Equal(t, []string{"gemini-1.5-pro", "gpt-4o", "claude-3-haiku-20240307"}, ids(gw.ListModels(ctx, keys)))

	oai.listErr = errors.New("boom")
	assert.Equal(t, []string{"gemini-1.5-pro", "claude-3-haiku-20240307"}, ids(gw.ListModels(ctx, keys)))
}

func TestValidateKey(t *testing.T) {
	gw, _, oai, ant := newStubGateway(t)
	ctx := context.Background()

	assert.False(t, gw.ValidateKey(ctx, models.ProviderOpenAI, ""))
	assert.Empty(t, oai.lastKey, "empty key never reaches the provider")

	assert.True(t, gw.ValidateKey(ctx, models.ProviderOpenAI, "sk-good"))
	assert.Equal(t, "sk-good", oai.lastKey)

	ant.keyErr = newAPIError(models.ProviderAnthropic, 401, "invalid x-api-key", nil)
	assert.False(t, gw.ValidateKey(ctx, models.ProviderAnthropic, "bad"))
	assert.False(t, gw.ValidateKey(ctx, models.Provider("mistral"), "k"))
}

func TestAPIErrorFallbackMessage(t *testing.T) {
	err := newAPIError(models.ProviderOpenAI, 503, "", nil)
	assert.Equal(t, "API Error: openai request failed with status 503", err.Error())
	assert.ErrorIs(t, err, ErrServerError)
	assert.False(t, err.Network())
}
