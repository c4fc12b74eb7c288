package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/promptbench/internal/kv"
	"github.com/nikhilbhutani/promptbench/internal/models"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) ValidateKey(ctx context.Context, p models.Provider, key string) bool {
	return m.Called(ctx, p, key).Bool(0)
}

func (m *mockGateway) ListModels(ctx context.Context, keys map[models.Provider]string) []models.ModelDefinition {
	args := m.Called(ctx, keys)
	defs, _ := args.Get(0).([]models.ModelDefinition)
	return defs
}

func (m *mockGateway) BuiltinModels() []models.ModelDefinition {
	return []models.ModelDefinition{{ID: "claude-x", Name: "Claude X", Provider: models.ProviderAnthropic}}
}

func TestKeysDefaultToUntested(t *testing.T) {
	keys := NewKeys(kv.NewMemory(), &mockGateway{})
	all, err := keys.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, len(models.Providers()))
	for _, p := range models.Providers() {
		assert.Equal(t, models.KeyUntested, all[p].Status)
		assert.Empty(t, all[p].Key)
	}
}

func TestKeysSubmitTransitions(t *testing.T) {
	ctx := context.Background()
	gw := &mockGateway{}
	keys := NewKeys(kv.NewMemory(), gw)

	gw.On("ValidateKey", mock.Anything, models.ProviderOpenAI, "sk-good").
		Run(func(mock.Arguments) {
			cfg, err := keys.Get(ctx, models.ProviderOpenAI)
			require.NoError(t, err)
			assert.Equal(t, models.KeyTesting, cfg.Status, "stored as testing while validating")
		}).
		Return(true).Once()
	gw.On("ValidateKey", mock.Anything, models.ProviderOpenAI, "sk-bad").Return(false).Once()

	cfg, err := keys.Submit(ctx, models.ProviderOpenAI, " sk-good ")
	require.NoError(t, err)
	assert.Equal(t, models.APIKeyConfig{Key: "sk-good", Status: models.KeyValid}, cfg)

	cfg, err = keys.Submit(ctx, models.ProviderOpenAI, "sk-bad")
	require.NoError(t, err)
	assert.Equal(t, models.KeyInvalid, cfg.Status)

	m, err := keys.Map(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[models.Provider]string{models.ProviderOpenAI: "sk-bad"}, m)

	cfg, err = keys.Submit(ctx, models.ProviderOpenAI, "")
	require.NoError(t, err)
	assert.Equal(t, models.KeyUntested, cfg.Status)
	m, err = keys.Map(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)

	_, err = keys.Submit(ctx, models.Provider("ollama"), "x")
	assert.Error(t, err)

	gw.AssertExpectations(t)
}

func TestCatalogFallsBackToBuiltin(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	gw := &mockGateway{}
	keys := NewKeys(store, gw)
	catalog := NewCatalog(store, gw, keys)

	defs, err := catalog.Models(ctx)
	require.NoError(t, err)
	assert.Equal(t, gw.BuiltinModels(), defs)

	gw.On("ValidateKey", mock.Anything, models.ProviderOpenAI, "sk").Return(true)
	_, err = keys.Submit(ctx, models.ProviderOpenAI, "sk")
	require.NoError(t, err)

	live := []models.ModelDefinition{{ID: "gpt-4o", Name: "GPT 4o", Provider: models.ProviderOpenAI}}
	gw.On("ListModels", mock.Anything, map[models.Provider]string{models.ProviderOpenAI: "sk"}).Return(live)

	refreshed, err := catalog.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, live, refreshed)

	cached, err := catalog.Models(ctx)
	require.NoError(t, err)
	assert.Equal(t, live, cached)
}

func TestPreferences(t *testing.T) {
	ctx := context.Background()
	prefs := NewPreferences(kv.NewMemory())

	got, err := prefs.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = prefs.Put(ctx, []byte(`{"theme":"dark","panel":{"width":320}}`))
	require.NoError(t, err)

	got, err = prefs.Get(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `"dark"`, string(got["theme"]))
	assert.JSONEq(t, `{"width":320}`, string(got["panel"]))

	for _, bad := range []string{`[1]`, `"x"`, `null`, `{`} {
		_, err = prefs.Put(ctx, []byte(bad))
		assert.ErrorIs(t, err, ErrPreferences, bad)
	}
}

func TestKeysSubmitDropsStaleOutcome(t *testing.T) {
	ctx := context.Background()
	gw := &mockGateway{}
	keys := NewKeys(kv.NewMemory(), gw)

	gw.On("ValidateKey", mock.Anything, models.ProviderAnthropic, "sk-new").Return(true).Once()
	gw.On("ValidateKey", mock.Anything, models.ProviderAnthropic, "sk-old").
		Run(func(mock.Arguments) {
			cfg, err := keys.Submit(ctx, models.ProviderAnthropic, "sk-new")
			require.NoError(t, err)
			assert.Equal(t, models.KeyValid, cfg.Status)
		}).
		Return(false).Once()

	cfg, err := keys.Submit(ctx, models.ProviderAnthropic, "sk-old")
	require.NoError(t, err)
	assert.Equal(t, models.APIKeyConfig{Key: "sk-new", Status: models.KeyValid}, cfg, "newer submit wins")

	stored, err := keys.Get(ctx, models.ProviderAnthropic)
	require.NoError(t, err)
	assert.Equal(t, models.APIKeyConfig{Key: "sk-new", Status: models.KeyValid}, stored)

	gw.AssertExpectations(t)
}
