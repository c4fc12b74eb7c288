package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nikhilbhutani/promptbench/internal/config"
	"github.com/nikhilbhutani/promptbench/internal/models"
)

type gateway struct {
	providers       map[models.Provider]Provider
	defaultProvider models.Provider
}

// NewGateway wires one backend per member of models.Providers. httpClient
// may be nil to use each SDK's default transport.
func NewGateway(cfg config.LLMConfig, httpClient *http.Client) (Gateway, error) {
	def, err := models.ParseProvider(cfg.DefaultProvider)
	if err != nil {
		return nil, fmt.Errorf("default provider: %w", err)
	}
	return NewGatewayWithProviders(def,
		NewGeminiProvider(cfg.GeminiBaseURL, httpClient, cfg.GeminiKeyModel),
		NewOpenAIProvider(cfg.OpenAIBaseURL, httpClient),
		NewAnthropicProvider(cfg.AnthropicBaseURL, httpClient, cfg.AnthropicMaxTokens, cfg.AnthropicKeyModel),
	)
}

// NewGatewayWithProviders fails unless every supported provider is covered.
func NewGatewayWithProviders(defaultProvider models.Provider, providers ...Provider) (Gateway, error) {
	g := &gateway{
		providers:       make(map[models.Provider]Provider, len(providers)),
		defaultProvider: defaultProvider,
	}
	for _, p := range providers {
		g.providers[p.Name()] = p
	}
	for _, name := range models.Providers() {
		if _, ok := g.providers[name]; !ok {
			return nil, fmt.Errorf("no backend registered for provider %q", name)
		}
	}
	if _, ok := g.providers[defaultProvider]; !ok {
		return nil, fmt.Errorf("default provider %q has no backend", defaultProvider)
	}
	return g, nil
}

func (g *gateway) BuiltinModels() []models.ModelDefinition {
	var defs []models.ModelDefinition
	for _, name := range models.Providers() {
		defs = append(defs, g.providers[name].Models()...)
	}
	return defs
}

// ListModels never fails: a provider that cannot be reached contributes no
// live models.
func (g *gateway) ListModels(ctx context.Context, keys map[models.Provider]string) []models.ModelDefinition {
	var defs []models.ModelDefinition
	for _, name := range models.Providers() {
		p := g.providers[name]
		static := p.Models()
		if len(static) > 0 {
			defs = append(defs, static...)
			continue
		}

		key := keys[name]
		if key == "" {
			continue
		}
		live, err := p.ListModels(ctx, key)
		if err != nil {
			slog.Warn("model discovery failed", "provider", name, "error", err)
			continue
		}
		defs = append(defs, live...)
	}
	return defs
}

func (g *gateway) ValidateKey(ctx context.Context, provider models.Provider, apiKey string) bool {
	if apiKey == "" {
		return false
	}
	p, ok := g.providers[provider]
	if !ok {
		slog.Warn("key validation for unknown provider", "provider", provider)
		return false
	}
	if err := p.ValidateKey(ctx, apiKey); err != nil {
		slog.Warn("API key validation failed", "provider", provider, "error", err)
		return false
	}
	return true
}

func (g *gateway) ResolveProvider(modelID string, known []models.ModelDefinition) models.Provider {
	for _, m := range known {
		if m.ID == modelID && m.Provider.Valid() {
			return m.Provider
		}
	}
	for _, m := range g.BuiltinModels() {
		if m.ID == modelID {
			return m.Provider
		}
	}
	slog.Warn("model not in any catalog, using default provider", "model", modelID, "provider", g.defaultProvider)
	return g.defaultProvider
}

func (g *gateway) Invoke(ctx context.Context, req InvokeRequest) (*Result, error) {
	name := g.ResolveProvider(req.ModelID, req.KnownModels)
	if req.APIKey == "" {
		return nil, &ConfigError{Provider: name}
	}

	p := g.providers[name]
	res, err := p.Complete(ctx, req.APIKey, CompletionRequest{
		Model:  req.ModelID,
		System: req.SystemText,
		User:   req.UserText,
	})
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			apiErr = newAPIError(name, 0, err.Error(), err)
		}
		slog.Error("LLM invocation failed", "provider", name, "model", req.ModelID, "status", apiErr.StatusCode, "error", apiErr.Message)
		return nil, apiErr
	}
	return res, nil
}
