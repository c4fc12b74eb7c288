package llm

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/genai"

	"github.com/nikhilbhutani/promptbench/internal/models"
	"github.com/nikhilbhutani/promptbench/pkg/tokenizer"
)

// GeminiProvider calls the Gemini API. Gemini usage metadata is not relied
// on; token counts are estimated from text length.
type GeminiProvider struct {
	baseURL    string
	httpClient *http.Client
	keyModel   string
}

func NewGeminiProvider(baseURL string, httpClient *http.Client, keyModel string) *GeminiProvider {
	if keyModel == "" {
		keyModel = "gemini-1.5-flash"
	}
	return &GeminiProvider{baseURL: baseURL, httpClient: httpClient, keyModel: keyModel}
}

func (p *GeminiProvider) Name() models.Provider { return models.ProviderGemini }

func (p *GeminiProvider) Models() []models.ModelDefinition {
	return []models.ModelDefinition{
		{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Provider: models.ProviderGemini},
		{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Provider: models.ProviderGemini},
		{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", Provider: models.ProviderGemini},
		{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", Provider: models.ProviderGemini},
		{ID: "gemini-1.5-flash", Name: "Gemini 1.5 Flash", Provider: models.ProviderGemini},
	}
}

func (p *GeminiProvider) ListModels(context.Context, string) ([]models.ModelDefinition, error) {
	return p.Models(), nil
}

func (p *GeminiProvider) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.httpClient,
	}
	if p.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, newAPIError(p.Name(), 0, err.Error(), err)
	}
	return client, nil
}

func (p *GeminiProvider) ValidateKey(ctx context.Context, apiKey string) error {
	client, err := p.client(ctx, apiKey)
	if err != nil {
		return err
	}
	_, err = client.Models.GenerateContent(ctx, p.keyModel, genai.Text("Hi"), &genai.GenerateContentConfig{
		MaxOutputTokens: 1,
	})
	if err != nil {
		return p.translate(err)
	}
	return nil
}

func (p *GeminiProvider) Complete(ctx context.Context, apiKey string, req CompletionRequest) (*Result, error) {
	client, err := p.client(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	var cfg *genai.GenerateContentConfig
	if req.System != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		}
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model, genai.Text(req.User), cfg)
	if err != nil {
		return nil, p.translate(err)
	}

	text := resp.Text()
	prompt := tokenizer.EstimateTokens(req.System + req.User)
	completion := tokenizer.EstimateTokens(text)
	return &Result{
		Text: text,
		Usage: Usage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
	}, nil
}

func (p *GeminiProvider) translate(err error) *APIError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return newAPIError(p.Name(), apiErr.Code, apiErr.Message, err)
	}
	return newAPIError(p.Name(), 0, err.Error(), err)
}
