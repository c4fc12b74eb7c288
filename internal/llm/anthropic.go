package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"

	"github.com/nikhilbhutani/promptbench/internal/models"
)

type AnthropicProvider struct {
	baseURL    string
	httpClient *http.Client
	maxTokens  int64
	keyModel   string
}

func NewAnthropicProvider(baseURL string, httpClient *http.Client, maxTokens int, keyModel string) *AnthropicProvider {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	if keyModel == "" {
		keyModel = "claude-3-haiku-20240307"
	}
	return &AnthropicProvider{
		baseURL:    baseURL,
		httpClient: httpClient,
		maxTokens:  int64(maxTokens),
		keyModel:   keyModel,
	}
}

func (p *AnthropicProvider) Name() models.Provider { return models.ProviderAnthropic }

func (p *AnthropicProvider) Models() []models.ModelDefinition {
	return []models.ModelDefinition{
		{ID: "claude-opus-4-20250514", Name: "Claude Opus 4", Provider: models.ProviderAnthropic},
		{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4", Provider: models.ProviderAnthropic},
		{ID: "claude-3-7-sonnet-20250219", Name: "Claude 3.7 Sonnet", Provider: models.ProviderAnthropic},
		{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet", Provider: models.ProviderAnthropic},
		{ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku", Provider: models.ProviderAnthropic},
		{ID: "claude-3-opus-20240229", Name: "Claude 3 Opus", Provider: models.ProviderAnthropic},
		{ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku", Provider: models.ProviderAnthropic},
	}
}

func (p *AnthropicProvider) ListModels(context.Context, string) ([]models.ModelDefinition, error) {
	return p.Models(), nil
}

func (p *AnthropicProvider) client(apiKey string) anthropic.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if p.baseURL != "" {
		opts = append(opts, option.WithBaseURL(p.baseURL))
	}
	if p.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(p.httpClient))
	}
	return anthropic.NewClient(opts...)
}

func (p *AnthropicProvider) ValidateKey(ctx context.Context, apiKey string) error {
	client := p.client(apiKey)
	_, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.keyModel),
		MaxTokens: 1,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("Hi"))},
	})
	if err != nil {
		return p.translate(err)
	}
	return nil
}

func (p *AnthropicProvider) Complete(ctx context.Context, apiKey string, req CompletionRequest) (*Result, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: p.maxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.User))},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	client := p.client(apiKey)
	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return nil, p.translate(err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	input := int(resp.Usage.InputTokens)
	output := int(resp.Usage.OutputTokens)
	return &Result{
		Text: content.String(),
		Usage: Usage{
			PromptTokens:     input,
			CompletionTokens: output,
			TotalTokens:      input + output,
		},
	}, nil
}

func (p *AnthropicProvider) translate(err error) *APIError {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		msg := gjson.Get(apiErr.RawJSON(), "error.message").String()
		return newAPIError(p.Name(), apiErr.StatusCode, msg, err)
	}
	return newAPIError(p.Name(), 0, err.Error(), err)
}
