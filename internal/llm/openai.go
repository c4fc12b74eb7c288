package llm

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nikhilbhutani/promptbench/internal/models"
)

// openAIOwners are the owned_by values OpenAI reports for its own models.
var openAIOwners = map[string]bool{"openai": true, "system": true}

type OpenAIProvider struct {
	baseURL    string
	httpClient *http.Client
}

func NewOpenAIProvider(baseURL string, httpClient *http.Client) *OpenAIProvider {
	return &OpenAIProvider{baseURL: baseURL, httpClient: httpClient}
}

func (p *OpenAIProvider) Name() models.Provider { return models.ProviderOpenAI }

// Models is empty: the OpenAI catalog is always fetched live.
func (p *OpenAIProvider) Models() []models.ModelDefinition { return nil }

func (p *OpenAIProvider) client(apiKey string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if p.baseURL != "" {
		cfg.BaseURL = p.baseURL
	}
	if p.httpClient != nil {
		cfg.HTTPClient = p.httpClient
	}
	return openai.NewClientWithConfig(cfg)
}

func (p *OpenAIProvider) ListModels(ctx context.Context, apiKey string) ([]models.ModelDefinition, error) {
	list, err := p.client(apiKey).ListModels(ctx)
	if err != nil {
		return nil, p.translate(err)
	}

	var defs []models.ModelDefinition
	for _, m := range list.Models {
		if !strings.HasPrefix(m.ID, "gpt-") || !openAIOwners[m.OwnedBy] {
			continue
		}
		defs = append(defs, models.ModelDefinition{
			ID:       m.ID,
			Name:     displayName(m.ID),
			Provider: models.ProviderOpenAI,
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID > defs[j].ID })
	return defs, nil
}

// displayName turns "gpt-4o-mini" into "GPT 4o Mini".
func displayName(id string) string {
	parts := strings.Split(id, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.ReplaceAll(strings.Join(parts, " "), "Gpt", "GPT")
}

func (p *OpenAIProvider) ValidateKey(ctx context.Context, apiKey string) error {
	if _, err := p.client(apiKey).ListModels(ctx); err != nil {
		return p.translate(err)
	}
	return nil
}

func (p *OpenAIProvider) Complete(ctx context.Context, apiKey string, req CompletionRequest) (*Result, error) {
	var msgs []openai.ChatCompletionMessage
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.User})

	resp, err := p.client(apiKey).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: msgs,
	})
	if err != nil {
		return nil, p.translate(err)
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return &Result{
		Text: content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (p *OpenAIProvider) translate(err error) *APIError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return newAPIError(p.Name(), apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return newAPIError(p.Name(), reqErr.HTTPStatusCode, "", err)
	}
	return newAPIError(p.Name(), 0, err.Error(), err)
}
