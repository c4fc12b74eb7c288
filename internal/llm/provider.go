package llm

import (
	"context"

	"github.com/nikhilbhutani/promptbench/internal/models"
)

// Provider is one vendor backend. Implementations hold no credentials: the
// key travels with every call.
type Provider interface {
	Name() models.Provider
	// Models is the built-in catalog. It is empty for providers whose
	// catalog is discovered at runtime.
	Models() []models.ModelDefinition
	// ListModels fetches the live catalog. Providers without one return Models().
	ListModels(ctx context.Context, apiKey string) ([]models.ModelDefinition, error)
	// ValidateKey performs the cheapest authenticated call the vendor offers.
	ValidateKey(ctx context.Context, apiKey string) error
	Complete(ctx context.Context, apiKey string, req CompletionRequest) (*Result, error)
}

// Gateway normalizes every Provider behind a single contract.
type Gateway interface {
	ListModels(ctx context.Context, keys map[models.Provider]string) []models.ModelDefinition
	ValidateKey(ctx context.Context, provider models.Provider, apiKey string) bool
	ResolveProvider(modelID string, known []models.ModelDefinition) models.Provider
	Invoke(ctx context.Context, req InvokeRequest) (*Result, error)
	BuiltinModels() []models.ModelDefinition
}

// InvokeRequest is the input to Gateway.Invoke.
type InvokeRequest struct {
	ModelID     string                   `json:"model_id"`
	APIKey      string                   `json:"-"`
	UserText    string                   `json:"user_text"`
	SystemText  string                   `json:"system_text,omitempty"`
	KnownModels []models.ModelDefinition `json:"known_models,omitempty"`
}

// CompletionRequest is what a resolved Provider receives.
type CompletionRequest struct {
	Model  string
	System string
	User   string
}

// Usage holds token counts, measured or estimated.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Result is the normalized response of every provider.
type Result struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}
