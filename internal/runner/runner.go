// Package runner renders prompt versions and dispatches them to the gateway,
// one model at a time or as a concurrent comparison.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/promptbench/internal/llm"
	"github.com/nikhilbhutani/promptbench/internal/models"
	"github.com/nikhilbhutani/promptbench/internal/prompt"
)

var (
	ErrModelRequired = errors.New("model id required")
	ErrNoModels      = errors.New("at least one model id required")
)

type PromptSource interface {
	Get(ctx context.Context, id string) (models.PromptVersion, error)
	SaveTestResult(ctx context.Context, id string, tr *models.TestResult) error
}

type KeySource interface {
	Get(ctx context.Context, p models.Provider) (models.APIKeyConfig, error)
}

type ModelSource interface {
	Models(ctx context.Context) ([]models.ModelDefinition, error)
}

// RunRequest executes either a stored version (PromptID) or ad-hoc texts.
type RunRequest struct {
	PromptID     string            `json:"promptId,omitempty"`
	SystemPrompt string            `json:"systemPrompt,omitempty"`
	UserPrompt   string            `json:"userPrompt,omitempty"`
	ModelID      string            `json:"modelId"`
	Variables    map[string]string `json:"variables"`
	// Save attaches the result to PromptID.
	Save bool `json:"save,omitempty"`
}

type Runner struct {
	gateway llm.Gateway
	prompts PromptSource
	keys    KeySource
	catalog ModelSource
	newID   func() string
	now     func() time.Time
}

func New(gw llm.Gateway, prompts PromptSource, keys KeySource, catalog ModelSource) *Runner {
	return &Runner{
		gateway: gw,
		prompts: prompts,
		keys:    keys,
		catalog: catalog,
		newID:   uuid.NewString,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run renders the request, invokes the owning provider with its stored key
// and returns the measured result.
func (r *Runner) Run(ctx context.Context, req RunRequest) (*models.TestResult, error) {
	if req.ModelID == "" {
		return nil, ErrModelRequired
	}

	v := models.PromptVersion{SystemPrompt: req.SystemPrompt, UserPrompt: req.UserPrompt}
	if req.PromptID != "" {
		var err error
		if v, err = r.prompts.Get(ctx, req.PromptID); err != nil {
			return nil, err
		}
	}
	system, user := prompt.Render(v, req.Variables)

	known, err := r.catalog.Models(ctx)
	if err != nil {
		return nil, err
	}
	provider := r.gateway.ResolveProvider(req.ModelID, known)
	key, err := r.keys.Get(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("load %s key: %w", provider, err)
	}

	start := time.Now()
	res, err := r.gateway.Invoke(ctx, llm.InvokeRequest{
		ModelID:     req.ModelID,
		APIKey:      key.Key,
		UserText:    user,
		SystemText:  system,
		KnownModels: known,
	})
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}

	tr := &models.TestResult{
		ID:        r.newID(),
		Response:  res.Text,
		ModelID:   req.ModelID,
		Variables: copyBindings(req.Variables),
		Metrics: models.Metrics{
			PromptTokens:     res.Usage.PromptTokens,
			CompletionTokens: res.Usage.CompletionTokens,
			TotalTokens:      res.Usage.TotalTokens,
			ResponseTimeMs:   elapsed.Milliseconds(),
		},
		Timestamp: r.now(),
	}
	slog.Info("prompt run completed", "model", req.ModelID, "provider", provider, "elapsed_ms", tr.Metrics.ResponseTimeMs, "tokens", tr.Metrics.TotalTokens)

	if req.Save && req.PromptID != "" {
		if err := r.prompts.SaveTestResult(ctx, req.PromptID, tr); err != nil {
			return nil, fmt.Errorf("save test result: %w", err)
		}
	}
	return tr, nil
}

func copyBindings(b map[string]string) map[string]string {
	out := make(map[string]string, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
