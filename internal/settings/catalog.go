package settings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nikhilbhutani/promptbench/internal/kv"
	"github.com/nikhilbhutani/promptbench/internal/models"
)

const modelsKey = "models"

// ModelLister is the slice of llm.Gateway that Catalog depends on.
type ModelLister interface {
	ListModels(ctx context.Context, keys map[models.Provider]string) []models.ModelDefinition
	BuiltinModels() []models.ModelDefinition
}

// Catalog caches the merged model list so invocations can resolve providers
// for live-discovered models without a network round trip.
type Catalog struct {
	kv     kv.Store
	lister ModelLister
	keys   *Keys
}

func NewCatalog(store kv.Store, lister ModelLister, keys *Keys) *Catalog {
	return &Catalog{kv: store, lister: lister, keys: keys}
}

// Models returns the cached catalog, or the built-in one before the first refresh.
func (c *Catalog) Models(ctx context.Context) ([]models.ModelDefinition, error) {
	var cached []models.ModelDefinition
	if err := kv.GetOrDefault(ctx, c.kv, modelsKey, &cached); err != nil {
		return nil, fmt.Errorf("load model catalog: %w", err)
	}
	if len(cached) == 0 {
		return c.lister.BuiltinModels(), nil
	}
	return cached, nil
}

// Refresh rebuilds the catalog with the stored keys and caches it.
func (c *Catalog) Refresh(ctx context.Context) ([]models.ModelDefinition, error) {
	keys, err := c.keys.Map(ctx)
	if err != nil {
		return nil, err
	}
	defs := c.lister.ListModels(ctx, keys)
	if defs == nil {
		defs = []models.ModelDefinition{}
	}
	if err := c.kv.Set(ctx, modelsKey, defs); err != nil {
		return nil, fmt.Errorf("save model catalog: %w", err)
	}
	slog.Info("model catalog refreshed", "models", len(defs))
	return defs, nil
}
