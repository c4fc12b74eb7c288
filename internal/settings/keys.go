// Package settings holds the per-user configuration the gateway needs on
// every call: provider keys, the cached model catalog and UI preferences.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nikhilbhutani/promptbench/internal/kv"
	"github.com/nikhilbhutani/promptbench/internal/llm"
	"github.com/nikhilbhutani/promptbench/internal/models"
)

const keysKey = "api_keys"

// KeyValidator is the slice of llm.Gateway that Keys depends on.
type KeyValidator interface {
	ValidateKey(ctx context.Context, provider models.Provider, apiKey string) bool
}

var _ KeyValidator = (llm.Gateway)(nil)

// Keys stores one APIKeyConfig per provider.
type Keys struct {
	kv        kv.Store
	validator KeyValidator
	mu        sync.Mutex
}

func NewKeys(store kv.Store, validator KeyValidator) *Keys {
	return &Keys{kv: store, validator: validator}
}

// All returns a config for every supported provider. Providers without a
// stored key report untested.
func (k *Keys) All(ctx context.Context) (map[models.Provider]models.APIKeyConfig, error) {
	stored := map[models.Provider]models.APIKeyConfig{}
	if err := kv.GetOrDefault(ctx, k.kv, keysKey, &stored); err != nil {
		return nil, fmt.Errorf("load api keys: %w", err)
	}
	out := make(map[models.Provider]models.APIKeyConfig, len(models.Providers()))
	for _, p := range models.Providers() {
		cfg, ok := stored[p]
		if !ok || cfg.Status == "" {
			cfg.Status = models.KeyUntested
		}
		out[p] = cfg
	}
	return out, nil
}

func (k *Keys) Get(ctx context.Context, p models.Provider) (models.APIKeyConfig, error) {
	all, err := k.All(ctx)
	if err != nil {
		return models.APIKeyConfig{}, err
	}
	return all[p], nil
}

// Map returns provider to raw key for every provider with a key set.
func (k *Keys) Map(ctx context.Context) (map[models.Provider]string, error) {
	all, err := k.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[models.Provider]string, len(all))
	for p, cfg := range all {
		if cfg.Key != "" {
			out[p] = cfg.Key
		}
	}
	return out, nil
}

// Submit records a new key as testing, validates it and stores the outcome.
// An empty key clears the provider back to untested. When another submit
// replaced the key while this one was validating, the outcome is dropped and
// the currently stored config is returned.
func (k *Keys) Submit(ctx context.Context, p models.Provider, key string) (models.APIKeyConfig, error) {
	if !p.Valid() {
		return models.APIKeyConfig{}, fmt.Errorf("unknown provider %q", p)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		cfg := models.APIKeyConfig{Status: models.KeyUntested}
		_, err := k.put(ctx, p, cfg, nil)
		return cfg, err
	}

	if _, err := k.put(ctx, p, models.APIKeyConfig{Key: key, Status: models.KeyTesting}, nil); err != nil {
		return models.APIKeyConfig{}, err
	}

	status := models.KeyInvalid
	if k.validator.ValidateKey(ctx, p, key) {
		status = models.KeyValid
	}
	cfg := models.APIKeyConfig{Key: key, Status: status}
	current, err := k.put(ctx, p, cfg, func(stored models.APIKeyConfig) bool {
		return stored.Key == key
	})
	if err != nil {
		return models.APIKeyConfig{}, err
	}
	if current != cfg {
		slog.Info("api key replaced during validation, outcome dropped", "provider", p, "status", status)
		return current, nil
	}
	slog.Info("api key validated", "provider", p, "status", status)
	return cfg, nil
}

// put stores cfg for p unless keep rejects the stored config. It returns
// the config stored for p afterwards.
func (k *Keys) put(ctx context.Context, p models.Provider, cfg models.APIKeyConfig, keep func(models.APIKeyConfig) bool) (models.APIKeyConfig, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	stored := map[models.Provider]models.APIKeyConfig{}
	if err := kv.GetOrDefault(ctx, k.kv, keysKey, &stored); err != nil {
		return models.APIKeyConfig{}, fmt.Errorf("load api keys: %w", err)
	}
	if keep != nil && !keep(stored[p]) {
		return stored[p], nil
	}
	stored[p] = cfg
	if err := k.kv.Set(ctx, keysKey, stored); err != nil {
		return models.APIKeyConfig{}, fmt.Errorf("save api keys: %w", err)
	}
	return cfg, nil
}
