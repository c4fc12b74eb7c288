package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nikhilbhutani/promptbench/internal/kv"
)

const preferencesKey = "preferences"

var ErrPreferences = errors.New("preferences must be a JSON object")

// Preferences is an opaque JSON object owned by the UI.
type Preferences struct {
	kv kv.Store
}

func NewPreferences(store kv.Store) *Preferences {
	return &Preferences{kv: store}
}

func (p *Preferences) Get(ctx context.Context) (map[string]json.RawMessage, error) {
	prefs := map[string]json.RawMessage{}
	if err := kv.GetOrDefault(ctx, p.kv, preferencesKey, &prefs); err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	return prefs, nil
}

// Put replaces the stored preferences with raw, which must be an object.
func (p *Preferences) Put(ctx context.Context, raw []byte) (map[string]json.RawMessage, error) {
	var prefs map[string]json.RawMessage
	if err := json.Unmarshal(raw, &prefs); err != nil || prefs == nil {
		return nil, ErrPreferences
	}
	if err := p.kv.Set(ctx, preferencesKey, prefs); err != nil {
		return nil, fmt.Errorf("save preferences: %w", err)
	}
	return prefs, nil
}
