package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilbhutani/promptbench/internal/models"
	"github.com/nikhilbhutani/promptbench/internal/settings"
)

type KeyHandler struct {
	keys *settings.Keys
}

func NewKeyHandler(keys *settings.Keys) *KeyHandler {
	return &KeyHandler{keys: keys}
}

// List never returns raw keys.
func (h *KeyHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.keys.All(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make(map[models.Provider]models.APIKeyConfig, len(all))
	for p, cfg := range all {
		out[p] = cfg.Redacted()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"keys": out})
}

func (h *KeyHandler) Put(w http.ResponseWriter, r *http.Request) {
	provider, err := models.ParseProvider(chi.URLParam(r, "provider"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Key string `json:"key"`
	}
	if !decode(w, r, &req) {
		return
	}

	cfg, err := h.keys.Submit(r.Context(), provider, req.Key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"provider": provider, "key": cfg.Redacted()})
}
