package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/promptbench/internal/settings"
)

type ModelHandler struct {
	catalog *settings.Catalog
}

func NewModelHandler(catalog *settings.Catalog) *ModelHandler {
	return &ModelHandler{catalog: catalog}
}

func (h *ModelHandler) List(w http.ResponseWriter, r *http.Request) {
	defs, err := h.catalog.Models(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": defs})
}

func (h *ModelHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	defs, err := h.catalog.Refresh(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": defs})
}
