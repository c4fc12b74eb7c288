package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilbhutani/promptbench/internal/models"
	"github.com/nikhilbhutani/promptbench/internal/prompt"
)

type PromptHandler struct {
	svc *prompt.Service
}

func NewPromptHandler(svc *prompt.Service) *PromptHandler {
	return &PromptHandler{svc: svc}
}

// List returns one row per lineage, its latest version.
func (h *PromptHandler) List(w http.ResponseWriter, r *http.Request) {
	prompts, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"prompts": prompts, "count": len(prompts)})
}

func (h *PromptHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req prompt.Draft
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PromptHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PromptHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req prompt.Draft
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete removes one version. The caller's current selection comes in the
// selected query parameter and the reselected id goes back in the body.
func (h *PromptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	next, err := h.svc.DeleteVersion(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("selected"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"selected": next})
}

func (h *PromptHandler) Fork(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Fork(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PromptHandler) NewVersion(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.NewVersion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PromptHandler) SaveTestResult(w http.ResponseWriter, r *http.Request) {
	var tr models.TestResult
	if !decode(w, r, &tr) {
		return
	}
	if err := h.svc.SaveTestResult(r.Context(), chi.URLParam(r, "id"), &tr); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PromptHandler) ClearTestResult(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SaveTestResult(r.Context(), chi.URLParam(r, "id"), nil); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Lineage returns every version of a lineage, newest first.
func (h *PromptHandler) Lineage(w http.ResponseWriter, r *http.Request) {
	versions, err := h.svc.Versions(r.Context(), chi.URLParam(r, "baseID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"versions": versions, "count": len(versions)})
}

func (h *PromptHandler) DeleteLineage(w http.ResponseWriter, r *http.Request) {
	next, err := h.svc.DeleteLineage(r.Context(), chi.URLParam(r, "baseID"), r.URL.Query().Get("selected"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"selected": next})
}

func (h *PromptHandler) MoveLineage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FolderID *string `json:"folderId"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.MoveLineage(r.Context(), chi.URLParam(r, "baseID"), req.FolderID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
