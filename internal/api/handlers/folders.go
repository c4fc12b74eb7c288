package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilbhutani/promptbench/internal/prompt"
)

type FolderHandler struct {
	svc *prompt.Service
}

func NewFolderHandler(svc *prompt.Service) *FolderHandler {
	return &FolderHandler{svc: svc}
}

type folderRequest struct {
	Name string `json:"name"`
}

func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	folders, err := h.svc.Folders(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"folders": folders, "count": len(folders)})
}

func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if !decode(w, r, &req) {
		return
	}
	f, err := h.svc.CreateFolder(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *FolderHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.RenameFolder(r.Context(), chi.URLParam(r, "id"), req.Name); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteFolder(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
