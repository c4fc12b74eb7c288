package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nikhilbhutani/promptbench/internal/prompt"
)

type TransferHandler struct {
	svc *prompt.Service
	now func() time.Time
}

func NewTransferHandler(svc *prompt.Service) *TransferHandler {
	return &TransferHandler{svc: svc, now: time.Now}
}

// Export serves folders and prompts as a downloadable JSON file.
func (h *TransferHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Export(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("prompts-export-%s.json", h.now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Import replaces both collections with the uploaded file.
func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "could not read upload")
		return
	}
	b, err := h.svc.Import(r.Context(), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"folders": len(b.Folders), "prompts": len(b.Prompts)})
}
