package handlers

import (
	"io"
	"net/http"

	"github.com/nikhilbhutani/promptbench/internal/settings"
)

type PreferencesHandler struct {
	prefs *settings.Preferences
}

func NewPreferencesHandler(prefs *settings.Preferences) *PreferencesHandler {
	return &PreferencesHandler{prefs: prefs}
}

func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.prefs.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (h *PreferencesHandler) Put(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "could not read body")
		return
	}
	prefs, err := h.prefs.Put(r.Context(), raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
