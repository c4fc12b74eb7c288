package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nikhilbhutani/promptbench/internal/llm"
	"github.com/nikhilbhutani/promptbench/internal/prompt"
	"github.com/nikhilbhutani/promptbench/internal/runner"
	"github.com/nikhilbhutani/promptbench/internal/settings"
)

const maxBodyBytes = 10 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		apiErr *llm.APIError
		cfgErr *llm.ConfigError
		valErr *prompt.ValidationError
	)
	switch {
	case errors.As(err, &apiErr):
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":    apiErr.Error(),
			"provider": apiErr.Provider,
			"status":   apiErr.StatusCode,
		})
	case errors.As(err, &cfgErr):
		writeJSON(w, http.StatusPreconditionFailed, map[string]interface{}{
			"error":    cfgErr.Error(),
			"provider": cfgErr.Provider,
		})
	case errors.As(err, &valErr):
		writeMessage(w, http.StatusBadRequest, valErr.Error())
	case errors.Is(err, prompt.ErrFolderName),
		errors.Is(err, runner.ErrModelRequired),
		errors.Is(err, runner.ErrNoModels),
		errors.Is(err, settings.ErrPreferences):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, prompt.ErrNotFound), errors.Is(err, prompt.ErrFolderNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
