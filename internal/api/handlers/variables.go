package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/promptbench/internal/prompt"
)

type variablesRequest struct {
	SystemPrompt string            `json:"systemPrompt"`
	UserPrompt   string            `json:"userPrompt"`
	Bindings     map[string]string `json:"bindings"`
}

type variablesResponse struct {
	Variables    []string          `json:"variables"`
	Bindings     map[string]string `json:"bindings"`
	SystemPrompt string            `json:"systemPrompt"`
	UserPrompt   string            `json:"userPrompt"`
}

// Variables extracts placeholders from both texts, reconciles the caller's
// previous bindings against them and returns the rendered preview.
func Variables(w http.ResponseWriter, r *http.Request) {
	var req variablesRequest
	if !decode(w, r, &req) {
		return
	}
	names := prompt.ExtractVariables(req.SystemPrompt, req.UserPrompt)
	bindings := prompt.ReconcileBindings(names, req.Bindings)
	writeJSON(w, http.StatusOK, variablesResponse{
		Variables:    names,
		Bindings:     bindings,
		SystemPrompt: prompt.Substitute(req.SystemPrompt, bindings),
		UserPrompt:   prompt.Substitute(req.UserPrompt, bindings),
	})
}
