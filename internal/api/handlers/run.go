package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nikhilbhutani/promptbench/internal/runner"
)

type RunHandler struct {
	runner *runner.Runner
}

func NewRunHandler(rn *runner.Runner) *RunHandler {
	return &RunHandler{runner: rn}
}

func (h *RunHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req runner.RunRequest
	if !decode(w, r, &req) {
		return
	}
	tr, err := h.runner.Run(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// Compare waits for every model and answers with all outcomes at once.
func (h *RunHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req runner.CompareRequest
	if !decode(w, r, &req) {
		return
	}
	outcomes, err := h.runner.Compare(r.Context(), req, nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"outcomes": outcomes, "done": true})
}

type compareEvent struct {
	Outcome  *runner.Outcome  `json:"outcome,omitempty"`
	Outcomes []runner.Outcome `json:"outcomes,omitempty"`
	Done     bool             `json:"done"`
}

// CompareStream sends one server-sent event per settled model, then a final
// event carrying every outcome with done set.
func (h *RunHandler) CompareStream(w http.ResponseWriter, r *http.Request) {
	var req runner.CompareRequest
	if !decode(w, r, &req) {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	batch, err := h.runner.Start(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for o := range batch.Updates() {
		writeEvent(w, compareEvent{Outcome: &o})
		flusher.Flush()
	}
	writeEvent(w, compareEvent{Outcomes: batch.Wait(), Done: true})
	flusher.Flush()
}

func writeEvent(w http.ResponseWriter, ev compareEvent) {
	data, _ := json.Marshal(ev)
	fmt.Fprintf(w, "data: %s\n\n", data)
}
