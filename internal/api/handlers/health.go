package handlers

import (
	"context"
	"net/http"
)

// Pinger is implemented by storage backends that talk to a server.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store interface{}
}

// NewHealthHandler checks store on /readyz when it implements Pinger.
func NewHealthHandler(store interface{}) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}

	if p, ok := h.store.(Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			checks["storage"] = "unhealthy: " + err.Error()
		} else {
			checks["storage"] = "ok"
		}
	}

	status := http.StatusOK
	for _, v := range checks {
		if v != "ok" {
			status = http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, status, map[string]interface{}{"status": statusStr(status), "checks": checks})
}

func statusStr(code int) string {
	if code == http.StatusOK {
		return "ok"
	}
	return "unhealthy"
}
