package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/promptbench/internal/api/handlers"
	"github.com/nikhilbhutani/promptbench/internal/api/middleware"
	"github.com/nikhilbhutani/promptbench/internal/config"
	"github.com/nikhilbhutani/promptbench/internal/kv"
	"github.com/nikhilbhutani/promptbench/internal/prompt"
	"github.com/nikhilbhutani/promptbench/internal/runner"
	"github.com/nikhilbhutani/promptbench/internal/settings"
)

// Services groups everything the handlers call into.
type Services struct {
	Store       kv.Store
	Prompts     *prompt.Service
	Keys        *settings.Keys
	Catalog     *settings.Catalog
	Preferences *settings.Preferences
	Runner      *runner.Runner
}

type Router struct {
	mux     *chi.Mux
	cfg     config.ServerConfig
	svc     Services
	limiter *middleware.RateLimiter
}

func NewRouter(cfg config.ServerConfig, svc Services) *Router {
	rt := &Router{
		mux: chi.NewRouter(),
		cfg: cfg,
		svc: svc,
	}
	if cfg.RunRateLimit > 0 {
		rt.limiter = middleware.NewRateLimiter(float64(cfg.RunRateLimit), cfg.RunRateBurst)
	}
	return rt
}

// Close releases the rate limiter.
func (rt *Router) Close() {
	if rt.limiter != nil {
		rt.limiter.Close()
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.AllowedOrigins))

	health := handlers.NewHealthHandler(rt.svc.Store)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	r.Route("/api/v1", func(r chi.Router) {
		modelH := handlers.NewModelHandler(rt.svc.Catalog)
		r.Get("/models", modelH.List)
		r.Post("/models/refresh", modelH.Refresh)

		keyH := handlers.NewKeyHandler(rt.svc.Keys)
		r.Get("/keys", keyH.List)
		r.Put("/keys/{provider}", keyH.Put)

		folderH := handlers.NewFolderHandler(rt.svc.Prompts)
		r.Route("/folders", func(r chi.Router) {
			r.Get("/", folderH.List)
			r.Post("/", folderH.Create)
			r.Put("/{id}", folderH.Rename)
			r.Delete("/{id}", folderH.Delete)
		})

		promptH := handlers.NewPromptHandler(rt.svc.Prompts)
		r.Route("/prompts", func(r chi.Router) {
			r.Get("/", promptH.List)
			r.Post("/", promptH.Create)
			r.Get("/{id}", promptH.Get)
			r.Put("/{id}", promptH.Update)
			r.Delete("/{id}", promptH.Delete)
			r.Post("/{id}/fork", promptH.Fork)
			r.Post("/{id}/versions", promptH.NewVersion)
			r.Put("/{id}/test-result", promptH.SaveTestResult)
			r.Delete("/{id}/test-result", promptH.ClearTestResult)
		})
		r.Route("/lineages/{baseID}", func(r chi.Router) {
			r.Get("/", promptH.Lineage)
			r.Delete("/", promptH.DeleteLineage)
			r.Put("/folder", promptH.MoveLineage)
		})

		r.Post("/variables", handlers.Variables)

		runH := handlers.NewRunHandler(rt.svc.Runner)
		r.Group(func(r chi.Router) {
			if rt.limiter != nil {
				r.Use(rt.limiter.Limit)
			}
			r.Post("/run", runH.Run)
			r.Post("/compare", runH.Compare)
			r.Post("/compare/stream", runH.CompareStream)
		})

		transferH := handlers.NewTransferHandler(rt.svc.Prompts)
		r.Get("/export", transferH.Export)
		r.Post("/import", transferH.Import)

		prefsH := handlers.NewPreferencesHandler(rt.svc.Preferences)
		r.Get("/preferences", prefsH.Get)
		r.Put("/preferences", prefsH.Put)
	})

	return r
}
