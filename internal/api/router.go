package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/categories", s.handleListCategories)

		r.Route("/tools", func(r chi.Router) {
			r.Get("/", s.handleListTools)
			r.Get("/openai", s.handleOpenAITools)
			r.Post("/{name}/execute", s.handleExecuteTool)
		})

		r.Get("/tool-calls", s.handleListToolCalls)
	})

	return r
}

// handleHealth answers 503 with status "degraded" when any dependency
// check fails.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	body := map[string]any{
		"version": s.version,
		"tools":   len(s.catalog.Tools()),
	}

	if len(s.checks) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		components := make(map[string]string, len(s.checks))
		for name, check := range s.checks {
			if err := check.HealthCheck(ctx); err != nil {
				components[name] = err.Error()
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			components[name] = "ok"
		}
		body["components"] = components
	}
	body["status"] = status

	if s.device != nil {
		body["device"] = map[string]any{
			"connected": s.device.Connected(),
			"devices":   s.device.DeviceCount(),
		}
	}
	writeJSON(w, code, body)
}
