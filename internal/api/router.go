package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds all checks of one /health request.
const healthCheckTimeout = 3 * time.Second

// HealthChecker is a dependency whose state /health reports.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// buildRouter creates the root router. Everything under /api/v1 is served
// by the dispatcher, so routes registered later become reachable at once.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Mount("/", s.dispatcher)
	})

	return r
}

// handleHealth reports "ok" when every registered check passes and
// "degraded" with 503 otherwise.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status, code := "ok", http.StatusOK
	components := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check.HealthCheck(ctx); err != nil {
			components[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	body := map[string]any{
		"status":  status,
		"version": s.version,
	}
	if len(components) > 0 {
		body["components"] = components
	}
	WriteJSON(w, code, body)
}
