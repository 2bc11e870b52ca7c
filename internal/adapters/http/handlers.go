package http

import (
	"net/http"
	"time"
)

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "storefront",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	// Readiness mirrors liveness: the service holds no warm-up state and the
	// database is validated at bootstrap.
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
