package http

import (
	"net/http"

	"github.com/linktofunnel/storefront/internal/contracts"
)

// Self-test endpoints let an operator verify collaborator credentials without
// waiting for a real sale.

func (h *Handler) testEmail(w http.ResponseWriter, r *http.Request) {
	var req contracts.TestSendRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeValidationError(r.Context(), w, "test_email", err)
			return
		}
	}
	if err := h.email.SendTestEmail(r.Context(), req.Recipient); err != nil {
		writeMappedError(r.Context(), w, "test_email", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"sent": true})
}

func (h *Handler) testNotification(w http.ResponseWriter, r *http.Request) {
	if err := h.notify.NotifySystemEvent(r.Context(), "info", "Storefront self-test: notification channel is working."); err != nil {
		writeMappedError(r.Context(), w, "test_notification", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"sent": true})
}
