package http

import (
	"io"
	"net/http"

	"github.com/linktofunnel/storefront/internal/application"
	"github.com/linktofunnel/storefront/internal/contracts"
)

const maxWebhookBody = 1 << 20

// stripeWebhook ingests payment-completion events. Once the event is
// authenticated, the response is always 200 — for new sales and for replays —
// so the processor never enters a retry storm over delivery hiccups.
func (h *Handler) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeValidationError(r.Context(), w, "stripe_webhook", err)
		return
	}

	result, err := h.service.HandlePaymentEvent(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		writeMappedError(r.Context(), w, "stripe_webhook", err)
		return
	}

	if result.Outcome == application.OutcomeIgnored {
		writeJSON(w, http.StatusOK, contracts.WebhookAck{Received: true, Outcome: result.Outcome})
		return
	}
	writeJSON(w, http.StatusOK, contracts.WebhookAck{
		Received:  true,
		Outcome:   result.Outcome,
		OrderID:   result.OrderID,
		Duplicate: result.Duplicate,
	})
}
