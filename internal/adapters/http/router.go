package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linktofunnel/storefront/internal/application"
	"github.com/linktofunnel/storefront/internal/ports"
)

// Handler is the HTTP adapter entrypoint for storefront use-cases.
type Handler struct {
	service *application.Service
	keys    ports.KeyChecker
	email   ports.EmailSender
	notify  ports.Notifier
}

func NewHandler(service *application.Service, keys ports.KeyChecker, email ports.EmailSender, notify ports.Notifier) *Handler {
	return &Handler{service: service, keys: keys, email: email, notify: notify}
}

// NewRouter registers routes and the middleware stack. The webhook and
// download endpoints are public by design; operator endpoints sit behind the
// API-key middleware.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Post("/stripe-webhook", handler.stripeWebhook)
	r.Get("/download/{token}", handler.download)
	r.Get("/payment-link", handler.paymentLink)
	r.Get("/metrics/kpis", handler.kpiSnapshot)

	r.Group(func(r chi.Router) {
		r.Use(handler.operatorAuthMiddleware)
		r.Post("/products", handler.registerProduct)
		r.Get("/products", handler.listProducts)
		r.Post("/test/email", handler.testEmail)
		r.Post("/test/notification", handler.testNotification)
	})

	return r
}
