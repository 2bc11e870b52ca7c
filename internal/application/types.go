package application

import (
	"time"

	"github.com/linktofunnel/storefront/internal/ports"
)

// Config is the application-level configuration slice, resolved once at
// bootstrap and passed in explicitly.
type Config struct {
	BaseURL            string
	SuccessURL         string
	Currency           string
	DownloadTTL        time.Duration
	ProductFilesDir    string
	MonthlyTargetCents int64
	DownloadRateLimit  int
	DownloadRateWindow time.Duration
}

type Dependencies struct {
	Config     Config
	Products   ports.ProductRepository
	Sales      ports.SaleRepository
	Deliveries ports.DeliveryRepository
	Tokens     ports.TokenSigner
	Webhooks   ports.WebhookVerifier
	Payments   ports.PaymentProvider
	Content    ports.ContentGenerator
	Renderer   ports.FileRenderer
	Links      ports.PaymentLinkCache
	Limiter    ports.DownloadLimiter
	Notifier   ports.Notifier
}

type RegisterProductInput struct {
	Name        string
	Description string
	PriceCents  int64
	Currency    string
}

// Fulfillment terminal states.
const (
	OutcomeAcknowledgedNew       = "acknowledged_new"
	OutcomeAcknowledgedDuplicate = "acknowledged_duplicate"
	OutcomeIgnored               = "ignored"
)

type FulfillmentResult struct {
	Outcome   string
	OrderID   string
	Duplicate bool
}

// DownloadFile points the HTTP adapter at the bytes to stream.
type DownloadFile struct {
	Path     string
	FileName string
	Email    string
}
