package ports

import (
	"context"

	"github.com/linktofunnel/storefront/internal/domain"
)

// PaymentProvider registers sellable offers with the processor. The returned
// listing carries the identifiers the webhook later needs for resolution.
type PaymentProvider interface {
	CreateListing(ctx context.Context, input ListingInput) (Listing, error)
}

type ListingInput struct {
	Name        string
	Description string
	PriceCents  int64
	Currency    string
	RedirectURL string
}

type Listing struct {
	StripeProductID string
	StripePriceID   string
	PaymentLink     string
}

// EmailSender delivers the purchase email. Failures are reported, not fatal;
// the dispatcher never rolls back a sale over a send error.
type EmailSender interface {
	SendPurchaseEmail(ctx context.Context, recipient, productName, downloadURL string) error
	SendTestEmail(ctx context.Context, recipient string) error
}

// Notifier posts operational messages to the chat channel.
type Notifier interface {
	NotifyNewSale(ctx context.Context, sale domain.Sale, productName string) error
	NotifySystemEvent(ctx context.Context, level, message string) error
}

// ContentGenerator produces structured guide content for a new product.
// Implementations must degrade to a placeholder rather than fail registration.
type ContentGenerator interface {
	GenerateGuide(ctx context.Context, name, description string) (domain.Guide, error)
}

// FileRenderer writes a guide to the product store and returns the file name.
type FileRenderer interface {
	RenderGuide(guide domain.Guide, baseName string) (string, error)
}
