package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linktofunnel/storefront/internal/contracts"
	"github.com/linktofunnel/storefront/internal/domain"
	"github.com/linktofunnel/storefront/internal/ports"
)

// Service implements product registration, webhook fulfillment, and the
// download gateway over the injected ports.
type Service struct {
	cfg        Config
	products   ports.ProductRepository
	sales      ports.SaleRepository
	deliveries ports.DeliveryRepository
	tokens     ports.TokenSigner
	webhooks   ports.WebhookVerifier
	payments   ports.PaymentProvider
	content    ports.ContentGenerator
	renderer   ports.FileRenderer
	links      ports.PaymentLinkCache
	limiter    ports.DownloadLimiter
	notifier   ports.Notifier
	nowFn      func() time.Time
}

func NewService(deps Dependencies) *Service {
	s := &Service{
		cfg:        deps.Config,
		products:   deps.Products,
		sales:      deps.Sales,
		deliveries: deps.Deliveries,
		tokens:     deps.Tokens,
		webhooks:   deps.Webhooks,
		payments:   deps.Payments,
		content:    deps.Content,
		renderer:   deps.Renderer,
		links:      deps.Links,
		limiter:    deps.Limiter,
		notifier:   deps.Notifier,
		nowFn:      time.Now,
	}
	if s.cfg.DownloadTTL <= 0 {
		s.cfg.DownloadTTL = 24 * time.Hour
	}
	if s.cfg.Currency == "" {
		s.cfg.Currency = "eur"
	}
	if s.cfg.DownloadRateWindow <= 0 {
		s.cfg.DownloadRateWindow = time.Minute
	}
	return s
}

func (s *Service) logger() *slog.Logger {
	return slog.Default().With("module", "application", "layer", "service")
}

// RegisterProduct builds the full offer: generated guide content, rendered
// file, processor-side listing, and the ledger row. Content generation
// degrades to a placeholder so a collaborator outage never blocks a launch.
func (s *Service) RegisterProduct(ctx context.Context, input RegisterProductInput) (domain.Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" || input.PriceCents < 0 {
		return domain.Product{}, domain.ErrInvalidInput
	}
	currency := strings.ToLower(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = s.cfg.Currency
	}

	guide, err := s.content.GenerateGuide(ctx, input.Name, input.Description)
	if err != nil {
		s.logger().WarnContext(ctx, "content generation failed; using placeholder",
			"operation", "register_product",
			"outcome", "degraded",
			"product_name", input.Name,
			"error", err,
		)
		guide = placeholderGuide(input.Name, input.Description)
	}

	fileName, err := s.renderer.RenderGuide(guide, input.Name)
	if err != nil {
		return domain.Product{}, fmt.Errorf("render product file: %w", err)
	}

	now := s.nowFn().UTC()
	listing, err := s.payments.CreateListing(ctx, ports.ListingInput{
		Name:        input.Name,
		Description: input.Description,
		PriceCents:  input.PriceCents,
		Currency:    currency,
		RedirectURL: s.cfg.SuccessURL,
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("create payment listing: %w", err)
	}

	// The processor issues the product ID and stamps it into the payment
	// link's metadata; storing the same ID keeps webhook resolution exact.
	product := domain.Product{
		ProductID:     listing.StripeProductID,
		Name:          input.Name,
		Description:   input.Description,
		PriceCents:    input.PriceCents,
		Currency:      currency,
		FileName:      fileName,
		StripePriceID: listing.StripePriceID,
		PaymentLink:   listing.PaymentLink,
		CreatedAt:     now,
	}
	if product.ProductID == "" {
		product.ProductID = "prod-" + domain.NewOrderID(now)[4:]
	}

	if err := s.products.Create(ctx, product); err != nil {
		return domain.Product{}, err
	}

	if s.links != nil {
		if err := s.links.SetLatest(ctx, product.PaymentLink); err != nil {
			s.logger().WarnContext(ctx, "payment link cache update failed",
				"operation", "register_product",
				"outcome", "degraded",
				"product_id", product.ProductID,
				"error", err,
			)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifySystemEvent(ctx, "success", "New offer live: "+product.Name); err != nil {
			s.logger().WarnContext(ctx, "launch notification failed",
				"operation", "register_product",
				"outcome", "degraded",
				"product_id", product.ProductID,
				"error", err,
			)
		}
	}

	s.logger().InfoContext(ctx, "product registered",
		"operation", "register_product",
		"outcome", "success",
		"product_id", product.ProductID,
		"price_cents", product.PriceCents,
	)
	return product, nil
}

// LatestPaymentLink serves the landing page poll: cache first, ledger fallback.
func (s *Service) LatestPaymentLink(ctx context.Context) (string, error) {
	if s.links != nil {
		link, err := s.links.GetLatest(ctx)
		if err == nil && link != "" {
			return link, nil
		}
		if err != nil {
			s.logger().WarnContext(ctx, "payment link cache read failed",
				"operation", "latest_payment_link",
				"outcome", "degraded",
				"error", err,
			)
		}
	}
	product, err := s.products.Latest(ctx)
	if err != nil {
		return "", err
	}
	if product.PaymentLink == "" {
		return "", domain.ErrNotFound
	}
	return product.PaymentLink, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}

// HandlePaymentEvent drives one payment-completion event through verify →
// dedup-by-insert → mint → record → enqueue delivery. Everything before the
// sale row is all-or-nothing; everything after is queued and best-effort.
func (s *Service) HandlePaymentEvent(ctx context.Context, payload []byte, signatureHeader string) (FulfillmentResult, error) {
	if err := s.webhooks.Verify(payload, signatureHeader, s.nowFn()); err != nil {
		return FulfillmentResult{}, err
	}

	var event contracts.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return FulfillmentResult{}, domain.ErrInvalidInput
	}
	if event.Type != contracts.EventCheckoutSessionCompleted {
		return FulfillmentResult{Outcome: OutcomeIgnored}, nil
	}

	var session contracts.CheckoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return FulfillmentResult{}, domain.ErrInvalidInput
	}
	email := strings.TrimSpace(session.CustomerDetails.Email)
	if session.ID == "" || email == "" {
		return FulfillmentResult{}, domain.ErrInvalidInput
	}

	product, err := s.resolveProduct(ctx, session)
	if err != nil {
		return FulfillmentResult{}, err
	}

	now := s.nowFn().UTC()
	token, err := s.tokens.Mint(email, product.ProductID, s.cfg.DownloadTTL)
	if err != nil {
		return FulfillmentResult{}, fmt.Errorf("mint download token: %w", err)
	}

	sale := domain.Sale{
		OrderID:         domain.NewOrderID(now),
		StripeSessionID: session.ID,
		ProductID:       product.ProductID,
		CustomerEmail:   email,
		AmountCents:     session.AmountTotal,
		DownloadToken:   token,
		CreatedAt:       now,
	}

	if err := s.sales.Create(ctx, sale); err != nil {
		if errors.Is(err, domain.ErrDuplicateSale) {
			existing, lookupErr := s.sales.GetBySessionID(ctx, session.ID)
			if lookupErr != nil {
				return FulfillmentResult{}, lookupErr
			}
			s.logger().InfoContext(ctx, "duplicate payment event acknowledged",
				"operation", "handle_payment_event",
				"outcome", "duplicate",
				"session_id", session.ID,
				"order_id", existing.OrderID,
			)
			return FulfillmentResult{
				Outcome:   OutcomeAcknowledgedDuplicate,
				OrderID:   existing.OrderID,
				Duplicate: true,
			}, nil
		}
		return FulfillmentResult{}, err
	}

	task := domain.DeliveryTask{
		OrderID:       sale.OrderID,
		CustomerEmail: email,
		ProductName:   product.Name,
		AmountCents:   sale.AmountCents,
		DownloadURL:   s.cfg.BaseURL + "/download/" + token,
		Status:        domain.DeliveryPending,
		CreatedAt:     now,
	}
	if err := s.deliveries.Enqueue(ctx, task); err != nil {
		// The sale stands; the task is recoverable by manual replay.
		s.logger().ErrorContext(ctx, "delivery enqueue failed after sale recorded",
			"operation", "handle_payment_event",
			"outcome", "degraded",
			"order_id", sale.OrderID,
			"error", err,
		)
	}

	s.logger().InfoContext(ctx, "sale recorded",
		"operation", "handle_payment_event",
		"outcome", "success",
		"order_id", sale.OrderID,
		"session_id", session.ID,
		"product_id", product.ProductID,
		"amount_cents", sale.AmountCents,
	)
	return FulfillmentResult{Outcome: OutcomeAcknowledgedNew, OrderID: sale.OrderID}, nil
}

// resolveProduct keys off identifiers carried in the event itself: the
// metadata product ID we stamp on the payment link, then the line-item price.
// A "most recently created product" fallback is deliberately absent; it
// misfulfills as soon as two offers are live at once.
func (s *Service) resolveProduct(ctx context.Context, session contracts.CheckoutSession) (domain.Product, error) {
	if id := strings.TrimSpace(session.Metadata["product_id"]); id != "" {
		product, err := s.products.GetByID(ctx, id)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Product{}, err
		}
	}
	for _, item := range session.LineItems.Data {
		if item.Price.ID == "" {
			continue
		}
		product, err := s.products.GetByPriceID(ctx, item.Price.ID)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Product{}, err
		}
	}
	return domain.Product{}, domain.ErrInvalidInput
}

// ResolveDownload validates a credential and locates the file to stream.
// Authorization failures and missing files stay distinguishable end to end.
func (s *Service) ResolveDownload(ctx context.Context, token, clientIP string) (DownloadFile, error) {
	if s.limiter != nil && s.cfg.DownloadRateLimit > 0 {
		allowed, err := s.limiter.Allow(ctx, clientIP, s.cfg.DownloadRateLimit, s.cfg.DownloadRateWindow)
		if err != nil {
			s.logger().WarnContext(ctx, "download limiter unavailable",
				"operation", "resolve_download",
				"outcome", "degraded",
				"error", err,
			)
		} else if !allowed {
			return DownloadFile{}, domain.ErrRateLimited
		}
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.logger().WarnContext(ctx, "download token rejected",
			"operation", "resolve_download",
			"outcome", "failure",
			"reason", err.Error(),
		)
		return DownloadFile{}, err
	}

	product, err := s.products.GetByID(ctx, claims.ProductID)
	if err != nil {
		return DownloadFile{}, err
	}
	if product.FileName == "" {
		return DownloadFile{}, domain.ErrFileMissing
	}

	path := filepath.Join(s.cfg.ProductFilesDir, filepath.Base(product.FileName))
	if _, err := os.Stat(path); err != nil {
		s.logger().ErrorContext(ctx, "product file missing from storage",
			"operation", "resolve_download",
			"outcome", "failure",
			"product_id", product.ProductID,
			"file", product.FileName,
		)
		return DownloadFile{}, domain.ErrFileMissing
	}

	s.logger().InfoContext(ctx, "download authorized",
		"operation", "resolve_download",
		"outcome", "success",
		"product_id", product.ProductID,
		"email", claims.Email,
	)
	return DownloadFile{Path: path, FileName: product.FileName, Email: claims.Email}, nil
}

func placeholderGuide(name, description string) domain.Guide {
	return domain.Guide{
		Title: name,
		Chapters: []domain.GuideChapter{
			{Title: "Introduction", Content: description},
			{Title: "Your Guide", Content: "The full content for " + name + " is being prepared. This edition contains the essentials to get started right away."},
		},
	}
}
