package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/linktofunnel/storefront/internal/adapters/security"
	"github.com/linktofunnel/storefront/internal/domain"
	"github.com/linktofunnel/storefront/internal/ports"
)

type memProducts struct {
	mu    sync.Mutex
	items map[string]domain.Product
}

func newMemProducts() *memProducts {
	return &memProducts{items: map[string]domain.Product{}}
}

func (m *memProducts) Create(_ context.Context, product domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[product.ProductID] = product
	return nil
}

func (m *memProducts) GetByID(_ context.Context, productID string) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.items[productID]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return product, nil
}

func (m *memProducts) GetByPriceID(_ context.Context, priceID string) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, product := range m.items {
		if product.StripePriceID == priceID {
			return product, nil
		}
	}
	return domain.Product{}, domain.ErrNotFound
}

func (m *memProducts) Latest(_ context.Context) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest domain.Product
	found := false
	for _, product := range m.items {
		if !found || product.CreatedAt.After(latest.CreatedAt) {
			latest = product
			found = true
		}
	}
	if !found {
		return domain.Product{}, domain.ErrNotFound
	}
	return latest, nil
}

func (m *memProducts) List(_ context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Product, 0, len(m.items))
	for _, product := range m.items {
		out = append(out, product)
	}
	return out, nil
}

// memSales enforces session-ID uniqueness under a lock, mirroring the
// database constraint the real repository relies on.
type memSales struct {
	mu        sync.Mutex
	bySession map[string]domain.Sale
	stats     ports.RevenueStats
	useStats  bool
}

func newMemSales() *memSales {
	return &memSales{bySession: map[string]domain.Sale{}}
}

func (m *memSales) Create(_ context.Context, sale domain.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.bySession[sale.StripeSessionID]; exists {
		return domain.ErrDuplicateSale
	}
	m.bySession[sale.StripeSessionID] = sale
	return nil
}

func (m *memSales) GetBySessionID(_ context.Context, sessionID string) (domain.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sale, ok := m.bySession[sessionID]
	if !ok {
		return domain.Sale{}, domain.ErrNotFound
	}
	return sale, nil
}

func (m *memSales) RevenueStats(_ context.Context, _ time.Time) (ports.RevenueStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.useStats {
		return m.stats, nil
	}
	var stats ports.RevenueStats
	for _, sale := range m.bySession {
		stats.TotalSales++
		stats.TotalRevenueCents += sale.AmountCents
	}
	return stats, nil
}

func (m *memSales) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bySession)
}

type memDeliveries struct {
	mu    sync.Mutex
	tasks []domain.DeliveryTask
}

func (m *memDeliveries) Enqueue(_ context.Context, task domain.DeliveryTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *memDeliveries) ClaimPending(_ context.Context, limit int, _ string, _ time.Time) ([]domain.DeliveryTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.tasks) {
		limit = len(m.tasks)
	}
	return append([]domain.DeliveryTask(nil), m.tasks[:limit]...), nil
}

func (m *memDeliveries) MarkDelivered(_ context.Context, _, _ string, _ time.Time) error { return nil }

func (m *memDeliveries) MarkFailed(_ context.Context, _, _, _ string, _ bool, _ time.Time) error {
	return nil
}

func (m *memDeliveries) snapshot() []domain.DeliveryTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.DeliveryTask(nil), m.tasks...)
}

type fakePayments struct {
	lastInput ports.ListingInput
	err       error
}

func (f *fakePayments) CreateListing(_ context.Context, input ports.ListingInput) (ports.Listing, error) {
	if f.err != nil {
		return ports.Listing{}, f.err
	}
	f.lastInput = input
	return ports.Listing{
		StripeProductID: "prod_stripe_1",
		StripePriceID:   "price_stripe_1",
		PaymentLink:     "https://buy.stripe.test/link_1",
	}, nil
}

type fakeContent struct {
	guide domain.Guide
	err   error
}

func (f *fakeContent) GenerateGuide(_ context.Context, name, _ string) (domain.Guide, error) {
	if f.err != nil {
		return domain.Guide{}, f.err
	}
	if f.guide.Title == "" {
		return domain.Guide{Title: name, Chapters: []domain.GuideChapter{{Title: "One", Content: "body"}}}, nil
	}
	return f.guide, nil
}

// fakeRenderer writes an empty file into dir so the download path has real
// bytes to stat.
type fakeRenderer struct {
	dir       string
	lastGuide domain.Guide
}

func (f *fakeRenderer) RenderGuide(guide domain.Guide, baseName string) (string, error) {
	f.lastGuide = guide
	name := strings.ReplaceAll(strings.ToLower(baseName), " ", "_") + ".pdf"
	if err := os.WriteFile(filepath.Join(f.dir, name), []byte("%PDF-1.4"), 0o644); err != nil {
		return "", err
	}
	return name, nil
}

type memLinks struct {
	mu   sync.Mutex
	link string
}

func (m *memLinks) SetLatest(_ context.Context, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.link = link
	return nil
}

func (m *memLinks) GetLatest(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.link, nil
}

type fakeLimiter struct {
	allow bool
	err   error
}

func (f *fakeLimiter) Allow(_ context.Context, _ string, _ int, _ time.Duration) (bool, error) {
	return f.allow, f.err
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeNotifier) NotifyNewSale(_ context.Context, sale domain.Sale, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "sale:"+sale.OrderID)
	return nil
}

func (f *fakeNotifier) NotifySystemEvent(_ context.Context, level, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "system:"+level)
	return nil
}

type fixture struct {
	service    *Service
	products   *memProducts
	sales      *memSales
	deliveries *memDeliveries
	payments   *fakePayments
	content    *fakeContent
	renderer   *fakeRenderer
	links      *memLinks
	limiter    *fakeLimiter
	notifier   *fakeNotifier
	tokens     *security.TokenSigner
	webhooks   *security.WebhookVerifier
	filesDir   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	filesDir := t.TempDir()
	tokens, err := security.NewTokenSigner("test-download-secret")
	if err != nil {
		t.Fatalf("new token signer: %v", err)
	}
	webhooks, err := security.NewWebhookVerifier("whsec_test", 5*time.Minute)
	if err != nil {
		t.Fatalf("new webhook verifier: %v", err)
	}

	f := &fixture{
		products:   newMemProducts(),
		sales:      newMemSales(),
		deliveries: &memDeliveries{},
		payments:   &fakePayments{},
		content:    &fakeContent{},
		renderer:   &fakeRenderer{dir: filesDir},
		links:      &memLinks{},
		limiter:    &fakeLimiter{allow: true},
		notifier:   &fakeNotifier{},
		tokens:     tokens,
		webhooks:   webhooks,
		filesDir:   filesDir,
	}
	f.service = NewService(Dependencies{
		Config: Config{
			BaseURL:            "https://shop.example.com",
			SuccessURL:         "https://shop.example.com/thank-you",
			Currency:           "eur",
			DownloadTTL:        24 * time.Hour,
			ProductFilesDir:    filesDir,
			MonthlyTargetCents: 100000,
			DownloadRateLimit:  30,
			DownloadRateWindow: time.Minute,
		},
		Products:   f.products,
		Sales:      f.sales,
		Deliveries: f.deliveries,
		Tokens:     f.tokens,
		Webhooks:   f.webhooks,
		Payments:   f.payments,
		Content:    f.content,
		Renderer:   f.renderer,
		Links:      f.links,
		Limiter:    f.limiter,
		Notifier:   f.notifier,
	})
	return f
}

func (f *fixture) seedProduct(t *testing.T, productID, priceID string) domain.Product {
	t.Helper()
	fileName := productID + ".pdf"
	if err := os.WriteFile(filepath.Join(f.filesDir, fileName), []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("seed product file: %v", err)
	}
	product := domain.Product{
		ProductID:     productID,
		Name:          "Test Guide",
		PriceCents:    1999,
		Currency:      "eur",
		StripePriceID: priceID,
		PaymentLink:   "https://buy.stripe.test/" + productID,
		FileName:      fileName,
		CreatedAt:     time.Now().UTC(),
	}
	if err := f.products.Create(context.Background(), product); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func (f *fixture) signedEvent(t *testing.T, eventType string, session map[string]any) ([]byte, string) {
	t.Helper()
	object, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	payload, err := json.Marshal(map[string]any{
		"id":   "evt_1",
		"type": eventType,
		"data": map[string]any{"object": json.RawMessage(object)},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return payload, f.webhooks.SignPayload(payload, time.Now())
}

func checkoutSessionBody(sessionID, email, productID string, amount int64) map[string]any {
	return map[string]any{
		"id":           sessionID,
		"amount_total": amount,
		"currency":     "eur",
		"metadata":     map[string]string{"product_id": productID},
		"customer_details": map[string]any{
			"email": email,
		},
	}
}

func TestHandlePaymentEventFulfillsSale(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "prod_abc", "price_abc")

	payload, sig := f.signedEvent(t, "checkout.session.completed",
		checkoutSessionBody("sess_123", "buyer@example.com", product.ProductID, 1999))

	result, err := f.service.HandlePaymentEvent(ctx, payload, sig)
	if err != nil {
		t.Fatalf("handle payment event failed: %v", err)
	}
	if result.Outcome != OutcomeAcknowledgedNew {
		t.Fatalf("expected acknowledged_new, got %q", result.Outcome)
	}
	if !strings.HasPrefix(result.OrderID, "ORD-") {
		t.Fatalf("unexpected order id format: %q", result.OrderID)
	}

	sale, err := f.sales.GetBySessionID(ctx, "sess_123")
	if err != nil {
		t.Fatalf("sale not recorded: %v", err)
	}
	if sale.CustomerEmail != "buyer@example.com" || sale.AmountCents != 1999 || sale.ProductID != product.ProductID {
		t.Fatalf("sale fields mismatch: %+v", sale)
	}

	claims, err := f.tokens.Verify(sale.DownloadToken)
	if err != nil {
		t.Fatalf("recorded token does not verify: %v", err)
	}
	if claims.Email != "buyer@example.com" || claims.ProductID != product.ProductID {
		t.Fatalf("token claims mismatch: %+v", claims)
	}
	if got, want := claims.ExpiresAt.Sub(claims.IssuedAt), 24*time.Hour; got != want {
		t.Fatalf("token ttl = %v, want %v", got, want)
	}

	tasks := f.deliveries.snapshot()
	if len(tasks) != 1 {
		t.Fatalf("expected one delivery task, got %d", len(tasks))
	}
	if tasks[0].OrderID != sale.OrderID || tasks[0].CustomerEmail != "buyer@example.com" {
		t.Fatalf("delivery task mismatch: %+v", tasks[0])
	}
	if !strings.HasPrefix(tasks[0].DownloadURL, "https://shop.example.com/download/") {
		t.Fatalf("unexpected download url: %q", tasks[0].DownloadURL)
	}
}

func TestHandlePaymentEventDuplicateReplay(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "prod_dup", "price_dup")

	payload, sig := f.signedEvent(t, "checkout.session.completed",
		checkoutSessionBody("sess_replay", "buyer@example.com", product.ProductID, 1999))

	first, err := f.service.HandlePaymentEvent(ctx, payload, sig)
	if err != nil {
		t.Fatalf("first event failed: %v", err)
	}
	second, err := f.service.HandlePaymentEvent(ctx, payload, sig)
	if err != nil {
		t.Fatalf("replayed event failed: %v", err)
	}

	if second.Outcome != OutcomeAcknowledgedDuplicate || !second.Duplicate {
		t.Fatalf("expected acknowledged_duplicate, got %+v", second)
	}
	if second.OrderID != first.OrderID {
		t.Fatalf("replay returned a different order id: %q vs %q", second.OrderID, first.OrderID)
	}
	if f.sales.count() != 1 {
		t.Fatalf("expected one sale row, got %d", f.sales.count())
	}
	if tasks := f.deliveries.snapshot(); len(tasks) != 1 {
		t.Fatalf("replay must not enqueue a second delivery, got %d", len(tasks))
	}
}

func TestHandlePaymentEventConcurrentSameSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "prod_race", "price_race")

	payload, sig := f.signedEvent(t, "checkout.session.completed",
		checkoutSessionBody("sess_race", "buyer@example.com", product.ProductID, 4999))

	const workers = 8
	results := make([]FulfillmentResult, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.service.HandlePaymentEvent(ctx, payload, sig)
		}(i)
	}
	wg.Wait()

	newCount := 0
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d failed: %v", i, errs[i])
		}
		if results[i].Outcome == OutcomeAcknowledgedNew {
			newCount++
		}
	}
	if newCount != 1 {
		t.Fatalf("expected exactly one acknowledged_new, got %d", newCount)
	}
	if f.sales.count() != 1 {
		t.Fatalf("expected one sale row, got %d", f.sales.count())
	}
}

func TestHandlePaymentEventIgnoresOtherEventTypes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	payload, sig := f.signedEvent(t, "invoice.paid",
		checkoutSessionBody("sess_other", "buyer@example.com", "prod_x", 500))

	result, err := f.service.HandlePaymentEvent(context.Background(), payload, sig)
	if err != nil {
		t.Fatalf("ignored event returned error: %v", err)
	}
	if result.Outcome != OutcomeIgnored {
		t.Fatalf("expected ignored, got %q", result.Outcome)
	}
	if f.sales.count() != 0 {
		t.Fatalf("ignored event must not record a sale")
	}
}

func TestHandlePaymentEventRejectsBadSignature(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	product := f.seedProduct(t, "prod_sig", "price_sig")
	payload, sig := f.signedEvent(t, "checkout.session.completed",
		checkoutSessionBody("sess_sig", "buyer@example.com", product.ProductID, 1999))

	tampered := append([]byte(nil), payload...)
	tampered[len(tampered)-2] ^= 0x01

	if _, err := f.service.HandlePaymentEvent(context.Background(), tampered, sig); !errors.Is(err, domain.ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
	if f.sales.count() != 0 {
		t.Fatalf("unauthenticated event must not record a sale")
	}
}

func TestHandlePaymentEventMissingEmail(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	product := f.seedProduct(t, "prod_mail", "price_mail")
	session := checkoutSessionBody("sess_mail", "", product.ProductID, 1999)
	payload, sig := f.signedEvent(t, "checkout.session.completed", session)

	if _, err := f.service.HandlePaymentEvent(context.Background(), payload, sig); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestHandlePaymentEventResolvesByLineItemPrice(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "prod_price", "price_lookup")

	session := map[string]any{
		"id":           "sess_price",
		"amount_total": int64(1999),
		"currency":     "eur",
		"customer_details": map[string]any{
			"email": "buyer@example.com",
		},
		"line_items": map[string]any{
			"data": []map[string]any{
				{"price": map[string]any{"id": "price_lookup"}},
			},
		},
	}
	payload, sig := f.signedEvent(t, "checkout.session.completed", session)

	result, err := f.service.HandlePaymentEvent(ctx, payload, sig)
	if err != nil {
		t.Fatalf("handle payment event failed: %v", err)
	}
	sale, err := f.sales.GetBySessionID(ctx, "sess_price")
	if err != nil {
		t.Fatalf("sale not recorded: %v", err)
	}
	if sale.ProductID != product.ProductID {
		t.Fatalf("resolved wrong product: %q", sale.ProductID)
	}
	if result.Outcome != OutcomeAcknowledgedNew {
		t.Fatalf("unexpected outcome %q", result.Outcome)
	}
}

func TestHandlePaymentEventUnresolvableProduct(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	// A live product exists, but the event references nothing we know. The
	// sale must fail rather than fall back to the newest offer.
	f.seedProduct(t, "prod_live", "price_live")

	payload, sig := f.signedEvent(t, "checkout.session.completed",
		checkoutSessionBody("sess_unknown", "buyer@example.com", "prod_ghost", 1999))

	if _, err := f.service.HandlePaymentEvent(context.Background(), payload, sig); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if f.sales.count() != 0 {
		t.Fatalf("unresolvable event must not record a sale")
	}
}

func TestResolveDownload(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "prod_dl", "price_dl")

	token, err := f.tokens.Mint("buyer@example.com", product.ProductID, time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	file, err := f.service.ResolveDownload(ctx, token, "203.0.113.7")
	if err != nil {
		t.Fatalf("resolve download failed: %v", err)
	}
	if file.FileName != product.FileName || file.Email != "buyer@example.com" {
		t.Fatalf("download file mismatch: %+v", file)
	}
	if _, err := os.Stat(file.Path); err != nil {
		t.Fatalf("resolved path not readable: %v", err)
	}
}

func TestResolveDownloadExpiredToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	product := f.seedProduct(t, "prod_exp", "price_exp")

	token, err := f.tokens.Mint("buyer@example.com", product.ProductID, -time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := f.service.ResolveDownload(context.Background(), token, "203.0.113.7"); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestResolveDownloadGarbageToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if _, err := f.service.ResolveDownload(context.Background(), "not-a-jwt", "203.0.113.7"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestResolveDownloadFileRemoved(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	product := f.seedProduct(t, "prod_gone", "price_gone")
	if err := os.Remove(filepath.Join(f.filesDir, product.FileName)); err != nil {
		t.Fatalf("remove file: %v", err)
	}

	token, err := f.tokens.Mint("buyer@example.com", product.ProductID, time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := f.service.ResolveDownload(context.Background(), token, "203.0.113.7"); !errors.Is(err, domain.ErrFileMissing) {
		t.Fatalf("expected ErrFileMissing, got %v", err)
	}
}

func TestResolveDownloadRateLimited(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	product := f.seedProduct(t, "prod_rl", "price_rl")
	f.limiter.allow = false

	token, err := f.tokens.Mint("buyer@example.com", product.ProductID, time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := f.service.ResolveDownload(context.Background(), token, "203.0.113.7"); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestRegisterProductUsesGeneratedContent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	product, err := f.service.RegisterProduct(ctx, RegisterProductInput{
		Name:        "Launch Playbook",
		Description: "How to launch",
		PriceCents:  2999,
	})
	if err != nil {
		t.Fatalf("register product failed: %v", err)
	}
	if product.ProductID != "prod_stripe_1" {
		t.Fatalf("processor product id should be canonical, got %q", product.ProductID)
	}
	if product.StripePriceID != "price_stripe_1" || product.PaymentLink == "" {
		t.Fatalf("listing fields not applied: %+v", product)
	}
	if f.payments.lastInput.RedirectURL != "https://shop.example.com/thank-you" {
		t.Fatalf("redirect url not forwarded: %q", f.payments.lastInput.RedirectURL)
	}

	stored, err := f.products.GetByID(ctx, product.ProductID)
	if err != nil {
		t.Fatalf("product not persisted: %v", err)
	}
	if stored.FileName == "" {
		t.Fatalf("persisted product missing file name")
	}

	link, err := f.links.GetLatest(ctx)
	if err != nil || link != product.PaymentLink {
		t.Fatalf("payment link not cached: %q (%v)", link, err)
	}
}

func TestRegisterProductThenFulfillViaMetadata(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	product, err := f.service.RegisterProduct(ctx, RegisterProductInput{
		Name:        "Metadata Guide",
		Description: "resolved from checkout metadata",
		PriceCents:  1499,
	})
	if err != nil {
		t.Fatalf("register product failed: %v", err)
	}

	// Real checkout sessions carry only the link metadata, no line items;
	// the stored product ID must match what the processor stamped there.
	payload, sig := f.signedEvent(t, "checkout.session.completed",
		checkoutSessionBody("sess_meta", "buyer@example.com", product.ProductID, 1499))

	result, err := f.service.HandlePaymentEvent(ctx, payload, sig)
	if err != nil {
		t.Fatalf("handle payment event failed: %v", err)
	}
	if result.Outcome != OutcomeAcknowledgedNew {
		t.Fatalf("expected acknowledged_new, got %q", result.Outcome)
	}

	sale, err := f.sales.GetBySessionID(ctx, "sess_meta")
	if err != nil {
		t.Fatalf("sale not recorded: %v", err)
	}
	if sale.ProductID != product.ProductID {
		t.Fatalf("sale product id = %q, want %q", sale.ProductID, product.ProductID)
	}
}

func TestRegisterProductFallsBackToPlaceholder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.content.err = fmt.Errorf("generator unavailable")

	product, err := f.service.RegisterProduct(context.Background(), RegisterProductInput{
		Name:       "Fallback Guide",
		PriceCents: 999,
	})
	if err != nil {
		t.Fatalf("register product failed: %v", err)
	}
	if product.FileName == "" {
		t.Fatalf("placeholder registration produced no file")
	}
	if len(f.renderer.lastGuide.Chapters) == 0 {
		t.Fatalf("placeholder guide has no chapters")
	}
}

func TestRegisterProductRejectsEmptyName(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if _, err := f.service.RegisterProduct(context.Background(), RegisterProductInput{Name: "  "}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLatestPaymentLinkPrefersCache(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, "prod_link", "price_link")
	if err := f.links.SetLatest(ctx, "https://buy.stripe.test/cached"); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	link, err := f.service.LatestPaymentLink(ctx)
	if err != nil {
		t.Fatalf("latest payment link failed: %v", err)
	}
	if link != "https://buy.stripe.test/cached" {
		t.Fatalf("expected cached link, got %q", link)
	}
}

func TestLatestPaymentLinkFallsBackToLedger(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "prod_fb", "price_fb")

	link, err := f.service.LatestPaymentLink(ctx)
	if err != nil {
		t.Fatalf("latest payment link failed: %v", err)
	}
	if link != product.PaymentLink {
		t.Fatalf("expected ledger link %q, got %q", product.PaymentLink, link)
	}
}

func TestKPISnapshotDerivedFigures(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.sales.useStats = true
	f.sales.stats = ports.RevenueStats{
		TotalSales:        10,
		TotalRevenueCents: 50000,
		TodayRevenueCents: 2000,
		MonthRevenueCents: 30000,
		Last30DaysCents:   60000,
	}

	snap, err := f.service.KPISnapshot(context.Background())
	if err != nil {
		t.Fatalf("kpi snapshot failed: %v", err)
	}
	if snap.AvgOrderCents != 5000 {
		t.Fatalf("avg order = %d, want 5000", snap.AvgOrderCents)
	}
	if snap.AvgDailyCents != 2000 || snap.MonthlyProjection != 60000 {
		t.Fatalf("projection mismatch: %+v", snap)
	}
	if snap.OnTrack {
		t.Fatalf("projection 60000 against target 100000 should not be on track")
	}
}
