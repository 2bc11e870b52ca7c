package ports

import (
	"context"
	"time"

	"github.com/linktofunnel/storefront/internal/domain"
)

type ProductRepository interface {
	Create(ctx context.Context, product domain.Product) error
	GetByID(ctx context.Context, productID string) (domain.Product, error)
	GetByPriceID(ctx context.Context, priceID string) (domain.Product, error)
	Latest(ctx context.Context) (domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
}

// SaleRepository is the durable sale ledger. Create must rely on the storage
// layer's uniqueness constraint on the checkout session ID and surface a
// violation as domain.ErrDuplicateSale; that insert is the sole idempotency
// authority for webhook replays.
type SaleRepository interface {
	Create(ctx context.Context, sale domain.Sale) error
	GetBySessionID(ctx context.Context, sessionID string) (domain.Sale, error)
	RevenueStats(ctx context.Context, now time.Time) (RevenueStats, error)
}

type RevenueStats struct {
	TotalSales        int64
	TotalRevenueCents int64
	TodayRevenueCents int64
	MonthRevenueCents int64
	Last30DaysCents   int64
}

// DeliveryRepository queues and tracks post-sale delivery tasks. ClaimPending
// stamps the batch with the caller's claim token and a claim deadline so a
// second worker cannot pick up the same tasks until the deadline passes; the
// mark operations only touch rows still holding that token.
type DeliveryRepository interface {
	Enqueue(ctx context.Context, task domain.DeliveryTask) error
	ClaimPending(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]domain.DeliveryTask, error)
	MarkDelivered(ctx context.Context, taskID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, taskID, claimToken, reason string, terminal bool, at time.Time) error
}
