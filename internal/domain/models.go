package domain

import "time"

// Product is a sellable digital item. ProductID is the payment processor's
// product identifier and doubles as the canonical key everywhere else, so a
// checkout session can always be traced back to one row.
type Product struct {
	ProductID     string    `json:"product_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	PriceCents    int64     `json:"price_cents"`
	Currency      string    `json:"currency"`
	StripePriceID string    `json:"stripe_price_id"`
	PaymentLink   string    `json:"payment_link"`
	FileName      string    `json:"file_name"`
	CreatedAt     time.Time `json:"created_at"`
}

// Sale is one completed checkout. StripeSessionID carries a storage-level
// uniqueness guarantee; replayed webhook events collapse onto the same row.
type Sale struct {
	OrderID         string    `json:"order_id"`
	StripeSessionID string    `json:"stripe_session_id"`
	ProductID       string    `json:"product_id"`
	CustomerEmail   string    `json:"customer_email"`
	AmountCents     int64     `json:"amount_cents"`
	DownloadToken   string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

// DownloadClaims are the verified contents of a download credential.
type DownloadClaims struct {
	Email     string
	ProductID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Delivery task statuses.
const (
	DeliveryPending   = "pending"
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)

// DeliveryTask is a queued post-sale delivery. The row is written in the same
// request that records the sale; a separate worker performs the actual sends
// so outbound email latency never blocks the webhook response.
type DeliveryTask struct {
	TaskID        string     `json:"task_id"`
	OrderID       string     `json:"order_id"`
	CustomerEmail string     `json:"customer_email"`
	ProductName   string     `json:"product_name"`
	AmountCents   int64      `json:"amount_cents"`
	DownloadURL   string     `json:"download_url"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	LastError     string     `json:"last_error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`
}

// Guide is generated product content rendered into the downloadable file.
type Guide struct {
	Title    string         `json:"title"`
	Chapters []GuideChapter `json:"chapters"`
}

type GuideChapter struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// KPISnapshot is a point-in-time revenue dashboard. Monetary figures are in
// cents; ProgressToTarget is a percentage of the monthly goal.
type KPISnapshot struct {
	GeneratedAt        time.Time `json:"generated_at"`
	TotalSales         int64     `json:"total_sales"`
	TotalRevenueCents  int64     `json:"total_revenue_cents"`
	TodayRevenueCents  int64     `json:"today_revenue_cents"`
	MonthRevenueCents  int64     `json:"month_revenue_cents"`
	AvgOrderCents      int64     `json:"avg_order_cents"`
	AvgDailyCents      int64     `json:"avg_daily_cents"`
	MonthlyProjection  int64     `json:"monthly_projection_cents"`
	MonthlyTargetCents int64     `json:"monthly_target_cents"`
	ProgressToTarget   float64   `json:"progress_to_target_pct"`
	OnTrack            bool      `json:"on_track"`
}
