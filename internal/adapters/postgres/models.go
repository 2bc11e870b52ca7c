package postgres

import (
	"time"

	"github.com/google/uuid"
)

type productModel struct {
	ProductID     string    `gorm:"column:product_id;primaryKey"`
	Name          string    `gorm:"column:name"`
	Description   string    `gorm:"column:description"`
	PriceCents    int64     `gorm:"column:price_cents"`
	Currency      string    `gorm:"column:currency"`
	StripePriceID string    `gorm:"column:stripe_price_id"`
	PaymentLink   string    `gorm:"column:payment_link"`
	FileName      string    `gorm:"column:file_name"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (productModel) TableName() string { return "products" }

type saleModel struct {
	OrderID         string    `gorm:"column:order_id;primaryKey"`
	StripeSessionID string    `gorm:"column:stripe_session_id"`
	ProductID       string    `gorm:"column:product_id"`
	CustomerEmail   string    `gorm:"column:customer_email"`
	AmountCents     int64     `gorm:"column:amount_cents"`
	DownloadToken   string    `gorm:"column:download_token"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (saleModel) TableName() string { return "sales" }

type deliveryTaskModel struct {
	TaskID        uuid.UUID  `gorm:"column:task_id;type:uuid;primaryKey"`
	OrderID       string     `gorm:"column:order_id"`
	CustomerEmail string     `gorm:"column:customer_email"`
	ProductName   string     `gorm:"column:product_name"`
	AmountCents   int64      `gorm:"column:amount_cents"`
	DownloadURL   string     `gorm:"column:download_url"`
	Status        string     `gorm:"column:status"`
	RetryCount    int        `gorm:"column:retry_count"`
	LastError     *string    `gorm:"column:last_error"`
	ClaimToken    *string    `gorm:"column:claim_token"`
	ClaimUntil    *time.Time `gorm:"column:claim_until"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	DeliveredAt   *time.Time `gorm:"column:delivered_at"`
}

func (deliveryTaskModel) TableName() string { return "delivery_tasks" }
