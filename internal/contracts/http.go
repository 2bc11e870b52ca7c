package contracts

import "time"

type RegisterProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Currency    string `json:"currency,omitempty"`
}

type RegisterProductResponse struct {
	ProductID   string    `json:"product_id"`
	PaymentLink string    `json:"payment_link"`
	FileName    string    `json:"file_name"`
	CreatedAt   time.Time `json:"created_at"`
}

type PaymentLinkResponse struct {
	PaymentLink string `json:"payment_link"`
}

type WebhookAck struct {
	Received  bool   `json:"received"`
	Outcome   string `json:"outcome"`
	OrderID   string `json:"order_id,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

type TestSendRequest struct {
	Recipient string `json:"recipient,omitempty"`
}
