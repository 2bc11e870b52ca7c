package contracts

import "encoding/json"

// WebhookEvent mirrors the payment provider's event envelope. Only the fields
// the dispatcher consumes are declared; unknown fields are ignored on decode
// so provider-side schema additions do not break ingestion.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// CheckoutSession is the data.object payload of checkout.session.completed.
type CheckoutSession struct {
	ID              string            `json:"id"`
	AmountTotal     int64             `json:"amount_total"`
	Currency        string            `json:"currency"`
	Metadata        map[string]string `json:"metadata"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	LineItems struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"line_items"`
}

const EventCheckoutSessionCompleted = "checkout.session.completed"
