package stripeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/linktofunnel/storefront/internal/ports"
)

const defaultAPIBase = "https://api.stripe.com"

// Client talks to the payment processor's REST API. All calls are
// form-encoded POSTs authenticated with the secret key; the HTTP client is
// injected with a bounded timeout so a slow processor cannot stall requests.
type Client struct {
	apiBase    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(apiBase, secretKey string, httpClient *http.Client) *Client {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{apiBase: strings.TrimRight(apiBase, "/"), secretKey: secretKey, httpClient: httpClient}
}

type apiObject struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateListing registers the product, its price, and a payment link. The
// link's metadata carries the processor-issued product ID — the same ID the
// caller stores as the canonical key — so checkout sessions spawned from the
// link always resolve back to one ledger row.
func (c *Client) CreateListing(ctx context.Context, input ports.ListingInput) (ports.Listing, error) {
	product, err := c.postForm(ctx, "/v1/products", url.Values{
		"name":        {input.Name},
		"description": {input.Description},
	})
	if err != nil {
		return ports.Listing{}, fmt.Errorf("create product: %w", err)
	}

	price, err := c.postForm(ctx, "/v1/prices", url.Values{
		"product":     {product.ID},
		"unit_amount": {strconv.FormatInt(input.PriceCents, 10)},
		"currency":    {input.Currency},
	})
	if err != nil {
		return ports.Listing{}, fmt.Errorf("create price: %w", err)
	}

	linkParams := url.Values{
		"line_items[0][price]":    {price.ID},
		"line_items[0][quantity]": {"1"},
		"metadata[product_id]":    {product.ID},
	}
	if input.RedirectURL != "" {
		linkParams.Set("after_completion[type]", "redirect")
		linkParams.Set("after_completion[redirect][url]", input.RedirectURL)
	}
	link, err := c.postForm(ctx, "/v1/payment_links", linkParams)
	if err != nil {
		return ports.Listing{}, fmt.Errorf("create payment link: %w", err)
	}

	return ports.Listing{
		StripeProductID: product.ID,
		StripePriceID:   price.ID,
		PaymentLink:     link.URL,
	}, nil
}

func (c *Client) postForm(ctx context.Context, path string, params url.Values) (apiObject, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+path, strings.NewReader(params.Encode()))
	if err != nil {
		return apiObject{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return apiObject{}, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return apiObject{}, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return apiObject{}, fmt.Errorf("%s returned %d: %s", path, res.StatusCode, truncate(string(body), 200))
	}

	var obj apiObject
	if err := json.Unmarshal(body, &obj); err != nil {
		return apiObject{}, fmt.Errorf("decode %s response: %w", path, err)
	}
	return obj, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
