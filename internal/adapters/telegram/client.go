package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/linktofunnel/storefront/internal/domain"
)

const defaultAPIBase = "https://api.telegram.org"

// Client posts operational notifications to a Telegram chat.
type Client struct {
	apiBase    string
	botToken   string
	chatID     string
	httpClient *http.Client
}

func NewClient(apiBase, botToken, chatID string, httpClient *http.Client) (*Client, error) {
	if botToken == "" || chatID == "" {
		return nil, errors.New("telegram bot token and chat id are required")
	}
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{apiBase: strings.TrimRight(apiBase, "/"), botToken: botToken, chatID: chatID, httpClient: httpClient}, nil
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func (c *Client) NotifyNewSale(ctx context.Context, sale domain.Sale, productName string) error {
	message := fmt.Sprintf(`<b>NEW SALE</b>

Product: %s
Price: %s
Customer: %s
Order ID: %s

Email with download link was sent.`,
		productName, formatPrice(sale.AmountCents), sale.CustomerEmail, sale.OrderID)
	return c.sendMessage(ctx, message)
}

func (c *Client) NotifySystemEvent(ctx context.Context, level, message string) error {
	prefix := map[string]string{
		"success": "[OK]",
		"error":   "[ERROR]",
		"warning": "[WARN]",
	}[level]
	if prefix == "" {
		prefix = "[INFO]"
	}
	return c.sendMessage(ctx, prefix+" <b>SYSTEM EVENT</b>\n\n"+message)
}

func (c *Client) sendMessage(ctx context.Context, text string) error {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    c.chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.apiBase, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("telegram api returned %d: %s", res.StatusCode, string(body))
	}
	return nil
}

func formatPrice(amountCents int64) string {
	return fmt.Sprintf("EUR %d.%02d", amountCents/100, amountCents%100)
}
