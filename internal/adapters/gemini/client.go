package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/linktofunnel/storefront/internal/domain"
)

const defaultAPIBase = "https://generativelanguage.googleapis.com/v1beta"

// Client generates structured guide content through the hosted model API.
// Callers treat any error as "use the placeholder"; this adapter never has to
// be available for the storefront to function.
type Client struct {
	apiBase    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(apiBase, apiKey, model string, httpClient *http.Client) *Client {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	if model == "" {
		model = "gemini-pro"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{apiBase: strings.TrimRight(apiBase, "/"), apiKey: apiKey, model: model, httpClient: httpClient}
}

type contentPart struct {
	Text string `json:"text"`
}

type content struct {
	Parts []contentPart `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *Client) GenerateGuide(ctx context.Context, name, description string) (domain.Guide, error) {
	prompt := buildPrompt(name, description)

	req := generateRequest{Contents: []content{{Parts: []contentPart{{Text: prompt}}}}}
	payload, err := json.Marshal(req)
	if err != nil {
		return domain.Guide{}, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.apiBase, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.Guide{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.Guide{}, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return domain.Guide{}, err
	}
	if res.StatusCode != http.StatusOK {
		return domain.Guide{}, fmt.Errorf("content api returned %d", res.StatusCode)
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return domain.Guide{}, err
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return domain.Guide{}, fmt.Errorf("content api returned no candidates")
	}

	guide, err := extractGuide(decoded.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return domain.Guide{}, err
	}
	if guide.Title == "" {
		guide.Title = name
	}
	return guide, nil
}

// extractGuide pulls the JSON document out of the model's free-form reply.
// Models wrap JSON in prose or code fences more often than not.
func extractGuide(text string) (domain.Guide, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return domain.Guide{}, fmt.Errorf("no JSON object in model reply")
	}
	var guide domain.Guide
	if err := json.Unmarshal([]byte(text[start:end+1]), &guide); err != nil {
		return domain.Guide{}, fmt.Errorf("parse guide JSON: %w", err)
	}
	if len(guide.Chapters) == 0 {
		return domain.Guide{}, fmt.Errorf("guide has no chapters")
	}
	return guide, nil
}

func buildPrompt(name, description string) string {
	var b strings.Builder
	b.WriteString("Write a complete digital product guide.\n\n")
	b.WriteString("Product: " + name + "\n")
	b.WriteString("Description: " + description + "\n\n")
	b.WriteString("Structure: an introduction, five to seven main chapters with practical instructions and concrete examples, and a closing summary.\n\n")
	b.WriteString(`Return only JSON shaped as {"title": "...", "chapters": [{"title": "...", "content": "..."}]}.`)
	return b.String()
}
