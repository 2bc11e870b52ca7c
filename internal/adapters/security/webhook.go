package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/linktofunnel/storefront/internal/domain"
)

// WebhookVerifier checks the payment provider's signature header. The header
// carries a unix timestamp and one or more HMAC-SHA256 signatures over
// "<timestamp>.<payload>"; the timestamp is bound into the signed material so
// a captured request cannot be replayed outside the tolerance window.
type WebhookVerifier struct {
	secret    []byte
	tolerance time.Duration
}

func NewWebhookVerifier(secret string, tolerance time.Duration) (*WebhookVerifier, error) {
	if secret == "" {
		return nil, errors.New("webhook secret is required")
	}
	if tolerance <= 0 {
		tolerance = 5 * time.Minute
	}
	return &WebhookVerifier{secret: []byte(secret), tolerance: tolerance}, nil
}

func (v *WebhookVerifier) Verify(payload []byte, signatureHeader string, now time.Time) error {
	var ts int64
	var candidates []string

	for _, part := range strings.Split(signatureHeader, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return domain.ErrBadSignature
			}
			ts = parsed
		case "v1":
			candidates = append(candidates, value)
		}
	}
	if ts == 0 || len(candidates) == 0 {
		return domain.ErrBadSignature
	}

	eventTime := time.Unix(ts, 0)
	if now.Sub(eventTime) > v.tolerance || eventTime.Sub(now) > v.tolerance {
		return domain.ErrBadSignature
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		raw, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(raw, expected) {
			return nil
		}
	}
	return domain.ErrBadSignature
}

// SignPayload produces a header value this verifier accepts. It exists for
// tests and the local event replay tool.
func (v *WebhookVerifier) SignPayload(payload []byte, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}
