package ports

import (
	"time"

	"github.com/linktofunnel/storefront/internal/domain"
)

// TokenSigner mints and verifies download credentials. Verification is
// stateless: validity is decided by signature and expiry alone, never by a
// lookup table. Rotating the signing key invalidates every outstanding
// credential.
type TokenSigner interface {
	Mint(email, productID string, ttl time.Duration) (string, error)
	Verify(token string) (domain.DownloadClaims, error)
}

// WebhookVerifier authenticates an inbound payment event against the shared
// webhook secret before any side effect runs.
type WebhookVerifier interface {
	Verify(payload []byte, signatureHeader string, now time.Time) error
}

// KeyChecker compares the operator API key against its configured hash.
type KeyChecker interface {
	Check(apiKey string) error
}
