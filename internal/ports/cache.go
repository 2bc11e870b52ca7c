package ports

import (
	"context"
	"time"
)

// PaymentLinkCache holds the most recently published payment link so the
// landing page read path avoids a ledger query.
type PaymentLinkCache interface {
	SetLatest(ctx context.Context, link string) error
	GetLatest(ctx context.Context) (string, error)
}

// DownloadLimiter throttles download attempts per caller IP. It guards the
// file-serving path against token brute forcing; the credential TTL remains
// the only per-purchase usage control.
type DownloadLimiter interface {
	Allow(ctx context.Context, ip string, limit int, window time.Duration) (bool, error)
}
