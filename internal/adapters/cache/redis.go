package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// RedisPaymentLinkCache keeps the most recently published payment link hot so
// the landing page poll does not hit the ledger.
type RedisPaymentLinkCache struct {
	client *redis.Client
}

func NewRedisPaymentLinkCache(client *redis.Client) *RedisPaymentLinkCache {
	return &RedisPaymentLinkCache{client: client}
}

func (c *RedisPaymentLinkCache) SetLatest(ctx context.Context, link string) error {
	return c.client.Set(ctx, "storefront:payment_link:latest", link, 0).Err()
}

func (c *RedisPaymentLinkCache) GetLatest(ctx context.Context) (string, error) {
	link, err := c.client.Get(ctx, "storefront:payment_link:latest").Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return link, err
}

// RedisDownloadLimiter counts download attempts per IP in a fixed window.
type RedisDownloadLimiter struct {
	client *redis.Client
}

func NewRedisDownloadLimiter(client *redis.Client) *RedisDownloadLimiter {
	return &RedisDownloadLimiter{client: client}
}

func (l *RedisDownloadLimiter) Allow(ctx context.Context, ip string, limit int, window time.Duration) (bool, error) {
	if strings.TrimSpace(ip) == "" || limit <= 0 {
		return true, nil
	}
	key := "storefront:download_rate:" + ip
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		_ = l.client.Expire(ctx, key, window).Err()
	}
	return count <= int64(limit), nil
}
