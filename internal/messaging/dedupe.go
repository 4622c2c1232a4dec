package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// InboundDeduper records provider message ids so webhook retries are
// processed at most once.
type InboundDeduper struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewInboundDeduper creates a deduper with the given retention window.
func NewInboundDeduper(client *redis.Client, ttl time.Duration) *InboundDeduper {
	if client == nil {
		panic("messaging: redis client required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &InboundDeduper{redis: client, ttl: ttl}
}

// Seen marks the provider message id and reports whether it was already
// recorded. The check-and-mark is a single SETNX so concurrent webhook
// deliveries of the same message agree on exactly one winner.
func (d *InboundDeduper) Seen(ctx context.Context, providerMsgID string) (bool, error) {
	if providerMsgID == "" {
		return false, nil
	}
	ok, err := d.redis.SetNX(ctx, inboundKey(providerMsgID), 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("messaging: dedupe check failed: %w", err)
	}
	return !ok, nil
}

// Forget releases a claimed message id so the provider's next retry is
// processed again. Used when handling failed after the id was claimed.
func (d *InboundDeduper) Forget(ctx context.Context, providerMsgID string) error {
	if providerMsgID == "" {
		return nil
	}
	if err := d.redis.Del(ctx, inboundKey(providerMsgID)).Err(); err != nil {
		return fmt.Errorf("messaging: dedupe release failed: %w", err)
	}
	return nil
}

func inboundKey(id string) string {
	return fmt.Sprintf("inbound:%s", id)
}
