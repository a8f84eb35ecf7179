package repository

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventCache is a best-effort redis marker for webhook deliveries already
// handled by some process. It only short-circuits duplicate work; the
// conditional order transition in Postgres is what actually guarantees
// exactly-once side effects, so a cache miss or a redis outage is harmless.
type EventCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewEventCache connects to redis. An empty addr returns a disabled cache.
func NewEventCache(addr string) *EventCache {
	if addr == "" {
		return &EventCache{}
	}
	return &EventCache{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		ttl: 24 * time.Hour,
	}
}

// Seen reports whether a webhook request id was already fully processed.
// Errors count as unseen: reprocessing is safe, dropping an event is not.
func (c *EventCache) Seen(ctx context.Context, requestID string) bool {
	if c.rdb == nil || requestID == "" {
		return false
	}
	n, err := c.rdb.Exists(ctx, deliveryKey(requestID)).Result()
	if err != nil {
		log.Printf("event cache unavailable: %v", err)
		return false
	}
	return n > 0
}

// Mark records a fully processed delivery. Called only after the canonical
// state was applied, so a transient failure leaves the redelivery eligible.
func (c *EventCache) Mark(ctx context.Context, requestID string) {
	if c.rdb == nil || requestID == "" {
		return
	}
	if err := c.rdb.Set(ctx, deliveryKey(requestID), 1, c.ttl).Err(); err != nil {
		log.Printf("event cache unavailable: %v", err)
	}
}

func deliveryKey(requestID string) string {
	return "webhook:delivery:" + requestID
}

// Close releases the redis connection.
func (c *EventCache) Close() {
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
}
