package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"agrohire/internal/domain"
)

// Cache is what services depend on; JSONCache is the Redis-backed
// implementation.
type Cache[T any] interface {
	Get(ctx context.Context, id string) (*T, error)
	Set(ctx context.Context, id string, item *T) error
	Delete(ctx context.Context, id string) error
}

// JSONCache stores values of one type under a shared key prefix. A nil cache
// or nil client degrades to a no-op so callers can run without Redis.
type JSONCache[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewJSONCache[T any](client *redis.Client, prefix string, ttl time.Duration) *JSONCache[T] {
	return &JSONCache[T]{client: client, prefix: prefix, ttl: ttl}
}

func (c *JSONCache[T]) key(id string) string {
	return c.prefix + ":" + id
}

// Get returns the cached value or nil on a miss.
func (c *JSONCache[T]) Get(ctx context.Context, id string) (*T, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	value, err := c.client.Get(ctx, c.key(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var item T
	if err := json.Unmarshal([]byte(value), &item); err != nil {
		return nil, fmt.Errorf("unmarshal cached %s: %w", c.prefix, err)
	}
	return &item, nil
}

func (c *JSONCache[T]) Set(ctx context.Context, id string, item *T) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal cached %s: %w", c.prefix, err)
	}
	return c.client.Set(ctx, c.key(id), data, c.ttl).Err()
}

func (c *JSONCache[T]) Delete(ctx context.Context, id string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.key(id)).Err()
}

func NewUserCache(client *redis.Client) *JSONCache[domain.User] {
	return NewJSONCache[domain.User](client, "user", 10*time.Minute)
}

func NewEquipmentCache(client *redis.Client) *JSONCache[domain.Equipment] {
	return NewJSONCache[domain.Equipment](client, "equipment", 5*time.Minute)
}

// NewQuoteCache holds computed price quotes; the short TTL keeps quotes from
// outliving a demand recomputation cycle.
func NewQuoteCache(client *redis.Client) *JSONCache[domain.PricingHistory] {
	return NewJSONCache[domain.PricingHistory](client, "quote", time.Minute)
}
