// Package cache provides the key-value cache used for event dedup markers and
// the catalog read-through cache. Redis backs it in production; an in-memory
// implementation serves single-process runs and tests.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	// KeyDedup marks an event as handled: dedup:{consumer}:{event_id}.
	KeyDedup = "dedup:%s:%s"

	// KeyCatalog holds the serialized product list.
	KeyCatalog = "catalog:products"
)

var (
	TTLDedup   = 48 * time.Hour
	TTLCatalog = time.Minute
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is a minimal key-value store with expiry.
type Cache interface {
	// Get returns ErrMiss when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetNX sets key only if absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// DedupKey builds the dedup marker key for a consumer and event.
func DedupKey(consumer, eventID string) string {
	return fmt.Sprintf(KeyDedup, consumer, eventID)
}

// GetJSON decodes the cached value at key into v.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	return c.Set(ctx, key, data, ttl)
}
