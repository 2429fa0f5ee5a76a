package cache

import (
	"context"
	"time"
)

// Cache is the contract for the read-through cache in front of hot
// lookups (book by ISBN). Implementations may be Redis or in-memory; a
// cache failure is never fatal to the request it serves.
type Cache interface {
	// Get unmarshals the cached value into dest. found=false is a miss
	// and leaves dest untouched.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores value under key with a TTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes the given keys.
	Delete(ctx context.Context, keys ...string) error

	// Ping checks the connection.
	Ping(ctx context.Context) error
}
