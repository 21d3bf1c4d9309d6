package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned when a key is missing or has expired
var ErrKeyNotFound = errors.New("key not found")

// CacheStorage stores provider responses under a key with a time-to-live
type CacheStorage interface {
	// Get decodes the cached value into dest
	Get(ctx context.Context, key string, dest interface{}) error

	// Set stores value, replacing any previous entry
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// Purge removes expired entries and returns how many were deleted
	Purge(ctx context.Context) (int, error)
	Close() error
}
