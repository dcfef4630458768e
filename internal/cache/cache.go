package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Store when the key does not exist or has expired
var ErrNotFound = errors.New("cache: key not found")

// Store is a remote key-value store with per key expiration
type Store interface {
	Set(ctx context.Context, key, val string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}
