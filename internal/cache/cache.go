package cache

import (
	"context"
	"time"
)

// Cache is the key-value contract the session whitelist runs on. Entries
// expire on their own after the ttl passed to Set.
type Cache interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
}
