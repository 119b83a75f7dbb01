package auth

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"
)

var errCacheDown = errors.New("cache backend unavailable")

type fakeCacheEntry struct {
	value     string
	expiresAt time.Time
}

// fakeCache is an in-memory stand-in for the redis-backed cache, with
// switches to simulate backend outages.
type fakeCache struct {
	mu         sync.Mutex
	entries    map[string]fakeCacheEntry
	failSet    bool
	failGet    bool
	failDelete bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]fakeCacheEntry)}
}

func (c *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failSet {
		return errCacheDown
	}

	c.entries[key] = fakeCacheEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failGet {
		return "", false, errCacheDown
	}

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false, nil
	}

	return entry.value, true, nil
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failDelete {
		return errCacheDown
	}

	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	_, found, err := c.Get(ctx, key)
	return found, err
}

func (c *fakeCache) Ping(ctx context.Context) error {
	return nil
}

// fakeUserStore keeps users in a map keyed by username.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]User)}
}

func (s *fakeUserStore) GetByUsername(ctx context.Context, username string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return User{}, sql.ErrNoRows
	}
	return user, nil
}

func (s *fakeUserStore) Insert(ctx context.Context, username, passwordHash string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return User{}, ErrDuplicateUser
	}

	user := User{
		ID:           "user-" + username,
		Username:     username,
		PasswordHash: passwordHash,
		AvatarURL:    "https://example.com/avatar.png",
		CreatedAt:    time.Now().UTC(),
	}
	s.users[username] = user
	return user, nil
}

func newTestService(store UserStore, cache *fakeCache) *Service {
	return NewService(store, NewWhitelist(cache), NewCodec("test-secret"))
}
