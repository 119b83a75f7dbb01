package auth

import (
	"context"
	"fmt"
	"time"

	"notifeed/internal/cache"
)

const whitelistKeyPrefix = "JWT_"

// Whitelist tracks the single currently valid token per (type, user) in an
// expiring key-value store. A signed token that is absent from the whitelist
// is treated as revoked, which is what makes stateless tokens revocable.
type Whitelist struct {
	cache cache.Cache
}

func NewWhitelist(cache cache.Cache) *Whitelist {
	return &Whitelist{cache: cache}
}

func whitelistKey(tokenType TokenType, username string) string {
	return fmt.Sprintf("%s%s_%s", whitelistKeyPrefix, tokenType, username)
}

// Add registers token as the only valid token of its type for username,
// overwriting any previous entry. The overwritten token is revoked from that
// moment on. A non-positive ttl drops the entry instead: the token is born
// expired. A store failure must surface to the caller: a token that is not
// tracked cannot be revoked later, so it must not be issued at all.
func (w *Whitelist) Add(ctx context.Context, token, username string, tokenType TokenType, ttl time.Duration) error {
	key := whitelistKey(tokenType, username)
	if ttl <= 0 {
		if err := w.cache.Delete(ctx, key); err != nil {
			return fmt.Errorf("whitelist add %s token for %s: %w", tokenType, username, err)
		}
		return nil
	}

	if err := w.cache.Set(ctx, key, token, ttl); err != nil {
		return fmt.Errorf("whitelist add %s token for %s: %w", tokenType, username, err)
	}

	return nil
}

// Contains reports whether token is the current access or refresh token for
// username. Both keys are checked regardless of the token's claimed type.
// Store errors fail closed.
func (w *Whitelist) Contains(ctx context.Context, token, username string) (bool, error) {
	for _, tokenType := range []TokenType{TokenTypeAccess, TokenTypeRefresh} {
		current, found, err := w.cache.Get(ctx, whitelistKey(tokenType, username))
		if err != nil {
			return false, fmt.Errorf("whitelist lookup for %s: %w", username, err)
		}
		if found && current == token {
			return true, nil
		}
	}

	return false, nil
}

// ClearUser revokes both sessions of a user at once.
func (w *Whitelist) ClearUser(ctx context.Context, username string) error {
	err := w.cache.Delete(ctx,
		whitelistKey(TokenTypeAccess, username),
		whitelistKey(TokenTypeRefresh, username),
	)
	if err != nil {
		return fmt.Errorf("whitelist clear for %s: %w", username, err)
	}

	return nil
}
