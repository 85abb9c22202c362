package redis

import (
	"context"
	"time"
)

// Session cache TTL is short on purpose: a revoked session must drop out of
// the lookaside well before its database row expires.
const SessionCacheTTL = 15 * time.Minute

func SessionKey(token string) string {
	return "session:" + token
}

func (c *Cache) CacheSession(ctx context.Context, token, userID string) error {
	return c.SetString(ctx, SessionKey(token), userID, SessionCacheTTL)
}

func (c *Cache) GetCachedSession(ctx context.Context, token string) (string, error) {
	return c.GetString(ctx, SessionKey(token))
}

func (c *Cache) InvalidateSession(ctx context.Context, token string) error {
	return c.Delete(ctx, SessionKey(token))
}
