package redis

import (
	"context"
	"time"
)

// StatsCacheInterface defines the interface for per-user stats caching.
type StatsCacheInterface interface {
	GetUserStats(ctx context.Context, userID string) (*CachedStats, error)
	SetUserStats(ctx context.Context, stats *CachedStats) error
	InvalidateUserStats(ctx context.Context, userIDs ...string) error
}

// RevocationStoreInterface defines the interface for token revocation.
type RevocationStoreInterface interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// ResponseStoreInterface defines the interface for idempotent response replay.
type ResponseStoreInterface interface {
	GetResponse(ctx context.Context, key string) (*StoredResponse, error)
	SaveResponse(ctx context.Context, key string, resp *StoredResponse) error
}

// Ensure concrete types implement interfaces.
var (
	_ StatsCacheInterface      = (*StatsCache)(nil)
	_ RevocationStoreInterface = (*RevocationStore)(nil)
	_ ResponseStoreInterface   = (*ResponseStore)(nil)
)
