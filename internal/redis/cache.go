package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultStatsTTL bounds how stale a cached stats entry can get if an
// invalidation is lost.
const DefaultStatsTTL = 5 * time.Minute

const statsCachePrefix = "cache:user_stats:"

// CachedStats represents the cached aggregate figures of one user.
type CachedStats struct {
	UserID              string  `json:"user_id"`
	AverageRating       float64 `json:"average_rating"`
	TotalRatings        int     `json:"total_ratings"`
	TotalRidesCreated   int     `json:"total_rides_created"`
	TotalRidesCompleted int     `json:"total_rides_completed"`
}

// StatsCache handles per-user stats caching in Redis.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache creates a new StatsCache. A zero ttl uses DefaultStatsTTL.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	return &StatsCache{client: client, ttl: ttl}
}

// GetUserStats retrieves stats from cache. A miss returns nil, nil.
func (s *StatsCache) GetUserStats(ctx context.Context, userID string) (*CachedStats, error) {
	data, err := s.client.Get(ctx, statsCachePrefix+userID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var stats CachedStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SetUserStats stores stats in cache.
func (s *StatsCache) SetUserStats(ctx context.Context, stats *CachedStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, statsCachePrefix+stats.UserID, data, s.ttl).Err()
}

// InvalidateUserStats removes the cached stats of every given user.
func (s *StatsCache) InvalidateUserStats(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, statsCachePrefix+id)
	}
	return s.client.Del(ctx, keys...).Err()
}
