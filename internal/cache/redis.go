// Package cache provides a Redis-backed statistics cache shared by every
// instance of the service.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reelplanner/backend/internal/models"
	"github.com/reelplanner/backend/internal/planner"
)

const (
	statisticsKey = "reelplanner:statistics"
	generationKey = "reelplanner:statistics:generation"
)

// Connect parses a redis:// URL, applies pool settings and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// StatsCache stores computed statistics as JSON under a key derived from the
// current generation. Invalidate bumps the generation, which orphans any
// value a concurrent reader is about to write; orphans expire with the TTL.
type StatsCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewStatsCache returns a cache whose entries expire after ttl.
func NewStatsCache(client redis.Cmdable, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &StatsCache{client: client, ttl: ttl}
}

func (c *StatsCache) Get(ctx context.Context) (models.Statistics, int64, bool, error) {
	generation, err := c.generation(ctx)
	if err != nil {
		return models.Statistics{}, 0, false, err
	}

	raw, err := c.client.Get(ctx, statsKey(generation)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Statistics{}, generation, false, nil
		}
		return models.Statistics{}, 0, false, fmt.Errorf("get statistics: %w", err)
	}

	var stats models.Statistics
	if err := json.Unmarshal(raw, &stats); err != nil {
		return models.Statistics{}, 0, false, fmt.Errorf("decode statistics: %w", err)
	}
	return stats, generation, true, nil
}

func (c *StatsCache) Set(ctx context.Context, generation int64, stats models.Statistics) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode statistics: %w", err)
	}
	if err := c.client.Set(ctx, statsKey(generation), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set statistics: %w", err)
	}
	return nil
}

func (c *StatsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("bump statistics generation: %w", err)
	}
	return nil
}

func (c *StatsCache) generation(ctx context.Context) (int64, error) {
	generation, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("get statistics generation: %w", err)
	}
	return generation, nil
}

func statsKey(generation int64) string {
	return fmt.Sprintf("%s:%d", statisticsKey, generation)
}

var _ planner.StatsCache = (*StatsCache)(nil)
