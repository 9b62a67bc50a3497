package planner

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/reelplanner/backend/internal/models"
)

// StatsCache holds the most recently computed Statistics. Every Invalidate
// starts a new generation; Set only stores a value computed within the
// generation Get reported, so a scan that raced a write is never cached.
type StatsCache interface {
	// Get returns the cached statistics, if any, and the current generation.
	Get(ctx context.Context) (stats models.Statistics, generation int64, ok bool, err error)
	// Set stores stats when generation is still current and drops them otherwise.
	Set(ctx context.Context, generation int64, stats models.Statistics) error
	Invalidate(ctx context.Context) error
}

// NoStatsCache never holds anything, so every read recomputes.
type NoStatsCache struct{}

// Get always misses.
func (NoStatsCache) Get(context.Context) (models.Statistics, int64, bool, error) {
	return models.Statistics{}, 0, false, nil
}

// Set discards stats.
func (NoStatsCache) Set(context.Context, int64, models.Statistics) error { return nil }

// Invalidate has nothing to drop.
func (NoStatsCache) Invalidate(context.Context) error { return nil }

// MemoryStatsCache keeps statistics in process memory for a fixed TTL.
type MemoryStatsCache struct {
	ttl time.Duration
	now func() time.Time

	mu         sync.RWMutex
	generation int64
	stats      models.Statistics
	expires    time.Time
	valid      bool
}

// NewMemoryStatsCache returns a cache whose entries live for ttl.
func NewMemoryStatsCache(ttl time.Duration) *MemoryStatsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &MemoryStatsCache{ttl: ttl, now: time.Now}
}

// Get returns a copy of the cached statistics when present and unexpired.
func (c *MemoryStatsCache) Get(context.Context) (models.Statistics, int64, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.valid || !c.now().Before(c.expires) {
		return models.Statistics{}, c.generation, false, nil
	}
	return cloneStatistics(c.stats), c.generation, true, nil
}

// Set stores a copy of stats until the TTL elapses, provided no invalidation
// happened since generation was read.
func (c *MemoryStatsCache) Set(_ context.Context, generation int64, stats models.Statistics) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return nil
	}
	c.stats = cloneStatistics(stats)
	c.expires = c.now().Add(c.ttl)
	c.valid = true
	return nil
}

// Invalidate drops the cached value and starts a new generation.
func (c *MemoryStatsCache) Invalidate(context.Context) error {
	c.mu.Lock()
	c.generation++
	c.valid = false
	c.stats = models.Statistics{}
	c.mu.Unlock()
	return nil
}

func cloneStatistics(stats models.Statistics) models.Statistics {
	stats.MostUsedHashtags = slices.Clone(stats.MostUsedHashtags)
	if stats.RecentUserActivity != nil {
		recent := make([]models.UserProfile, len(stats.RecentUserActivity))
		for i, profile := range stats.RecentUserActivity {
			recent[i] = cloneProfile(profile)
		}
		stats.RecentUserActivity = recent
	}
	return stats
}
