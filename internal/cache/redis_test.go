package cache

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reelplanner/backend/internal/models"
)

type fakeRedis struct {
	redis.Cmdable
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.values[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	n, _ := strconv.ParseInt(f.values[key], 10, 64)
	n++
	f.values[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

func TestStatsCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	cache := NewStatsCache(client, 30*time.Second)

	_, generation, ok, err := cache.Get(ctx)
	if err != nil || ok {
		t.Fatalf("expected miss on empty cache got ok=%v err=%v", ok, err)
	}
	if generation != 0 {
		t.Fatalf("expected generation 0 got %d", generation)
	}

	stats := models.Statistics{
		TotalVideos:      3,
		TotalUsers:       2,
		MostUsedHashtags: []models.Hashtag{{Name: "#fyp", UsageCount: 4}},
	}
	if err := cache.Set(ctx, generation, stats); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := client.ttls[statisticsKey+":0"]; ttl != 30*time.Second {
		t.Fatalf("expected ttl to be applied got %s", ttl)
	}

	got, _, ok, err := cache.Get(ctx)
	if err != nil || !ok {
		t.Fatalf("expected hit got ok=%v err=%v", ok, err)
	}
	if got.TotalVideos != 3 || len(got.MostUsedHashtags) != 1 || got.MostUsedHashtags[0].Name != "#fyp" {
		t.Fatalf("unexpected cached stats %+v", got)
	}

	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, generation, ok, _ := cache.Get(ctx); ok || generation != 1 {
		t.Fatalf("expected miss in generation 1 after invalidate got ok=%v generation=%d", ok, generation)
	}
}

func TestStatsCacheDropsValuesFromOldGenerations(t *testing.T) {
	ctx := context.Background()
	cache := NewStatsCache(newFakeRedis(), time.Minute)

	_, generation, _, err := cache.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if err := cache.Set(ctx, generation, models.Statistics{TotalVideos: 1}); err != nil {
		t.Fatalf("set: %v", err)
	}

	if stats, _, ok, _ := cache.Get(ctx); ok {
		t.Fatalf("expected value computed before the invalidation to be ignored got %+v", stats)
	}
}

func TestStatsCacheReportsBackendErrors(t *testing.T) {
	client := newFakeRedis()
	client.err = errors.New("connection refused")
	cache := NewStatsCache(client, 0)
	ctx := context.Background()

	if _, _, _, err := cache.Get(ctx); err == nil {
		t.Fatalf("expected get error")
	}
	if err := cache.Set(ctx, 0, models.Statistics{}); err == nil {
		t.Fatalf("expected set error")
	}
	if err := cache.Invalidate(ctx); err == nil {
		t.Fatalf("expected invalidate error")
	}
}
