// Package planner implements the video-idea lifecycle, hashtag tracking,
// profiles, usage statistics and the publication/role gate on top of a
// pluggable record store.
package planner

import (
	"context"
	"time"
)

// Options tunes a Planner. The zero value is usable.
type Options struct {
	// Cache serves statistics between writes. Defaults to NoStatsCache.
	Cache StatsCache
	// NowFunc overrides the wall clock.
	NowFunc func() time.Time
}

// Planner groups the services sharing one store, gate and clock.
type Planner struct {
	Ideas    *IdeaService
	Hashtags *HashtagService
	Profiles *ProfileService
	Stats    *Aggregator
	Gate     *Gate
}

// New wires the planner services over store.
func New(store Store, opts Options) *Planner {
	if store == nil {
		panic("planner: store must not be nil")
	}
	if opts.Cache == nil {
		opts.Cache = NoStatsCache{}
	}

	clock := NewClock(opts.NowFunc)
	gate := NewGate(store, store)
	stats := &Aggregator{
		ideas:    store,
		hashtags: store,
		profiles: store,
		gate:     gate,
		cache:    opts.Cache,
	}
	onWrite := func(ctx context.Context) { stats.Invalidate(ctx) }

	hashtags := &HashtagService{
		store:   store,
		ideas:   store,
		gate:    gate,
		clock:   clock,
		onWrite: onWrite,
	}

	return &Planner{
		Ideas: &IdeaService{
			store:    store,
			hashtags: hashtags,
			gate:     gate,
			clock:    clock,
			onWrite:  onWrite,
		},
		Hashtags: hashtags,
		Profiles: &ProfileService{
			store:   store,
			gate:    gate,
			clock:   clock,
			onWrite: onWrite,
		},
		Stats: stats,
		Gate:  gate,
	}
}
