package planner

import (
	"context"
	"fmt"
	"sort"

	"github.com/reelplanner/backend/internal/logging"
	"github.com/reelplanner/backend/internal/models"
)

const (
	// MostUsedHashtagLimit caps Statistics.MostUsedHashtags.
	MostUsedHashtagLimit = 5
	// RecentProfileLimit caps Statistics.RecentUserActivity.
	RecentProfileLimit = 10
)

// Aggregator computes usage statistics from full scans of the record store.
// Results may be served from a StatsCache, which every planner write
// invalidates. A result computed across an invalidation is not cached.
type Aggregator struct {
	ideas    IdeaStore
	hashtags HashtagStore
	profiles ProfileStore
	gate     *Gate
	cache    StatsCache
}

// Statistics returns the aggregate counts. Admin only.
func (a *Aggregator) Statistics(ctx context.Context, caller string) (models.Statistics, error) {
	if err := a.gate.Authorize(ctx, caller, PermStaff); err != nil {
		return models.Statistics{}, err
	}

	logger := logging.FromContext(ctx)
	cached, generation, ok, err := a.cache.Get(ctx)
	cacheable := err == nil
	if err != nil {
		logger.Warn("statistics cache read failed", "error", err)
	} else if ok {
		return cached, nil
	}

	ctx, span := logging.StartSpan(ctx, "planner.statistics")
	defer span.End()

	ideas, tags, profiles, err := a.scan(ctx)
	if err != nil {
		return models.Statistics{}, err
	}
	stats := ComputeStatistics(ideas, tags, profiles)

	if cacheable {
		if err := a.cache.Set(ctx, generation, stats); err != nil {
			logger.Warn("statistics cache write failed", "error", err)
		}
	}
	return stats, nil
}

// UserCount returns the number of profiles. Admin only.
func (a *Aggregator) UserCount(ctx context.Context, caller string) (int, error) {
	if err := a.gate.Authorize(ctx, caller, PermStaff); err != nil {
		return 0, err
	}

	profiles, err := a.profiles.ListProfiles(ctx)
	if err != nil {
		return 0, fmt.Errorf("list profiles: %w", err)
	}
	return len(profiles), nil
}

// AllUserActivity returns one entry per identity owning an idea or a profile.
// Admin only.
func (a *Aggregator) AllUserActivity(ctx context.Context, caller string) ([]models.UserActivity, error) {
	if err := a.gate.Authorize(ctx, caller, PermStaff); err != nil {
		return nil, err
	}

	ideas, err := a.ideas.ListAllIdeas(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}
	profiles, err := a.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return ComputeUserActivity(ideas, profiles), nil
}

// Invalidate drops any cached statistics.
func (a *Aggregator) Invalidate(ctx context.Context) {
	if err := a.cache.Invalidate(ctx); err != nil {
		logging.FromContext(ctx).Warn("statistics cache invalidation failed", "error", err)
	}
}

func (a *Aggregator) scan(ctx context.Context) ([]models.VideoIdea, []models.Hashtag, []models.UserProfile, error) {
	ideas, err := a.ideas.ListAllIdeas(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list ideas: %w", err)
	}
	tags, err := a.hashtags.ListHashtags(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list hashtags: %w", err)
	}
	profiles, err := a.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list profiles: %w", err)
	}
	return ideas, tags, profiles, nil
}

// ComputeStatistics derives Statistics from complete collections.
func ComputeStatistics(ideas []models.VideoIdea, tags []models.Hashtag, profiles []models.UserProfile) models.Statistics {
	stats := models.Statistics{
		TotalVideos:   len(ideas),
		TotalHashtags: len(tags),
		TotalUsers:    len(profiles),
	}

	for _, idea := range ideas {
		switch idea.Status {
		case models.StatusDraft:
			stats.DraftVideos++
		case models.StatusScheduled:
			stats.ScheduledVideos++
		case models.StatusPublished:
			stats.PublishedVideos++
		}
	}

	if stats.TotalUsers > 0 {
		stats.AverageVideosPerUser = float64(stats.TotalVideos) / float64(stats.TotalUsers)
	}

	ranked := make([]models.Hashtag, len(tags))
	copy(ranked, tags)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.UsageCount != b.UsageCount {
			return a.UsageCount > b.UsageCount
		}
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return a.Name < b.Name
	})
	if len(ranked) > MostUsedHashtagLimit {
		ranked = ranked[:MostUsedHashtagLimit]
	}
	stats.MostUsedHashtags = ranked

	recent := make([]models.UserProfile, len(profiles))
	copy(recent, profiles)
	sort.SliceStable(recent, func(i, j int) bool {
		a, b := recent[i], recent[j]
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt > b.CreatedAt
		}
		return a.Owner < b.Owner
	})
	if len(recent) > RecentProfileLimit {
		recent = recent[:RecentProfileLimit]
	}
	stats.RecentUserActivity = recent

	return stats
}

// ComputeUserActivity summarises every identity owning an idea or a profile,
// ordered by identity.
func ComputeUserActivity(ideas []models.VideoIdea, profiles []models.UserProfile) []models.UserActivity {
	type tally struct {
		videos int
		tags   map[string]struct{}
		last   *models.Timestamp
	}

	tallies := make(map[string]*tally)
	get := func(identity string) *tally {
		t, ok := tallies[identity]
		if !ok {
			t = &tally{tags: make(map[string]struct{})}
			tallies[identity] = t
		}
		return t
	}

	for _, profile := range profiles {
		get(profile.Owner)
	}
	for _, idea := range ideas {
		t := get(idea.Owner)
		t.videos++
		for _, tag := range idea.Hashtags {
			t.tags[tag] = struct{}{}
		}
		if t.last == nil || idea.LastModified > *t.last {
			modified := idea.LastModified
			t.last = &modified
		}
	}

	activity := make([]models.UserActivity, 0, len(tallies))
	for identity, t := range tallies {
		activity = append(activity, models.UserActivity{
			User:         identity,
			VideoCount:   t.videos,
			HashtagCount: len(t.tags),
			LastActivity: t.last,
		})
	}
	sort.Slice(activity, func(i, j int) bool { return activity[i].User < activity[j].User })
	return activity
}
