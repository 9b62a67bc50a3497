package planner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/reelplanner/backend/internal/logging"
	"github.com/reelplanner/backend/internal/models"
)

// IdeaService manages the lifecycle of video ideas. Ideas are created as
// drafts and move to scheduled exactly once; nothing here publishes them.
type IdeaService struct {
	store    IdeaStore
	hashtags *HashtagService
	gate     *Gate
	clock    *Clock
	onWrite  func(context.Context)
}

// AddOrUpdateIdea creates a draft, or, when the caller already owns an idea
// with this title, replaces its description and hashtags while keeping its
// status, schedule and creation time. Every hashtag is then upserted on its
// own; if some of those fail the idea stays written and a
// *HashtagUpsertError lists the failures.
func (s *IdeaService) AddOrUpdateIdea(ctx context.Context, caller, title, description string, hashtags []string) error {
	if err := s.gate.Authorize(ctx, caller, PermOwnContent); err != nil {
		return err
	}

	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" {
		return validationError("title is required")
	}
	if description == "" {
		return validationError("description is required")
	}

	tags := normalizeHashtagList(hashtags)
	now := s.clock.Now()

	idea := models.VideoIdea{
		Owner:        caller,
		Title:        title,
		Description:  description,
		Hashtags:     tags,
		Status:       models.StatusDraft,
		CreatedAt:    now,
		LastModified: now,
	}
	if err := s.store.SaveIdea(ctx, idea); err != nil {
		return fmt.Errorf("save idea: %w", err)
	}
	defer s.onWrite(ctx)

	logger := logging.FromContext(ctx)
	var failures []HashtagFailure
	for _, tag := range tags {
		if _, err := s.hashtags.increment(ctx, tag); err != nil {
			logger.Warn("hashtag upsert failed", "hashtag", tag, "title", title, "error", err)
			failures = append(failures, HashtagFailure{Name: tag, Err: err})
		}
	}
	if len(failures) > 0 {
		return &HashtagUpsertError{Failures: failures}
	}
	return nil
}

// ScheduleIdea moves a draft to scheduled at the given time. Ideas that are
// already scheduled or published cannot be rescheduled.
func (s *IdeaService) ScheduleIdea(ctx context.Context, caller, title string, at models.Timestamp) error {
	if err := s.gate.Authorize(ctx, caller, PermOwnContent); err != nil {
		return err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return validationError("title is required")
	}

	if err := s.requireDraft(ctx, caller, title); err != nil {
		return err
	}

	if err := s.store.MarkScheduled(ctx, caller, title, at, s.clock.Now()); err != nil {
		if isNotFound(err) {
			return s.classifyLostDraft(ctx, caller, title)
		}
		return fmt.Errorf("schedule idea: %w", err)
	}

	s.onWrite(ctx)
	return nil
}

// DeleteDraft permanently removes a draft.
func (s *IdeaService) DeleteDraft(ctx context.Context, caller, title string) error {
	if err := s.gate.Authorize(ctx, caller, PermOwnContent); err != nil {
		return err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return validationError("title is required")
	}

	if err := s.requireDraft(ctx, caller, title); err != nil {
		return err
	}

	if err := s.store.DeleteDraft(ctx, caller, title); err != nil {
		if isNotFound(err) {
			return s.classifyLostDraft(ctx, caller, title)
		}
		return fmt.Errorf("delete draft: %w", err)
	}

	s.onWrite(ctx)
	return nil
}

// ListIdeas returns owner's ideas in creation order. An empty owner means the
// caller; other owners are visible to admins only.
func (s *IdeaService) ListIdeas(ctx context.Context, caller, owner string) ([]models.VideoIdea, error) {
	owner, err := resolveOwner(ctx, s.gate, caller, owner)
	if err != nil {
		return nil, err
	}

	ideas, err := s.store.ListIdeasByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}
	return ideas, nil
}

// ListByDateRange returns the ideas of every owner scheduled within
// [start, end], ordered by scheduled date. Unscheduled ideas are excluded.
func (s *IdeaService) ListByDateRange(ctx context.Context, caller string, start, end models.Timestamp) ([]models.VideoIdea, error) {
	if err := s.gate.Authorize(ctx, caller, PermOwnContent); err != nil {
		return nil, err
	}
	if start > end {
		return nil, validationError("range start %d is after end %d", start, end)
	}

	ideas, err := s.store.ListScheduledBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list scheduled ideas: %w", err)
	}

	sort.SliceStable(ideas, func(i, j int) bool {
		return *ideas[i].ScheduledDate < *ideas[j].ScheduledDate
	})
	return ideas, nil
}

func (s *IdeaService) requireDraft(ctx context.Context, owner, title string) error {
	idea, err := s.store.FindIdea(ctx, owner, title)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: idea %q", ErrNotFound, title)
		}
		return fmt.Errorf("find idea: %w", err)
	}
	if idea.Status != models.StatusDraft {
		return fmt.Errorf("%w: idea %q is %s, not draft", ErrInvalidState, title, idea.Status)
	}
	return nil
}

// classifyLostDraft explains why a conditional draft update matched nothing:
// the idea vanished or left draft between the check and the write.
func (s *IdeaService) classifyLostDraft(ctx context.Context, owner, title string) error {
	if err := s.requireDraft(ctx, owner, title); err != nil {
		return err
	}
	return fmt.Errorf("%w: idea %q changed concurrently", ErrInvalidState, title)
}

func normalizeHashtagList(names []string) []string {
	tags := make([]string, 0, len(names))
	for _, name := range names {
		tag, err := NormalizeHashtag(name)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}
