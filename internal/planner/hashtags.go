package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/reelplanner/backend/internal/models"
)

// NormalizeHashtag trims name and prefixes it with "#" when missing. Names are
// case-sensitive.
func NormalizeHashtag(name string) (string, error) {
	name = strings.TrimSpace(name)
	if strings.TrimLeft(name, "#") == "" {
		return "", validationError("hashtag name is required")
	}
	if !strings.HasPrefix(name, "#") {
		name = "#" + name
	}
	return name, nil
}

// HashtagService tracks hashtag usage.
type HashtagService struct {
	store   HashtagStore
	ideas   IdeaStore
	gate    *Gate
	clock   *Clock
	onWrite func(context.Context)
}

// Upsert records one use of the hashtag and returns its updated counter.
// Repeated calls keep incrementing.
func (s *HashtagService) Upsert(ctx context.Context, caller, name string) (models.Hashtag, error) {
	if err := s.gate.Authorize(ctx, caller, PermOwnContent); err != nil {
		return models.Hashtag{}, err
	}

	normalized, err := NormalizeHashtag(name)
	if err != nil {
		return models.Hashtag{}, err
	}

	tag, err := s.increment(ctx, normalized)
	if err != nil {
		return models.Hashtag{}, err
	}
	s.onWrite(ctx)
	return tag, nil
}

func (s *HashtagService) increment(ctx context.Context, normalized string) (models.Hashtag, error) {
	tag, err := s.store.IncrementHashtag(ctx, normalized, s.clock.Now())
	if err != nil {
		return models.Hashtag{}, fmt.Errorf("increment hashtag %s: %w", normalized, err)
	}
	return tag, nil
}

// List returns every hashtag.
func (s *HashtagService) List(ctx context.Context) ([]models.Hashtag, error) {
	tags, err := s.store.ListHashtags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list hashtags: %w", err)
	}
	return tags, nil
}

// ListForOwner returns the hashtags used by owner's ideas in first-use order.
// An empty owner means the caller.
func (s *HashtagService) ListForOwner(ctx context.Context, caller, owner string) ([]models.Hashtag, error) {
	owner, err := resolveOwner(ctx, s.gate, caller, owner)
	if err != nil {
		return nil, err
	}

	ideas, err := s.ideas.ListIdeasByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}

	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]models.Hashtag, len(all))
	for _, tag := range all {
		byName[tag.Name] = tag
	}

	seen := make(map[string]struct{})
	tags := []models.Hashtag{}
	for _, idea := range ideas {
		for _, name := range idea.Hashtags {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			if tag, ok := byName[name]; ok {
				tags = append(tags, tag)
			}
		}
	}
	return tags, nil
}

// resolveOwner returns the identity whose records are read: the caller when
// owner is empty or equal to the caller, otherwise owner if the caller may
// read anyone's records.
func resolveOwner(ctx context.Context, gate *Gate, caller, owner string) (string, error) {
	caller = strings.TrimSpace(caller)
	owner = strings.TrimSpace(owner)

	if err := gate.Authorize(ctx, caller, PermOwnContent); err != nil {
		return "", err
	}
	if owner == "" || owner == caller {
		return caller, nil
	}
	if err := gate.Authorize(ctx, caller, PermReadAny); err != nil {
		return "", err
	}
	return owner, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
