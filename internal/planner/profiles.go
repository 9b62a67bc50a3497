package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/reelplanner/backend/internal/models"
)

// ProfileService stores one profile per identity.
type ProfileService struct {
	store   ProfileStore
	gate    *Gate
	clock   *Clock
	onWrite func(context.Context)
}

// SaveProfile creates the caller's profile on first save; later saves only
// overwrite name and bio.
func (s *ProfileService) SaveProfile(ctx context.Context, caller, name string, bio *string) (models.UserProfile, error) {
	if err := s.gate.Authorize(ctx, caller, PermOwnContent); err != nil {
		return models.UserProfile{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return models.UserProfile{}, validationError("name is required")
	}
	if bio != nil {
		trimmed := strings.TrimSpace(*bio)
		bio = &trimmed
		if trimmed == "" {
			bio = nil
		}
	}

	saved, err := s.store.SaveProfile(ctx, models.UserProfile{
		Owner:     caller,
		Name:      name,
		Bio:       bio,
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("save profile: %w", err)
	}

	s.onWrite(ctx)
	return saved, nil
}

// GetProfile returns owner's profile. An empty owner means the caller.
func (s *ProfileService) GetProfile(ctx context.Context, caller, owner string) (models.UserProfile, error) {
	owner, err := resolveOwner(ctx, s.gate, caller, owner)
	if err != nil {
		return models.UserProfile{}, err
	}

	profile, err := s.store.FindProfile(ctx, owner)
	if err != nil {
		if isNotFound(err) {
			return models.UserProfile{}, fmt.Errorf("%w: profile for %s", ErrNotFound, owner)
		}
		return models.UserProfile{}, fmt.Errorf("find profile: %w", err)
	}
	return profile, nil
}
