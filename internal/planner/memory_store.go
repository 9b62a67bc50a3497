package planner

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/reelplanner/backend/internal/models"
)

type ideaKey struct {
	owner string
	title string
}

// MemoryStore implements Store in process memory. It backs tests and the
// "memory" store driver for local development.
type MemoryStore struct {
	mu sync.RWMutex

	ideas     map[ideaKey]models.VideoIdea
	ideaOrder []ideaKey

	hashtags     map[string]models.Hashtag
	hashtagOrder []string

	profiles     map[string]models.UserProfile
	profileOrder []string

	roles       map[string]models.Role
	publication models.PublicationState
}

// NewMemoryStore returns an empty, published MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ideas:       make(map[ideaKey]models.VideoIdea),
		hashtags:    make(map[string]models.Hashtag),
		profiles:    make(map[string]models.UserProfile),
		roles:       make(map[string]models.Role),
		publication: models.Published,
	}
}

// FindIdea returns the owner's idea with the given title.
func (s *MemoryStore) FindIdea(_ context.Context, owner, title string) (models.VideoIdea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idea, ok := s.ideas[ideaKey{owner, title}]
	if !ok {
		return models.VideoIdea{}, ErrNotFound
	}
	return cloneIdea(idea), nil
}

// SaveIdea inserts the idea, or replaces the content of an existing one.
func (s *MemoryStore) SaveIdea(_ context.Context, idea models.VideoIdea) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ideaKey{idea.Owner, idea.Title}
	existing, ok := s.ideas[key]
	if !ok {
		s.ideaOrder = append(s.ideaOrder, key)
		s.ideas[key] = cloneIdea(idea)
		return nil
	}

	existing.Description = idea.Description
	existing.Hashtags = slices.Clone(idea.Hashtags)
	existing.LastModified = idea.LastModified
	s.ideas[key] = cloneIdea(existing)
	return nil
}

// MarkScheduled moves a draft to scheduled.
func (s *MemoryStore) MarkScheduled(_ context.Context, owner, title string, at, modified models.Timestamp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ideaKey{owner, title}
	idea, ok := s.ideas[key]
	if !ok || idea.Status != models.StatusDraft {
		return ErrNotFound
	}
	idea.Status = models.StatusScheduled
	idea.ScheduledDate = &at
	idea.LastModified = modified
	s.ideas[key] = idea
	return nil
}

// DeleteDraft removes a draft idea.
func (s *MemoryStore) DeleteDraft(_ context.Context, owner, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ideaKey{owner, title}
	idea, ok := s.ideas[key]
	if !ok || idea.Status != models.StatusDraft {
		return ErrNotFound
	}
	delete(s.ideas, key)
	s.ideaOrder = slices.DeleteFunc(s.ideaOrder, func(k ideaKey) bool { return k == key })
	return nil
}

// ListIdeasByOwner returns the owner's ideas in creation order.
func (s *MemoryStore) ListIdeasByOwner(_ context.Context, owner string) ([]models.VideoIdea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ideas := []models.VideoIdea{}
	for _, key := range s.ideaOrder {
		if key.owner == owner {
			ideas = append(ideas, cloneIdea(s.ideas[key]))
		}
	}
	return ideas, nil
}

// ListScheduledBetween returns ideas of all owners scheduled within [start, end].
func (s *MemoryStore) ListScheduledBetween(_ context.Context, start, end models.Timestamp) ([]models.VideoIdea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ideas := []models.VideoIdea{}
	for _, key := range s.ideaOrder {
		idea := s.ideas[key]
		if idea.ScheduledDate == nil {
			continue
		}
		if at := *idea.ScheduledDate; at >= start && at <= end {
			ideas = append(ideas, cloneIdea(idea))
		}
	}
	return ideas, nil
}

// ListAllIdeas returns every idea in creation order.
func (s *MemoryStore) ListAllIdeas(_ context.Context) ([]models.VideoIdea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ideas := make([]models.VideoIdea, 0, len(s.ideaOrder))
	for _, key := range s.ideaOrder {
		ideas = append(ideas, cloneIdea(s.ideas[key]))
	}
	return ideas, nil
}

// IncrementHashtag creates or bumps the named hashtag.
func (s *MemoryStore) IncrementHashtag(_ context.Context, name string, now models.Timestamp) (models.Hashtag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tag, ok := s.hashtags[name]
	if !ok {
		tag = models.Hashtag{Name: name, CreatedAt: now}
		s.hashtagOrder = append(s.hashtagOrder, name)
	}
	tag.UsageCount++
	s.hashtags[name] = tag
	return tag, nil
}

// ListHashtags returns hashtags in creation order.
func (s *MemoryStore) ListHashtags(_ context.Context) ([]models.Hashtag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tags := make([]models.Hashtag, 0, len(s.hashtagOrder))
	for _, name := range s.hashtagOrder {
		tags = append(tags, s.hashtags[name])
	}
	return tags, nil
}

// FindProfile returns the owner's profile.
func (s *MemoryStore) FindProfile(_ context.Context, owner string) (models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[owner]
	if !ok {
		return models.UserProfile{}, ErrNotFound
	}
	return cloneProfile(profile), nil
}

// SaveProfile inserts the profile or updates name and bio.
func (s *MemoryStore) SaveProfile(_ context.Context, profile models.UserProfile) (models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.profiles[profile.Owner]
	if ok {
		existing.Name = profile.Name
		existing.Bio = profile.Bio
		profile = existing
	} else {
		s.profileOrder = append(s.profileOrder, profile.Owner)
	}
	s.profiles[profile.Owner] = cloneProfile(profile)
	return cloneProfile(profile), nil
}

// ListProfiles returns profiles in creation order.
func (s *MemoryStore) ListProfiles(_ context.Context) ([]models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles := make([]models.UserProfile, 0, len(s.profileOrder))
	for _, owner := range s.profileOrder {
		profiles = append(profiles, cloneProfile(s.profiles[owner]))
	}
	return profiles, nil
}

// FindRole returns the role assigned to identity.
func (s *MemoryStore) FindRole(_ context.Context, identity string) (models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	role, ok := s.roles[identity]
	if !ok {
		return "", ErrNotFound
	}
	return role, nil
}

// SaveRole assigns role to identity.
func (s *MemoryStore) SaveRole(_ context.Context, identity string, role models.Role) error {
	s.mu.Lock()
	s.roles[identity] = role
	s.mu.Unlock()
	return nil
}

// ReplaceRoleKeepingAdmin assigns role unless identity is the only admin and
// role is not admin.
func (s *MemoryStore) ReplaceRoleKeepingAdmin(_ context.Context, identity string, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.roles[identity] == models.RoleAdmin && role != models.RoleAdmin && s.countRoleLocked(models.RoleAdmin) <= 1 {
		return fmt.Errorf("%w: cannot demote the last admin", ErrInvalidState)
	}
	s.roles[identity] = role
	return nil
}

// CountRole counts identities holding role.
func (s *MemoryStore) CountRole(_ context.Context, role models.Role) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countRoleLocked(role), nil
}

func (s *MemoryStore) countRoleLocked(role models.Role) int {
	var n int
	for _, r := range s.roles {
		if r == role {
			n++
		}
	}
	return n
}

// LoadPublicationState returns the current publication flag.
func (s *MemoryStore) LoadPublicationState(_ context.Context) (models.PublicationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.publication, nil
}

// SavePublicationState replaces the publication flag.
func (s *MemoryStore) SavePublicationState(_ context.Context, state models.PublicationState) error {
	s.mu.Lock()
	s.publication = state
	s.mu.Unlock()
	return nil
}

func cloneIdea(idea models.VideoIdea) models.VideoIdea {
	idea.Hashtags = slices.Clone(idea.Hashtags)
	if idea.Hashtags == nil {
		idea.Hashtags = []string{}
	}
	if idea.ScheduledDate != nil {
		at := *idea.ScheduledDate
		idea.ScheduledDate = &at
	}
	return idea
}

func cloneProfile(profile models.UserProfile) models.UserProfile {
	if profile.Bio != nil {
		bio := *profile.Bio
		profile.Bio = &bio
	}
	return profile
}

var _ Store = (*MemoryStore)(nil)
