package planner

import (
	"context"

	"github.com/reelplanner/backend/internal/models"
)

// IdeaStore persists video ideas keyed by (owner, title).
type IdeaStore interface {
	FindIdea(ctx context.Context, owner, title string) (models.VideoIdea, error)
	// SaveIdea inserts the idea. When the owner already has an idea with that
	// title, only its description, hashtags and lastModified are replaced in a
	// single step; status, scheduledDate and createdAt stay as stored.
	SaveIdea(ctx context.Context, idea models.VideoIdea) error
	// MarkScheduled moves a draft to scheduled. It returns ErrNotFound when no
	// draft with that title exists for the owner.
	MarkScheduled(ctx context.Context, owner, title string, at, modified models.Timestamp) error
	// DeleteDraft removes a draft. It returns ErrNotFound when no draft with
	// that title exists for the owner.
	DeleteDraft(ctx context.Context, owner, title string) error
	// ListIdeasByOwner returns the owner's ideas in creation order.
	ListIdeasByOwner(ctx context.Context, owner string) ([]models.VideoIdea, error)
	// ListScheduledBetween returns ideas of every owner whose scheduled date lies in [start, end].
	ListScheduledBetween(ctx context.Context, start, end models.Timestamp) ([]models.VideoIdea, error)
	ListAllIdeas(ctx context.Context) ([]models.VideoIdea, error)
}

// HashtagStore persists hashtag usage counters.
type HashtagStore interface {
	// IncrementHashtag creates the hashtag with a count of one or adds one to
	// its count in a single atomic step.
	IncrementHashtag(ctx context.Context, name string, now models.Timestamp) (models.Hashtag, error)
	ListHashtags(ctx context.Context) ([]models.Hashtag, error)
}

// ProfileStore persists one profile per identity.
type ProfileStore interface {
	FindProfile(ctx context.Context, owner string) (models.UserProfile, error)
	// SaveProfile inserts the profile or overwrites name and bio of an
	// existing one, keeping its CreatedAt. It returns the stored record.
	SaveProfile(ctx context.Context, profile models.UserProfile) (models.UserProfile, error)
	ListProfiles(ctx context.Context) ([]models.UserProfile, error)
}

// RoleStore persists assigned roles.
type RoleStore interface {
	FindRole(ctx context.Context, identity string) (models.Role, error)
	SaveRole(ctx context.Context, identity string, role models.Role) error
	// ReplaceRoleKeepingAdmin assigns role to identity in one atomic step,
	// failing with ErrInvalidState when that would demote the only admin.
	ReplaceRoleKeepingAdmin(ctx context.Context, identity string, role models.Role) error
	CountRole(ctx context.Context, role models.Role) (int, error)
}

// PublicationStore persists the single publication flag.
type PublicationStore interface {
	LoadPublicationState(ctx context.Context) (models.PublicationState, error)
	SavePublicationState(ctx context.Context, state models.PublicationState) error
}

// Store is the complete record store used by the planner services.
type Store interface {
	IdeaStore
	HashtagStore
	ProfileStore
	RoleStore
	PublicationStore
}
