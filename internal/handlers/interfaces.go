package handlers

import (
	"context"

	"github.com/reelplanner/backend/internal/models"
	"github.com/reelplanner/backend/internal/snapshots"
)

// AccountStore captures the persistence operations required by the auth handlers.
type AccountStore interface {
	Create(ctx context.Context, account models.Account) error
	FindByEmail(ctx context.Context, email string) (models.Account, error)
}

// SessionManager issues, refreshes and revokes authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, identity string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
}

// IdeaPlanner manages video ideas on behalf of a caller.
type IdeaPlanner interface {
	AddOrUpdateIdea(ctx context.Context, caller, title, description string, hashtags []string) error
	ScheduleIdea(ctx context.Context, caller, title string, at models.Timestamp) error
	DeleteDraft(ctx context.Context, caller, title string) error
	ListIdeas(ctx context.Context, caller, owner string) ([]models.VideoIdea, error)
	ListByDateRange(ctx context.Context, caller string, start, end models.Timestamp) ([]models.VideoIdea, error)
}

// HashtagTracker upserts and lists hashtags.
type HashtagTracker interface {
	Upsert(ctx context.Context, caller, name string) (models.Hashtag, error)
	List(ctx context.Context) ([]models.Hashtag, error)
	ListForOwner(ctx context.Context, caller, owner string) ([]models.Hashtag, error)
}

// ProfileManager reads and writes user profiles.
type ProfileManager interface {
	SaveProfile(ctx context.Context, caller, name string, bio *string) (models.UserProfile, error)
	GetProfile(ctx context.Context, caller, owner string) (models.UserProfile, error)
}

// StatsProvider serves the admin statistics views.
type StatsProvider interface {
	Statistics(ctx context.Context, caller string) (models.Statistics, error)
	UserCount(ctx context.Context, caller string) (int, error)
	AllUserActivity(ctx context.Context, caller string) ([]models.UserActivity, error)
}

// AccessGate owns roles and the publication flag.
type AccessGate interface {
	PublicationState(ctx context.Context) (models.PublicationState, error)
	SetPublicationState(ctx context.Context, caller string, target models.PublicationState) (models.PublicationState, error)
	TogglePublicationState(ctx context.Context, caller string) (models.PublicationState, error)
	CallerRole(ctx context.Context, caller string) (models.Role, error)
	IsAdmin(ctx context.Context, caller string) (bool, error)
	AssignRole(ctx context.Context, caller, identity string, role models.Role) error
	Provision(ctx context.Context, identity string, role models.Role) error
}

// SnapshotExporter writes a snapshot of every record to object storage.
type SnapshotExporter interface {
	Export(ctx context.Context, caller string) (snapshots.Result, error)
}
