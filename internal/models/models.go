package models

import "time"

// Timestamp counts nanoseconds since the Unix epoch.
type Timestamp int64

// TimestampOf converts a wall-clock time into a Timestamp.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp(t.UnixNano())
}

// Time returns the UTC wall-clock time for the timestamp.
func (ts Timestamp) Time() time.Time {
	return time.Unix(0, int64(ts)).UTC()
}

// VideoStatus is the lifecycle state of a video idea.
type VideoStatus string

const (
	StatusDraft     VideoStatus = "draft"
	StatusScheduled VideoStatus = "scheduled"
	StatusPublished VideoStatus = "published"
)

// Valid reports whether s is one of the known statuses.
func (s VideoStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusScheduled, StatusPublished:
		return true
	}
	return false
}

// VideoIdea is a planned short video owned by a single identity. Title is
// unique within the owner's ideas.
type VideoIdea struct {
	Owner         string      `json:"owner"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Hashtags      []string    `json:"hashtags"`
	Status        VideoStatus `json:"status"`
	ScheduledDate *Timestamp  `json:"scheduledDate,omitempty"`
	CreatedAt     Timestamp   `json:"createdAt"`
	LastModified  Timestamp   `json:"lastModified"`
}

// Hashtag tracks how often a tag has been used across all ideas.
type Hashtag struct {
	Name       string    `json:"name"`
	CreatedAt  Timestamp `json:"createdAt"`
	UsageCount int64     `json:"usageCount"`
}

// UserProfile is the public profile of an identity.
type UserProfile struct {
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	Bio       *string   `json:"bio,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
}

// PublicationState gates public access to the application.
type PublicationState string

const (
	Published   PublicationState = "published"
	Unpublished PublicationState = "unpublished"
)

// Valid reports whether p is a known publication state.
func (p PublicationState) Valid() bool {
	return p == Published || p == Unpublished
}

// Role is the access level of an identity.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleGuest:
		return true
	}
	return false
}

// Statistics aggregates usage across every owner.
type Statistics struct {
	TotalVideos          int           `json:"totalVideos"`
	DraftVideos          int           `json:"draftVideos"`
	ScheduledVideos      int           `json:"scheduledVideos"`
	PublishedVideos      int           `json:"publishedVideos"`
	TotalHashtags        int           `json:"totalHashtags"`
	TotalUsers           int           `json:"totalUsers"`
	AverageVideosPerUser float64       `json:"averageVideosPerUser"`
	MostUsedHashtags     []Hashtag     `json:"mostUsedHashtags"`
	RecentUserActivity   []UserProfile `json:"recentUserActivity"`
}

// UserActivity summarises one identity's planning activity.
type UserActivity struct {
	User         string     `json:"user"`
	VideoCount   int        `json:"videoCount"`
	HashtagCount int        `json:"hashtagCount"`
	LastActivity *Timestamp `json:"lastActivity,omitempty"`
}

// Account is a login for the HTTP front-end. Its lower-cased Email is the
// identity seen by the planner.
type Account struct {
	ID        string
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
