package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/reelplanner/backend/internal/db"
	"github.com/reelplanner/backend/internal/models"
	"github.com/reelplanner/backend/internal/planner"
)

// PostgresProfileRepository persists user profiles.
type PostgresProfileRepository struct {
	pool db.Pool
}

// NewPostgresProfileRepository constructs a profile repository backed by PostgreSQL.
func NewPostgresProfileRepository(pool db.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

// FindProfile loads the profile owned by owner.
func (r *PostgresProfileRepository) FindProfile(ctx context.Context, owner string) (models.UserProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT owner, name, bio, created_at
        FROM user_profiles
        WHERE owner = $1
    `, owner)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("select profile: %w", err)
	}

	profile, err := pgx.CollectExactlyOneRow(rows, scanProfile)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.UserProfile{}, planner.ErrNotFound
		}
		return models.UserProfile{}, fmt.Errorf("scan profile: %w", err)
	}
	return profile, nil
}

// SaveProfile inserts the profile or, when one exists, replaces name and bio
// only. It returns the stored row.
func (r *PostgresProfileRepository) SaveProfile(ctx context.Context, profile models.UserProfile) (models.UserProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        INSERT INTO user_profiles (owner, name, bio, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (owner) DO UPDATE SET name = EXCLUDED.name, bio = EXCLUDED.bio
        RETURNING owner, name, bio, created_at
    `, profile.Owner, profile.Name, profile.Bio, int64(profile.CreatedAt))
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("upsert profile: %w", err)
	}

	saved, err := pgx.CollectExactlyOneRow(rows, scanProfile)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("scan saved profile: %w", err)
	}
	return saved, nil
}

// ListProfiles returns every profile in creation order.
func (r *PostgresProfileRepository) ListProfiles(ctx context.Context) ([]models.UserProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT owner, name, bio, created_at
        FROM user_profiles
        ORDER BY created_at, owner
    `)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}

	profiles, err := pgx.CollectRows(rows, scanProfile)
	if err != nil {
		return nil, fmt.Errorf("scan profiles: %w", err)
	}
	if profiles == nil {
		profiles = []models.UserProfile{}
	}
	return profiles, nil
}

func scanProfile(row pgx.CollectableRow) (models.UserProfile, error) {
	var (
		profile models.UserProfile
		created int64
	)
	if err := row.Scan(&profile.Owner, &profile.Name, &profile.Bio, &created); err != nil {
		return models.UserProfile{}, err
	}
	profile.CreatedAt = models.Timestamp(created)
	return profile, nil
}

var _ planner.ProfileStore = (*PostgresProfileRepository)(nil)
