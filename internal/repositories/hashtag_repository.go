package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/reelplanner/backend/internal/db"
	"github.com/reelplanner/backend/internal/models"
	"github.com/reelplanner/backend/internal/planner"
)

// PostgresHashtagRepository persists hashtag usage counters.
type PostgresHashtagRepository struct {
	pool db.Pool
}

// NewPostgresHashtagRepository constructs a hashtag repository backed by PostgreSQL.
func NewPostgresHashtagRepository(pool db.Pool) *PostgresHashtagRepository {
	return &PostgresHashtagRepository{pool: pool}
}

// IncrementHashtag creates the hashtag with a count of one or atomically bumps
// its counter, leaving createdAt untouched.
func (r *PostgresHashtagRepository) IncrementHashtag(ctx context.Context, name string, now models.Timestamp) (models.Hashtag, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Hashtag{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var (
		tag     models.Hashtag
		created int64
	)
	err = conn.QueryRow(ctx, `
        INSERT INTO hashtags (name, created_at, usage_count)
        VALUES ($1, $2, 1)
        ON CONFLICT (name) DO UPDATE SET usage_count = hashtags.usage_count + 1
        RETURNING name, created_at, usage_count
    `, name, int64(now)).Scan(&tag.Name, &created, &tag.UsageCount)
	if err != nil {
		return models.Hashtag{}, fmt.Errorf("upsert hashtag: %w", err)
	}
	tag.CreatedAt = models.Timestamp(created)
	return tag, nil
}

// ListHashtags returns every hashtag in creation order.
func (r *PostgresHashtagRepository) ListHashtags(ctx context.Context) ([]models.Hashtag, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT name, created_at, usage_count
        FROM hashtags
        ORDER BY created_at, name
    `)
	if err != nil {
		return nil, fmt.Errorf("query hashtags: %w", err)
	}

	tags, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Hashtag, error) {
		var (
			tag     models.Hashtag
			created int64
		)
		err := row.Scan(&tag.Name, &created, &tag.UsageCount)
		tag.CreatedAt = models.Timestamp(created)
		return tag, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan hashtags: %w", err)
	}
	if tags == nil {
		tags = []models.Hashtag{}
	}
	return tags, nil
}

var _ planner.HashtagStore = (*PostgresHashtagRepository)(nil)
