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

const ideaColumns = `owner, title, description, hashtags, status, scheduled_date, created_at, last_modified`

// PostgresIdeaRepository persists video ideas.
type PostgresIdeaRepository struct {
	pool db.Pool
}

// NewPostgresIdeaRepository constructs an idea repository backed by PostgreSQL.
func NewPostgresIdeaRepository(pool db.Pool) *PostgresIdeaRepository {
	return &PostgresIdeaRepository{pool: pool}
}

// FindIdea loads the owner's idea with the given title.
func (r *PostgresIdeaRepository) FindIdea(ctx context.Context, owner, title string) (models.VideoIdea, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.VideoIdea{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+ideaColumns+`
        FROM video_ideas
        WHERE owner = $1 AND title = $2
    `, owner, title)
	if err != nil {
		return models.VideoIdea{}, fmt.Errorf("select idea: %w", err)
	}

	idea, err := pgx.CollectExactlyOneRow(rows, scanIdea)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.VideoIdea{}, planner.ErrNotFound
		}
		return models.VideoIdea{}, fmt.Errorf("scan idea: %w", err)
	}
	return idea, nil
}

// SaveIdea inserts the idea. An existing row with the same owner and title
// only has its description, hashtags and last_modified replaced.
func (r *PostgresIdeaRepository) SaveIdea(ctx context.Context, idea models.VideoIdea) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	hashtags := idea.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO video_ideas (`+ideaColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (owner, title) DO UPDATE SET
            description = EXCLUDED.description,
            hashtags = EXCLUDED.hashtags,
            last_modified = EXCLUDED.last_modified
    `, idea.Owner, idea.Title, idea.Description, hashtags, string(idea.Status), (*int64)(idea.ScheduledDate), int64(idea.CreatedAt), int64(idea.LastModified))
	if err != nil {
		return fmt.Errorf("upsert idea: %w", err)
	}
	return nil
}

// MarkScheduled moves a draft to scheduled. It reports planner.ErrNotFound
// when no draft with that title exists.
func (r *PostgresIdeaRepository) MarkScheduled(ctx context.Context, owner, title string, at, modified models.Timestamp) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE video_ideas
        SET status = 'scheduled', scheduled_date = $3, last_modified = $4
        WHERE owner = $1 AND title = $2 AND status = 'draft'
    `, owner, title, int64(at), int64(modified))
	if err != nil {
		return fmt.Errorf("schedule idea: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return planner.ErrNotFound
	}
	return nil
}

// DeleteDraft removes a draft. It reports planner.ErrNotFound when no draft
// with that title exists.
func (r *PostgresIdeaRepository) DeleteDraft(ctx context.Context, owner, title string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM video_ideas
        WHERE owner = $1 AND title = $2 AND status = 'draft'
    `, owner, title)
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return planner.ErrNotFound
	}
	return nil
}

// ListIdeasByOwner returns the owner's ideas in creation order.
func (r *PostgresIdeaRepository) ListIdeasByOwner(ctx context.Context, owner string) ([]models.VideoIdea, error) {
	return r.list(ctx, `
        SELECT `+ideaColumns+`
        FROM video_ideas
        WHERE owner = $1
        ORDER BY created_at, title
    `, owner)
}

// ListScheduledBetween returns ideas of every owner scheduled within [start, end].
func (r *PostgresIdeaRepository) ListScheduledBetween(ctx context.Context, start, end models.Timestamp) ([]models.VideoIdea, error) {
	return r.list(ctx, `
        SELECT `+ideaColumns+`
        FROM video_ideas
        WHERE scheduled_date BETWEEN $1 AND $2
        ORDER BY scheduled_date, created_at
    `, int64(start), int64(end))
}

// ListAllIdeas returns every idea in creation order.
func (r *PostgresIdeaRepository) ListAllIdeas(ctx context.Context) ([]models.VideoIdea, error) {
	return r.list(ctx, `
        SELECT `+ideaColumns+`
        FROM video_ideas
        ORDER BY created_at, owner, title
    `)
}

func (r *PostgresIdeaRepository) list(ctx context.Context, query string, args ...any) ([]models.VideoIdea, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ideas: %w", err)
	}

	ideas, err := pgx.CollectRows(rows, scanIdea)
	if err != nil {
		return nil, fmt.Errorf("scan ideas: %w", err)
	}
	if ideas == nil {
		ideas = []models.VideoIdea{}
	}
	return ideas, nil
}

func scanIdea(row pgx.CollectableRow) (models.VideoIdea, error) {
	var (
		idea      models.VideoIdea
		status    string
		scheduled *int64
		created   int64
		modified  int64
	)
	if err := row.Scan(&idea.Owner, &idea.Title, &idea.Description, &idea.Hashtags, &status, &scheduled, &created, &modified); err != nil {
		return models.VideoIdea{}, err
	}

	idea.Status = models.VideoStatus(status)
	idea.CreatedAt = models.Timestamp(created)
	idea.LastModified = models.Timestamp(modified)
	if scheduled != nil {
		at := models.Timestamp(*scheduled)
		idea.ScheduledDate = &at
	}
	if idea.Hashtags == nil {
		idea.Hashtags = []string{}
	}
	return idea, nil
}

var _ planner.IdeaStore = (*PostgresIdeaRepository)(nil)
