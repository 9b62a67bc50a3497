package repositories

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"

	"github.com/reelplanner/backend/internal/db"
	"github.com/reelplanner/backend/internal/models"
	"github.com/reelplanner/backend/internal/planner"
)

// PostgresRoleRepository persists per-identity roles.
type PostgresRoleRepository struct {
	pool db.Pool
}

// NewPostgresRoleRepository constructs a role repository backed by PostgreSQL.
func NewPostgresRoleRepository(pool db.Pool) *PostgresRoleRepository {
	return &PostgresRoleRepository{pool: pool}
}

func (r *PostgresRoleRepository) FindRole(ctx context.Context, identity string) (models.Role, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var role string
	err = conn.QueryRow(ctx, `SELECT role FROM user_roles WHERE identity = $1`, identity).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", planner.ErrNotFound
		}
		return "", fmt.Errorf("select role: %w", err)
	}
	return models.Role(role), nil
}

func (r *PostgresRoleRepository) SaveRole(ctx context.Context, identity string, role models.Role) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO user_roles (identity, role)
        VALUES ($1, $2)
        ON CONFLICT (identity) DO UPDATE SET role = EXCLUDED.role
    `, identity, string(role))
	if err != nil {
		return fmt.Errorf("upsert role: %w", err)
	}
	return nil
}

// ReplaceRoleKeepingAdmin locks every admin row before writing, so concurrent
// demotions serialize and the last admin cannot be removed.
func (r *PostgresRoleRepository) ReplaceRoleKeepingAdmin(ctx context.Context, identity string, role models.Role) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
        SELECT identity FROM user_roles
        WHERE role = 'admin'
        FOR UPDATE
    `)
	if err != nil {
		return fmt.Errorf("lock admins: %w", err)
	}
	admins, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("scan admins: %w", err)
	}

	if role != models.RoleAdmin && len(admins) <= 1 && slices.Contains(admins, identity) {
		return fmt.Errorf("%w: cannot demote the last admin", planner.ErrInvalidState)
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO user_roles (identity, role)
        VALUES ($1, $2)
        ON CONFLICT (identity) DO UPDATE SET role = EXCLUDED.role
    `, identity, string(role))
	if err != nil {
		return fmt.Errorf("upsert role: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit role: %w", err)
	}
	return nil
}

func (r *PostgresRoleRepository) CountRole(ctx context.Context, role models.Role) (int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var n int
	if err := conn.QueryRow(ctx, `SELECT count(*) FROM user_roles WHERE role = $1`, string(role)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count roles: %w", err)
	}
	return n, nil
}

// PostgresSettingsRepository persists the singleton publication flag.
type PostgresSettingsRepository struct {
	pool db.Pool
}

// NewPostgresSettingsRepository constructs a settings repository backed by PostgreSQL.
func NewPostgresSettingsRepository(pool db.Pool) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{pool: pool}
}

// LoadPublicationState returns the stored flag, or published when no row exists.
func (r *PostgresSettingsRepository) LoadPublicationState(ctx context.Context) (models.PublicationState, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var state string
	err = conn.QueryRow(ctx, `SELECT publication_state FROM app_settings WHERE id = 1`).Scan(&state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Published, nil
		}
		return "", fmt.Errorf("select publication state: %w", err)
	}
	return models.PublicationState(state), nil
}

func (r *PostgresSettingsRepository) SavePublicationState(ctx context.Context, state models.PublicationState) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO app_settings (id, publication_state)
        VALUES (1, $1)
        ON CONFLICT (id) DO UPDATE SET publication_state = EXCLUDED.publication_state
    `, string(state))
	if err != nil {
		return fmt.Errorf("upsert publication state: %w", err)
	}
	return nil
}

var _ planner.RoleStore = (*PostgresRoleRepository)(nil)
var _ planner.PublicationStore = (*PostgresSettingsRepository)(nil)
