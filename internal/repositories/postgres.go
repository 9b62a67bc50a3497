package repositories

import (
	"github.com/reelplanner/backend/internal/db"
	"github.com/reelplanner/backend/internal/planner"
)

// PostgresStore satisfies planner.Store with one repository per table.
type PostgresStore struct {
	*PostgresIdeaRepository
	*PostgresHashtagRepository
	*PostgresProfileRepository
	*PostgresRoleRepository
	*PostgresSettingsRepository
}

// NewPostgresStore constructs the planner record store over pool.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{
		PostgresIdeaRepository:     NewPostgresIdeaRepository(pool),
		PostgresHashtagRepository:  NewPostgresHashtagRepository(pool),
		PostgresProfileRepository:  NewPostgresProfileRepository(pool),
		PostgresRoleRepository:     NewPostgresRoleRepository(pool),
		PostgresSettingsRepository: NewPostgresSettingsRepository(pool),
	}
}

var _ planner.Store = (*PostgresStore)(nil)
