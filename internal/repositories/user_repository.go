package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/reelplanner/backend/internal/db"
	"github.com/reelplanner/backend/internal/models"
)

// AccountRepository defines the data access contract for login accounts.
type AccountRepository interface {
	Create(ctx context.Context, account models.Account) error
	FindByEmail(ctx context.Context, email string) (models.Account, error)
	Update(ctx context.Context, account models.Account) error
}

// PostgresAccountRepository persists accounts in the users table.
type PostgresAccountRepository struct {
	pool db.Pool
}

// NewPostgresAccountRepository constructs an account repository backed by PostgreSQL.
func NewPostgresAccountRepository(pool db.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// Create inserts a new account. Duplicate emails yield ErrConflict.
func (r *PostgresAccountRepository) Create(ctx context.Context, account models.Account) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, email, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
    `, account.ID, account.Email, account.Password, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// FindByEmail fetches an account by email.
func (r *PostgresAccountRepository) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Account{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var account models.Account
	err = conn.QueryRow(ctx, `
        SELECT id, email, password_hash, created_at, updated_at
        FROM users
        WHERE email = $1
    `, email).Scan(&account.ID, &account.Email, &account.Password, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrNotFound
		}
		return models.Account{}, fmt.Errorf("select account by email: %w", err)
	}
	return account, nil
}

// Update rewrites email and password of an existing account.
func (r *PostgresAccountRepository) Update(ctx context.Context, account models.Account) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET email = $2, password_hash = $3, updated_at = $4
        WHERE id = $1
    `, account.ID, account.Email, account.Password, account.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// MemoryAccountRepository keeps accounts in process memory for the memory
// store driver.
type MemoryAccountRepository struct {
	mu      sync.RWMutex
	byEmail map[string]models.Account
}

// NewMemoryAccountRepository returns an empty MemoryAccountRepository.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{byEmail: make(map[string]models.Account)}
}

func (r *MemoryAccountRepository) Create(_ context.Context, account models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(account.Email)
	if _, ok := r.byEmail[key]; ok {
		return ErrConflict
	}
	r.byEmail[key] = account
	return nil
}

func (r *MemoryAccountRepository) FindByEmail(_ context.Context, email string) (models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return models.Account{}, ErrNotFound
	}
	return account, nil
}

func (r *MemoryAccountRepository) Update(_ context.Context, account models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for email, existing := range r.byEmail {
		if existing.ID != account.ID {
			continue
		}
		key := strings.ToLower(account.Email)
		if other, taken := r.byEmail[key]; taken && other.ID != account.ID {
			return ErrConflict
		}
		delete(r.byEmail, email)
		account.CreatedAt = existing.CreatedAt
		r.byEmail[key] = account
		return nil
	}
	return ErrNotFound
}

var _ AccountRepository = (*PostgresAccountRepository)(nil)
var _ AccountRepository = (*MemoryAccountRepository)(nil)
