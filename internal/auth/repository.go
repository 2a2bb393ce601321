package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-events/backend/internal/models"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
)

// Accounts stores credentials keyed by registration number.
type Accounts interface {
	Create(ctx context.Context, a *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
}

// Repository handles account persistence in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns an account by registration number.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	const q = `SELECT id, email, password_hash, name, surname, role, created_at FROM accounts WHERE id = $1`
	var a models.Account
	var role string
	err := r.pool.QueryRow(ctx, q, id).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.Surname, &role, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	a.Role = models.Role(role)
	return &a, nil
}

// Create inserts a new account and fills CreatedAt.
func (r *Repository) Create(ctx context.Context, a *models.Account) error {
	const q = `INSERT INTO accounts (id, email, password_hash, name, surname, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	err := r.pool.QueryRow(ctx, q, a.ID, a.Email, a.PasswordHash, a.Name, a.Surname, string(a.Role)).Scan(&a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAccountExists
		}
		return err
	}
	return nil
}

// ListDirectory returns every account as a directory entry, ordered by registration.
func (r *Repository) ListDirectory(ctx context.Context) ([]models.User, error) {
	const q = `SELECT id, name, surname, role FROM accounts ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.User, error) {
		var (
			u    models.User
			role string
		)
		err := row.Scan(&u.ID, &u.Name, &u.Surname, &role)
		u.Role = models.Role(role)
		return u, err
	})
}
