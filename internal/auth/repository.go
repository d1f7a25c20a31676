package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/internal/session"
)

// Repository handles profile persistence for authentication.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const profileColumns = `id, email, password_hash, full_name, role, availability_status, COALESCE(phone,''), created_at, updated_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.FullName, &p.Role,
		&p.AvailabilityStatus, &p.Phone, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.Errorf(session.KindNotFound, "profile not found")
		}
		return nil, err
	}
	return &p, nil
}

// GetByID returns a profile by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	const q = `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return scanProfile(r.pool.QueryRow(ctx, q, id))
}

// GetByEmail returns a profile by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	const q = `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`
	return scanProfile(r.pool.QueryRow(ctx, q, email))
}

// Create inserts a new profile.
func (r *Repository) Create(ctx context.Context, email, passwordHash, fullName string, role models.Role, phone string) (*models.Profile, error) {
	const q = `INSERT INTO profiles (email, password_hash, full_name, role, availability_status, phone)
		VALUES ($1, $2, $3, $4, 'available', NULLIF($5,''))
		RETURNING ` + profileColumns
	return scanProfile(r.pool.QueryRow(ctx, q, email, passwordHash, fullName, string(role), phone))
}

// UpdatePassword replaces the stored password hash.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const q = `UPDATE profiles SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, passwordHash, id)
	return err
}
