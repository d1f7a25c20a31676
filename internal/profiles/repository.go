package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/internal/session"
)

// Repository handles profile persistence beyond authentication.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a profile repository.
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

// List returns profiles, optionally filtered by role, ordered by name.
func (r *Repository) List(ctx context.Context, role *models.Role) ([]models.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles`
	var args []interface{}
	if role != nil {
		q += ` WHERE role = $1`
		args = append(args, string(*role))
	}
	q += ` ORDER BY full_name, email`
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.FullName, &p.Role,
			&p.AvailabilityStatus, &p.Phone, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// UpdateParams are the caller-mutable profile fields. The role is
// deliberately absent: it is immutable through this path.
type UpdateParams struct {
	FullName           *string
	Phone              *string
	AvailabilityStatus *models.AvailabilityStatus
}

// Update applies the changed fields.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.Profile, error) {
	const q = `UPDATE profiles SET
		full_name = COALESCE($1, full_name),
		phone = COALESCE($2, phone),
		availability_status = COALESCE($3, availability_status),
		updated_at = NOW()
		WHERE id = $4
		RETURNING ` + profileColumns
	var avail *string
	if p.AvailabilityStatus != nil {
		s := string(*p.AvailabilityStatus)
		avail = &s
	}
	return scanProfile(r.pool.QueryRow(ctx, q, p.FullName, p.Phone, avail, id))
}

// DeleteComplete removes a profile and every row that depends on it, in one
// transaction. Events created by the user go with it, cascading to their
// schedules, participants, proposals and history.
func (r *Repository) DeleteComplete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	steps := []string{
		`DELETE FROM date_proposal_votes WHERE user_id = $1`,
		`DELETE FROM notifications WHERE user_id = $1`,
		`DELETE FROM event_participants WHERE user_id = $1`,
		`DELETE FROM events WHERE created_by = $1`,
		`DELETE FROM profiles WHERE id = $1`,
	}
	for _, q := range steps {
		if _, err := tx.Exec(ctx, q, id); err != nil {
			return fmt.Errorf("delete profile cascade: %w", err)
		}
	}
	return tx.Commit(ctx)
}
