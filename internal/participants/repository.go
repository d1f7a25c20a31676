package participants

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

// ErrEventFull is returned when a confirmation would exceed the event's
// max_participants.
var ErrEventFull = errors.New("event is at capacity")

// Repository handles event participant persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a participant repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const participantColumns = `id, event_id, user_id, status, invited_at, responded_at`

func scanParticipant(row pgx.Row) (*models.EventParticipant, error) {
	var p models.EventParticipant
	err := row.Scan(&p.ID, &p.EventID, &p.UserID, &p.Status, &p.InvitedAt, &p.RespondedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.Errorf(session.KindNotFound, "participant not found")
		}
		return nil, err
	}
	return &p, nil
}

// Invite records an invitation. Re-inviting an already-invited user is a
// no-op returning the existing row.
func (r *Repository) Invite(ctx context.Context, eventID, userID uuid.UUID) (*models.EventParticipant, error) {
	const q = `INSERT INTO event_participants (event_id, user_id, status)
		VALUES ($1, $2, 'invited')
		ON CONFLICT (event_id, user_id) DO UPDATE SET event_id = EXCLUDED.event_id
		RETURNING ` + participantColumns
	return scanParticipant(r.pool.QueryRow(ctx, q, eventID, userID))
}

// Get returns the participant row for a user on an event.
func (r *Repository) Get(ctx context.Context, eventID, userID uuid.UUID) (*models.EventParticipant, error) {
	const q = `SELECT ` + participantColumns + ` FROM event_participants WHERE event_id = $1 AND user_id = $2`
	return scanParticipant(r.pool.QueryRow(ctx, q, eventID, userID))
}

// ListByEvent returns all participants of an event, earliest invitation first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.EventParticipant, error) {
	const q = `SELECT ` + participantColumns + ` FROM event_participants WHERE event_id = $1 ORDER BY invited_at, id`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.EventParticipant
	for rows.Next() {
		var p models.EventParticipant
		if err := rows.Scan(&p.ID, &p.EventID, &p.UserID, &p.Status, &p.InvitedAt, &p.RespondedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// ListByUser returns all invitations for a user, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.EventParticipant, error) {
	const q = `SELECT ` + participantColumns + ` FROM event_participants WHERE user_id = $1 ORDER BY invited_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.EventParticipant
	for rows.Next() {
		var p models.EventParticipant
		if err := rows.Scan(&p.ID, &p.EventID, &p.UserID, &p.Status, &p.InvitedAt, &p.RespondedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// CountConfirmed returns the number of confirmed participants of an event.
func (r *Repository) CountConfirmed(ctx context.Context, eventID uuid.UUID) (int, error) {
	const q = `SELECT COUNT(*) FROM event_participants WHERE event_id = $1 AND status = 'confirmed'`
	var n int
	err := r.pool.QueryRow(ctx, q, eventID).Scan(&n)
	return n, err
}

// Confirm flips the user's invitation to confirmed. The event row is
// locked for the duration of the check, so two concurrent confirmations
// cannot both slip under max_participants.
func (r *Repository) Confirm(ctx context.Context, eventID, userID uuid.UUID) (*models.EventParticipant, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var max *int
	err = tx.QueryRow(ctx, `SELECT max_participants FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&max)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.Errorf(session.KindNotFound, "event not found")
		}
		return nil, err
	}
	if max != nil {
		const countQ = `SELECT COUNT(*) FROM event_participants
			WHERE event_id = $1 AND status = 'confirmed' AND user_id <> $2`
		var n int
		if err := tx.QueryRow(ctx, countQ, eventID, userID).Scan(&n); err != nil {
			return nil, err
		}
		if n >= *max {
			return nil, ErrEventFull
		}
	}

	const q = `UPDATE event_participants SET status = 'confirmed', responded_at = NOW()
		WHERE event_id = $1 AND user_id = $2
		RETURNING ` + participantColumns
	p, err := scanParticipant(tx.QueryRow(ctx, q, eventID, userID))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

// SetStatus records the user's response to an invitation.
func (r *Repository) SetStatus(ctx context.Context, eventID, userID uuid.UUID, status models.ParticipantStatus) (*models.EventParticipant, error) {
	const q = `UPDATE event_participants SET status = $1, responded_at = NOW()
		WHERE event_id = $2 AND user_id = $3
		RETURNING ` + participantColumns
	return scanParticipant(r.pool.QueryRow(ctx, q, string(status), eventID, userID))
}
