package events

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

// ErrNotDeletable is returned when an event fails the deletability check.
var ErrNotDeletable = errors.New("event cannot be deleted")

// Repository handles event persistence and the event audit trail. History
// rows are written in the same transaction as the mutation they record.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const eventColumns = `id, title, COALESCE(description,''), status, target_group, start_date, end_date,
	COALESCE(location,''), budget, max_participants, created_by, version, published_at, created_at, updated_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Status, &e.TargetGroup, &e.StartDate, &e.EndDate,
		&e.Location, &e.Budget, &e.MaxParticipants, &e.CreatedBy, &e.Version, &e.PublishedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.Errorf(session.KindNotFound, "event not found")
		}
		return nil, err
	}
	return &e, nil
}

// Create inserts a new draft event and its creation history row.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO events (title, description, status, target_group, start_date, end_date, location, budget, max_participants, created_by, version)
		VALUES ($1, NULLIF($2,''), 'draft', $3, $4, $5, NULLIF($6,''), $7, $8, $9, 1)
		RETURNING ` + eventColumns
	created, err := scanEvent(tx.QueryRow(ctx, q, e.Title, e.Description, e.TargetGroup,
		e.StartDate, e.EndDate, e.Location, e.Budget, e.MaxParticipants, e.CreatedBy))
	if err != nil {
		return err
	}
	if err := insertHistory(ctx, tx, created.ID, models.HistoryCreated, e.CreatedBy, ""); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	*e = *created
	return nil
}

// GetByID returns an event by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return scanEvent(r.pool.QueryRow(ctx, q, id))
}

// List returns events, optionally filtered by status and/or creator, most
// recent start date first.
func (r *Repository) List(ctx context.Context, status *models.EventStatus, createdBy *uuid.UUID) ([]models.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events`
	var args []interface{}
	var conds []string
	if status != nil {
		args = append(args, string(*status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if createdBy != nil {
		args = append(args, *createdBy)
		conds = append(conds, fmt.Sprintf("created_by = $%d", len(args)))
	}
	for i, cond := range conds {
		if i == 0 {
			q += " WHERE " + cond
		} else {
			q += " AND " + cond
		}
	}
	q += " ORDER BY start_date DESC, created_at DESC"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Status, &e.TargetGroup, &e.StartDate, &e.EndDate,
			&e.Location, &e.Budget, &e.MaxParticipants, &e.CreatedBy, &e.Version, &e.PublishedAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// UpdateParams are the mutable event fields; nil means unchanged.
type UpdateParams struct {
	Title           *string
	Description     *string
	TargetGroup     *models.TargetGroup
	StartDate       *string
	EndDate         *string
	Location        *string
	Budget          *int64
	MaxParticipants *int
}

// Update applies the changed fields, bumps the version, and records an
// update history row. The event version in the database is the optimistic
// marker that every write re-reads.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, actor uuid.UUID, p UpdateParams) (*models.Event, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `UPDATE events SET
		title = COALESCE($1, title),
		description = COALESCE($2, description),
		target_group = COALESCE($3, target_group),
		start_date = COALESCE($4, start_date),
		end_date = COALESCE($5, end_date),
		location = COALESCE($6, location),
		budget = COALESCE($7, budget),
		max_participants = COALESCE($8, max_participants),
		version = version + 1,
		updated_at = NOW()
		WHERE id = $9
		RETURNING ` + eventColumns
	var tg *string
	if p.TargetGroup != nil {
		s := string(*p.TargetGroup)
		tg = &s
	}
	updated, err := scanEvent(tx.QueryRow(ctx, q, p.Title, p.Description, tg,
		p.StartDate, p.EndDate, p.Location, p.Budget, p.MaxParticipants, id))
	if err != nil {
		return nil, err
	}
	if err := insertHistory(ctx, tx, id, models.HistoryUpdated, actor, ""); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

// Publish transitions a draft event to published, setting published_at
// exactly once. Publishing anything but a draft fails.
func (r *Repository) Publish(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Event, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `UPDATE events SET status = 'published', published_at = NOW(), version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'draft'
		RETURNING ` + eventColumns
	published, err := scanEvent(tx.QueryRow(ctx, q, id))
	if err != nil {
		if session.KindOf(err) == session.KindNotFound {
			return nil, session.Errorf(session.KindNotFound, "event not found or not a draft")
		}
		return nil, err
	}
	if err := insertHistory(ctx, tx, id, models.HistoryPublished, actor, ""); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return published, nil
}

// Cancel transitions an event to cancelled and records it.
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID, actor uuid.UUID, reason string) (*models.Event, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `UPDATE events SET status = 'cancelled', version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status IN ('draft', 'published')
		RETURNING ` + eventColumns
	cancelled, err := scanEvent(tx.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}
	if err := insertHistory(ctx, tx, id, models.HistoryCancelled, actor, reason); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return cancelled, nil
}

// ParticipantIDs returns the user IDs of every invited or confirmed
// participant of an event. Used for notification fan-out on transitions.
func (r *Repository) ParticipantIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	const q = `SELECT user_id FROM event_participants
		WHERE event_id = $1 AND status IN ('invited', 'confirmed')`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CanDelete reports whether the event may be deleted: still a draft and
// with no confirmed participants.
func (r *Repository) CanDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	const q = `SELECT e.status = 'draft' AND NOT EXISTS (
			SELECT 1 FROM event_participants p WHERE p.event_id = e.id AND p.status = 'confirmed'
		) FROM events e WHERE e.id = $1`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, id).Scan(&ok); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, session.Errorf(session.KindNotFound, "event not found")
		}
		return false, err
	}
	return ok, nil
}

// Delete removes an event after the deletability check. Dependent rows go
// with it via foreign-key cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := r.CanDelete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotDeletable
	}
	_, err = r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	return err
}

// History returns the audit trail for an event, oldest first.
func (r *Repository) History(ctx context.Context, eventID uuid.UUID) ([]models.EventHistory, error) {
	const q = `SELECT id, event_id, action, actor_id, COALESCE(detail,''), created_at
		FROM event_history WHERE event_id = $1 ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.EventHistory
	for rows.Next() {
		var h models.EventHistory
		if err := rows.Scan(&h.ID, &h.EventID, &h.Action, &h.ActorID, &h.Detail, &h.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, h)
	}
	return list, rows.Err()
}

func insertHistory(ctx context.Context, tx pgx.Tx, eventID uuid.UUID, action models.HistoryAction, actor uuid.UUID, detail string) error {
	const q = `INSERT INTO event_history (event_id, action, actor_id, detail) VALUES ($1, $2, $3, NULLIF($4,''))`
	if _, err := tx.Exec(ctx, q, eventID, string(action), actor, detail); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}
