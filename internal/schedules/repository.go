package schedules

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/internal/session"
)

// Repository handles daily schedule persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a schedule repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const scheduleColumns = `id, event_id, schedule_date, start_time, end_time, title, COALESCE(description,''),
	target_groups, COALESCE(location,''), required_skills, is_mandatory, COALESCE(responsible_person,''),
	created_at, updated_at`

func scanSchedule(row pgx.Row) (*models.DailySchedule, error) {
	var s models.DailySchedule
	var groups []string
	err := row.Scan(&s.ID, &s.EventID, &s.ScheduleDate, &s.StartTime, &s.EndTime, &s.Title, &s.Description,
		&groups, &s.Location, &s.RequiredSkills, &s.IsMandatory, &s.ResponsiblePerson, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.Errorf(session.KindNotFound, "schedule not found")
		}
		return nil, err
	}
	s.TargetGroups = toTargetGroups(groups)
	return &s, nil
}

func toTargetGroups(ss []string) []models.TargetGroup {
	out := make([]models.TargetGroup, 0, len(ss))
	for _, s := range ss {
		out = append(out, models.TargetGroup(s))
	}
	return out
}

func fromTargetGroups(gs []models.TargetGroup) []string {
	out := make([]string, 0, len(gs))
	for _, g := range gs {
		out = append(out, string(g))
	}
	return out
}

// Create inserts a schedule entry for an event.
func (r *Repository) Create(ctx context.Context, s *models.DailySchedule) error {
	const q = `INSERT INTO daily_schedules
		(event_id, schedule_date, start_time, end_time, title, description, target_groups, location, required_skills, is_mandatory, responsible_person)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), $7, NULLIF($8,''), $9, $10, NULLIF($11,''))
		RETURNING ` + scheduleColumns
	created, err := scanSchedule(r.pool.QueryRow(ctx, q, s.EventID, s.ScheduleDate, s.StartTime, s.EndTime,
		s.Title, s.Description, fromTargetGroups(s.TargetGroups), s.Location, s.RequiredSkills, s.IsMandatory, s.ResponsiblePerson))
	if err != nil {
		return err
	}
	*s = *created
	return nil
}

// GetByID returns a schedule entry by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.DailySchedule, error) {
	const q = `SELECT ` + scheduleColumns + ` FROM daily_schedules WHERE id = $1`
	return scanSchedule(r.pool.QueryRow(ctx, q, id))
}

// ListByEvent returns all schedule entries for an event in display order:
// schedule date, then insertion order.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.DailySchedule, error) {
	const q = `SELECT ` + scheduleColumns + ` FROM daily_schedules WHERE event_id = $1
		ORDER BY schedule_date, created_at, id`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.DailySchedule
	for rows.Next() {
		var s models.DailySchedule
		var groups []string
		if err := rows.Scan(&s.ID, &s.EventID, &s.ScheduleDate, &s.StartTime, &s.EndTime, &s.Title, &s.Description,
			&groups, &s.Location, &s.RequiredSkills, &s.IsMandatory, &s.ResponsiblePerson, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.TargetGroups = toTargetGroups(groups)
		list = append(list, s)
	}
	return list, rows.Err()
}

// Update replaces the mutable fields of a schedule entry.
func (r *Repository) Update(ctx context.Context, s *models.DailySchedule) error {
	const q = `UPDATE daily_schedules SET
		schedule_date = $1, start_time = $2, end_time = $3, title = $4, description = NULLIF($5,''),
		target_groups = $6, location = NULLIF($7,''), required_skills = $8, is_mandatory = $9,
		responsible_person = NULLIF($10,''), updated_at = NOW()
		WHERE id = $11
		RETURNING ` + scheduleColumns
	updated, err := scanSchedule(r.pool.QueryRow(ctx, q, s.ScheduleDate, s.StartTime, s.EndTime, s.Title,
		s.Description, fromTargetGroups(s.TargetGroups), s.Location, s.RequiredSkills, s.IsMandatory, s.ResponsiblePerson, s.ID))
	if err != nil {
		return err
	}
	*s = *updated
	return nil
}

// Delete removes a schedule entry.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM daily_schedules WHERE id = $1`, id)
	return err
}
