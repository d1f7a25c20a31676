package notifications

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/internal/session"
)

// Repository handles notification persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a notification repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const notificationColumns = `id, user_id, type, title, message, COALESCE(related_type,''), related_id, payload, read_at, created_at`

// Create inserts a notification.
func (r *Repository) Create(ctx context.Context, n *models.Notification) error {
	const q = `INSERT INTO notifications (user_id, type, title, message, related_type, related_id, payload)
		VALUES ($1, $2, $3, $4, NULLIF($5,''), $6, $7)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, n.UserID, string(n.Type), n.Title, n.Message,
		string(n.RelatedType), n.RelatedID, n.Payload).Scan(&n.ID, &n.CreatedAt)
}

// ListByUser returns a user's notifications, newest first. With unreadOnly,
// read notifications are skipped.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	q := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	if unreadOnly {
		q += ` AND read_at IS NULL`
	}
	q += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message,
			&n.RelatedType, &n.RelatedID, &n.Payload, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// MarkRead marks one notification as read. Only the owner can mark it.
func (r *Repository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	const q = `UPDATE notifications SET read_at = NOW() WHERE id = $1 AND user_id = $2 AND read_at IS NULL`
	tag, err := r.pool.Exec(ctx, q, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return session.Errorf(session.KindNotFound, "notification not found or already read")
	}
	return nil
}

// MarkAllRead marks all of a user's notifications as read, returning the
// number affected.
func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	const q = `UPDATE notifications SET read_at = NOW() WHERE user_id = $1 AND read_at IS NULL`
	tag, err := r.pool.Exec(ctx, q, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// GetByID returns a notification by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	const q = `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	var n models.Notification
	err := r.pool.QueryRow(ctx, q, id).Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message,
		&n.RelatedType, &n.RelatedID, &n.Payload, &n.ReadAt, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.Errorf(session.KindNotFound, "notification not found")
		}
		return nil, err
	}
	return &n, nil
}
