package proposals

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/internal/session"
)

// Repository handles date proposal persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a proposal repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const proposalColumns = `id, event_id, proposed_start, proposed_end, proposed_by, votes_for, votes_against, status, created_at, updated_at`

func scanProposal(row pgx.Row) (*models.DateProposal, error) {
	var p models.DateProposal
	err := row.Scan(&p.ID, &p.EventID, &p.ProposedStart, &p.ProposedEnd, &p.ProposedBy,
		&p.VotesFor, &p.VotesAgainst, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.Errorf(session.KindNotFound, "proposal not found")
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts an open date proposal.
func (r *Repository) Create(ctx context.Context, p *models.DateProposal) error {
	const q = `INSERT INTO date_proposals (event_id, proposed_start, proposed_end, proposed_by, status)
		VALUES ($1, $2, $3, $4, 'open')
		RETURNING ` + proposalColumns
	created, err := scanProposal(r.pool.QueryRow(ctx, q, p.EventID, p.ProposedStart, p.ProposedEnd, p.ProposedBy))
	if err != nil {
		return err
	}
	*p = *created
	return nil
}

// GetByID returns a proposal by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.DateProposal, error) {
	const q = `SELECT ` + proposalColumns + ` FROM date_proposals WHERE id = $1`
	return scanProposal(r.pool.QueryRow(ctx, q, id))
}

// ListByEvent returns proposals for an event, earliest proposed start first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.DateProposal, error) {
	const q = `SELECT ` + proposalColumns + ` FROM date_proposals WHERE event_id = $1 ORDER BY proposed_start, id`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.DateProposal
	for rows.Next() {
		var p models.DateProposal
		if err := rows.Scan(&p.ID, &p.EventID, &p.ProposedStart, &p.ProposedEnd, &p.ProposedBy,
			&p.VotesFor, &p.VotesAgainst, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Vote records one vote on an open proposal. Each user votes at most once;
// a second vote from the same user is rejected by the unique constraint.
func (r *Repository) Vote(ctx context.Context, proposalID, userID uuid.UUID, inFavor bool) (*models.DateProposal, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const insert = `INSERT INTO date_proposal_votes (proposal_id, user_id, in_favor) VALUES ($1, $2, $3)`
	if _, err := tx.Exec(ctx, insert, proposalID, userID, inFavor); err != nil {
		return nil, session.Errorf(session.KindForbidden, "already voted: %v", err)
	}
	col := "votes_against"
	if inFavor {
		col = "votes_for"
	}
	q := `UPDATE date_proposals SET ` + col + ` = ` + col + ` + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'open'
		RETURNING ` + proposalColumns
	updated, err := scanProposal(tx.QueryRow(ctx, q, proposalID))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// SetStatus retains or rejects a proposal.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status models.ProposalStatus) (*models.DateProposal, error) {
	const q = `UPDATE date_proposals SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'open'
		RETURNING ` + proposalColumns
	return scanProposal(r.pool.QueryRow(ctx, q, string(status), id))
}
