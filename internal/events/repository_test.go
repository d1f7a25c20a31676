package events

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/internal/session"
	"github.com/planner-suite/backend/internal/testhelpers"
)

func insertProfile(t *testing.T, pool *pgxpool.Pool, role models.Role) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO profiles (email, password_hash, full_name, role)
		 VALUES ($1, 'x', 'Test User', $2) RETURNING id`,
		uuid.New().String()+"@example.com", string(role)).Scan(&id)
	require.NoError(t, err)
	return id
}

func draftEvent(t *testing.T, repo *Repository, createdBy uuid.UUID) *models.Event {
	t.Helper()
	e := &models.Event{
		Title:       "Festival X",
		TargetGroup: models.GroupBoth,
		StartDate:   "2025-07-10",
		EndDate:     "2025-07-12",
		CreatedBy:   createdBy,
	}
	require.NoError(t, repo.Create(context.Background(), e))
	return e
}

func TestEventRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}
	pool := testhelpers.SetupPostgres(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	creator := insertProfile(t, pool, models.RoleRegisseur)

	t.Run("publish sets published_at exactly once", func(t *testing.T) {
		e := draftEvent(t, repo, creator)
		require.Nil(t, e.PublishedAt)
		require.Equal(t, 1, e.Version)

		published, err := repo.Publish(ctx, e.ID, creator)
		require.NoError(t, err)
		require.NotNil(t, published.PublishedAt)
		assert.Equal(t, models.EventPublished, published.Status)
		assert.Equal(t, 2, published.Version)

		// A second publish fails and leaves the timestamp untouched.
		_, err = repo.Publish(ctx, e.ID, creator)
		require.Error(t, err)
		assert.Equal(t, session.KindNotFound, session.KindOf(err))

		got, err := repo.GetByID(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, published.PublishedAt, got.PublishedAt)
		assert.Equal(t, 2, got.Version)
	})

	t.Run("update bumps version and writes history", func(t *testing.T) {
		e := draftEvent(t, repo, creator)
		title := "Festival X (updated)"
		updated, err := repo.Update(ctx, e.ID, creator, UpdateParams{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, title, updated.Title)
		assert.Equal(t, 2, updated.Version)

		history, err := repo.History(ctx, e.ID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, models.HistoryCreated, history[0].Action)
		assert.Equal(t, models.HistoryUpdated, history[1].Action)
	})

	t.Run("draft without confirmations is deletable", func(t *testing.T) {
		e := draftEvent(t, repo, creator)
		ok, err := repo.CanDelete(ctx, e.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, repo.Delete(ctx, e.ID))

		_, err = repo.GetByID(ctx, e.ID)
		assert.Equal(t, session.KindNotFound, session.KindOf(err))
	})

	t.Run("published event is not deletable", func(t *testing.T) {
		e := draftEvent(t, repo, creator)
		_, err := repo.Publish(ctx, e.ID, creator)
		require.NoError(t, err)

		ok, err := repo.CanDelete(ctx, e.ID)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.ErrorIs(t, repo.Delete(ctx, e.ID), ErrNotDeletable)
	})

	t.Run("draft with a confirmed participant is not deletable", func(t *testing.T) {
		e := draftEvent(t, repo, creator)
		participant := insertProfile(t, pool, models.RoleIntermittent)
		_, err := pool.Exec(ctx,
			`INSERT INTO event_participants (event_id, user_id, status) VALUES ($1, $2, 'confirmed')`,
			e.ID, participant)
		require.NoError(t, err)

		ok, err := repo.CanDelete(ctx, e.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("cancel records history and closes the event", func(t *testing.T) {
		e := draftEvent(t, repo, creator)
		cancelled, err := repo.Cancel(ctx, e.ID, creator, "weather")
		require.NoError(t, err)
		assert.Equal(t, models.EventCancelled, cancelled.Status)

		// A cancelled event cannot be cancelled again.
		_, err = repo.Cancel(ctx, e.ID, creator, "")
		require.Error(t, err)

		history, err := repo.History(ctx, e.ID)
		require.NoError(t, err)
		last := history[len(history)-1]
		assert.Equal(t, models.HistoryCancelled, last.Action)
		assert.Equal(t, "weather", last.Detail)
	})

	t.Run("participant ids cover invited and confirmed", func(t *testing.T) {
		e := draftEvent(t, repo, creator)
		invited := insertProfile(t, pool, models.RoleIntermittent)
		confirmed := insertProfile(t, pool, models.RoleIntermittent)
		declined := insertProfile(t, pool, models.RoleIntermittent)
		for _, row := range []struct {
			user   uuid.UUID
			status string
		}{{invited, "invited"}, {confirmed, "confirmed"}, {declined, "declined"}} {
			_, err := pool.Exec(ctx,
				`INSERT INTO event_participants (event_id, user_id, status) VALUES ($1, $2, $3)`,
				e.ID, row.user, row.status)
			require.NoError(t, err)
		}

		ids, err := repo.ParticipantIDs(ctx, e.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{invited, confirmed}, ids)
	})
}
