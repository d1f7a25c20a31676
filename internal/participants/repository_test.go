package participants

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/internal/testhelpers"
)

func insertProfile(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO profiles (email, password_hash, full_name, role)
		 VALUES ($1, 'x', 'Test User', 'intermittent') RETURNING id`,
		uuid.New().String()+"@example.com").Scan(&id)
	require.NoError(t, err)
	return id
}

func insertEvent(t *testing.T, pool *pgxpool.Pool, createdBy uuid.UUID, maxParticipants *int) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO events (title, status, target_group, start_date, end_date, max_participants, created_by, version)
		 VALUES ('Tournée', 'published', 'both', '2025-07-10', '2025-07-12', $1, $2, 1) RETURNING id`,
		maxParticipants, createdBy).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestParticipantRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}
	pool := testhelpers.SetupPostgres(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	creator := insertProfile(t, pool)

	t.Run("confirm under capacity succeeds", func(t *testing.T) {
		max := 2
		eventID := insertEvent(t, pool, creator, &max)
		user := insertProfile(t, pool)
		_, err := repo.Invite(ctx, eventID, user)
		require.NoError(t, err)

		p, err := repo.Confirm(ctx, eventID, user)
		require.NoError(t, err)
		assert.Equal(t, models.ParticipantConfirmed, p.Status)
		require.NotNil(t, p.RespondedAt)
	})

	t.Run("confirm at capacity returns ErrEventFull", func(t *testing.T) {
		max := 1
		eventID := insertEvent(t, pool, creator, &max)
		first := insertProfile(t, pool)
		second := insertProfile(t, pool)
		for _, u := range []uuid.UUID{first, second} {
			_, err := repo.Invite(ctx, eventID, u)
			require.NoError(t, err)
		}

		_, err := repo.Confirm(ctx, eventID, first)
		require.NoError(t, err)

		_, err = repo.Confirm(ctx, eventID, second)
		assert.ErrorIs(t, err, ErrEventFull)

		n, err := repo.CountConfirmed(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("re-confirming does not count against capacity", func(t *testing.T) {
		max := 1
		eventID := insertEvent(t, pool, creator, &max)
		user := insertProfile(t, pool)
		_, err := repo.Invite(ctx, eventID, user)
		require.NoError(t, err)

		_, err = repo.Confirm(ctx, eventID, user)
		require.NoError(t, err)

		p, err := repo.Confirm(ctx, eventID, user)
		require.NoError(t, err)
		assert.Equal(t, models.ParticipantConfirmed, p.Status)
	})

	t.Run("no capacity limit means unlimited confirmations", func(t *testing.T) {
		eventID := insertEvent(t, pool, creator, nil)
		for i := 0; i < 3; i++ {
			user := insertProfile(t, pool)
			_, err := repo.Invite(ctx, eventID, user)
			require.NoError(t, err)
			_, err = repo.Confirm(ctx, eventID, user)
			require.NoError(t, err)
		}

		n, err := repo.CountConfirmed(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("declining frees a slot", func(t *testing.T) {
		max := 1
		eventID := insertEvent(t, pool, creator, &max)
		first := insertProfile(t, pool)
		second := insertProfile(t, pool)
		for _, u := range []uuid.UUID{first, second} {
			_, err := repo.Invite(ctx, eventID, u)
			require.NoError(t, err)
		}

		_, err := repo.Confirm(ctx, eventID, first)
		require.NoError(t, err)
		_, err = repo.SetStatus(ctx, eventID, first, models.ParticipantDeclined)
		require.NoError(t, err)

		_, err = repo.Confirm(ctx, eventID, second)
		require.NoError(t, err)
	})
}
