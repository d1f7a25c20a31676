package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/internal/session"
)

type fakeSessions struct {
	getSession *session.Session
	getErr     error
	rotated    *session.Session
	refreshErr error
	refreshes  int
}

func (f *fakeSessions) Get(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	return f.getSession, f.getErr
}

func (f *fakeSessions) Refresh(ctx context.Context, id uuid.UUID, refreshToken string) (*session.Session, error) {
	f.refreshes++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.rotated, nil
}

type fakeProfiles struct {
	profile *models.Profile
	err     error
}

func (f *fakeProfiles) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return f.profile, f.err
}

func bundle() *session.Session {
	return &session.Session{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		Role:         models.RoleRegisseur,
		RefreshToken: "refresh-token",
		ExpiresAt:    1,
	}
}

func authenticatedManager(t *testing.T, sessions *fakeSessions) (*Manager, *session.Session) {
	t.Helper()
	m := NewManager(sessions, &fakeProfiles{profile: &models.Profile{Role: models.RoleRegisseur}}, nil)
	b := bundle()
	m.SignedIn(context.Background(), b)
	require.Equal(t, StateAuthenticated, m.State())
	return m, b
}

func TestExecuteAuthOperationSuccessRunsOnce(t *testing.T) {
	t.Parallel()

	sessions := &fakeSessions{}
	m, _ := authenticatedManager(t, sessions)

	calls := 0
	err := m.ExecuteAuthOperation(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Zero(t, sessions.refreshes)
}

func TestExecuteAuthOperationNonExpiryNotRetried(t *testing.T) {
	t.Parallel()

	sessions := &fakeSessions{}
	m, _ := authenticatedManager(t, sessions)

	boom := session.Errorf(session.KindForbidden, "not yours")
	calls := 0
	err := m.ExecuteAuthOperation(context.Background(), func(ctx context.Context) error {
		calls++
		return boom
	})
	assert.Equal(t, boom, err)
	assert.Equal(t, 1, calls)
	assert.Zero(t, sessions.refreshes)
}

func TestExecuteAuthOperationRefreshesThenRetries(t *testing.T) {
	t.Parallel()

	rotated := bundle()
	sessions := &fakeSessions{rotated: rotated}
	m, _ := authenticatedManager(t, sessions)

	var order []string
	m.Subscribe(func(ev Event, s *session.Session) {
		order = append(order, string(ev))
	})

	calls := 0
	err := m.ExecuteAuthOperation(context.Background(), func(ctx context.Context) error {
		calls++
		order = append(order, "op")
		if calls == 1 {
			return session.Errorf(session.KindTokenExpired, "expired")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, sessions.refreshes)
	// The refresh fully completes before the retry begins.
	assert.Equal(t, []string{"op", string(EventTokenRefreshed), "op"}, order)
	assert.Equal(t, rotated, m.Session())
}

func TestExecuteAuthOperationSecondFailureIsTerminal(t *testing.T) {
	t.Parallel()

	sessions := &fakeSessions{rotated: bundle()}
	m, _ := authenticatedManager(t, sessions)

	second := errors.New("still broken")
	calls := 0
	err := m.ExecuteAuthOperation(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return session.Errorf(session.KindTokenExpired, "expired")
		}
		return second
	})
	assert.Equal(t, second, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, sessions.refreshes)
}

func TestExecuteAuthOperationRefreshFailureSignsOut(t *testing.T) {
	t.Parallel()

	sessions := &fakeSessions{refreshErr: session.Errorf(session.KindInvalidCredentials, "rotated elsewhere")}
	m, _ := authenticatedManager(t, sessions)

	original := session.Errorf(session.KindTokenExpired, "expired")
	calls := 0
	err := m.ExecuteAuthOperation(context.Background(), func(ctx context.Context) error {
		calls++
		return original
	})
	// The caller sees the operation's error, not the refresh failure.
	assert.Equal(t, original, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Nil(t, m.Session())
}

func TestExecuteAuthOperationWithoutSessionNotRetried(t *testing.T) {
	t.Parallel()

	sessions := &fakeSessions{}
	m := NewManager(sessions, &fakeProfiles{}, nil)

	expired := session.Errorf(session.KindTokenExpired, "expired")
	calls := 0
	err := m.ExecuteAuthOperation(context.Background(), func(ctx context.Context) error {
		calls++
		return expired
	})
	assert.Equal(t, expired, err)
	assert.Equal(t, 1, calls)
	assert.Zero(t, sessions.refreshes)
}

func TestSubscribeUnsubscribe(t *testing.T) {
	t.Parallel()

	m := NewManager(&fakeSessions{}, &fakeProfiles{profile: &models.Profile{}}, nil)

	var events []Event
	unsubscribe := m.Subscribe(func(ev Event, s *session.Session) {
		events = append(events, ev)
	})

	m.SignedIn(context.Background(), bundle())
	m.SignedOut()
	require.Equal(t, []Event{EventSignedIn, EventSignedOut}, events)

	unsubscribe()
	unsubscribe() // second call is a no-op
	m.SignedIn(context.Background(), bundle())
	assert.Len(t, events, 2)
}

func TestDisposeDropsSubscribersAndState(t *testing.T) {
	t.Parallel()

	m := NewManager(&fakeSessions{}, &fakeProfiles{profile: &models.Profile{}}, nil)
	m.SignedIn(context.Background(), bundle())

	called := false
	m.Subscribe(func(Event, *session.Session) { called = true })

	m.Dispose()
	m.Dispose() // idempotent
	assert.Equal(t, StateDisposed, m.State())
	assert.Nil(t, m.Session())
	assert.Nil(t, m.Profile())

	// Disposal is terminal: later state changes are ignored.
	m.SignedOut()
	assert.False(t, called)
	assert.Equal(t, StateDisposed, m.State())

	m.SignedIn(context.Background(), bundle())
	assert.Equal(t, StateDisposed, m.State())
	assert.Nil(t, m.Session())

	m.TokenRefreshed(bundle())
	assert.Equal(t, StateDisposed, m.State())
	assert.Nil(t, m.Session())

	err := m.Init(context.Background(), bundle())
	assert.Error(t, err)
	assert.Equal(t, StateDisposed, m.State())
}

func TestInitWithAbsentStoreRecordIsUnauthenticated(t *testing.T) {
	t.Parallel()

	// The store has no record and no error; Init must not touch the
	// missing session.
	m := NewManager(&fakeSessions{}, &fakeProfiles{profile: &models.Profile{}}, nil)
	require.NoError(t, m.Init(context.Background(), bundle()))
	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Nil(t, m.Session())
}

func TestInitFillsIdentityFromStore(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	sessionID := uuid.New()
	sessions := &fakeSessions{getSession: &session.Session{
		ID: sessionID, UserID: userID, Role: models.RoleIntermittent, ExpiresAt: 42,
	}}
	m := NewManager(sessions, &fakeProfiles{profile: &models.Profile{ID: userID}}, nil)

	// A bundle recovered from a cookie has only the ID and refresh token.
	require.NoError(t, m.Init(context.Background(), &session.Session{ID: sessionID, RefreshToken: "tok"}))
	require.Equal(t, StateAuthenticated, m.State())
	got := m.Session()
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, models.RoleIntermittent, got.Role)
	assert.Equal(t, int64(42), got.ExpiresAt)
	assert.Equal(t, "tok", got.RefreshToken)
}

func TestInitWithoutBundleIsUnauthenticated(t *testing.T) {
	t.Parallel()

	m := NewManager(&fakeSessions{}, &fakeProfiles{}, nil)
	require.NoError(t, m.Init(context.Background(), nil))
	assert.Equal(t, StateUnauthenticated, m.State())
}

func TestInitLoadsSessionAndProfile(t *testing.T) {
	t.Parallel()

	b := bundle()
	profile := &models.Profile{ID: b.UserID, Role: models.RoleRegisseur}
	sessions := &fakeSessions{getSession: &session.Session{ID: b.ID, UserID: b.UserID, ExpiresAt: 99}}
	m := NewManager(sessions, &fakeProfiles{profile: profile}, nil)

	require.NoError(t, m.Init(context.Background(), b))
	assert.Equal(t, StateAuthenticated, m.State())
	assert.Equal(t, profile, m.Profile())
	// The store's expiry wins over the bundle's.
	assert.Equal(t, int64(99), m.Session().ExpiresAt)
}
