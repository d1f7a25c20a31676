package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/internal/session"
)

// Event is an auth lifecycle event delivered to subscribers.
type Event string

const (
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// State is the manager lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAuthenticated
	StateUnauthenticated
	StateDisposed
)

// SessionService is the slice of the session service the manager uses.
type SessionService interface {
	Get(ctx context.Context, id uuid.UUID) (*session.Session, error)
	Refresh(ctx context.Context, id uuid.UUID, refreshToken string) (*session.Session, error)
}

// ProfileReader fetches profiles for the ambient identity mirror.
type ProfileReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// Manager holds the current session and profile mirror for one client
// context, with an explicit init -> ready -> disposed lifecycle. The
// authoritative state lives in the session store and the profiles table;
// the manager is a best-effort mirror, so last-writer-wins between the
// initial load and event delivery is acceptable.
type Manager struct {
	sessions SessionService
	profiles ProfileReader
	logger   *zap.Logger

	mu      sync.Mutex
	state   State
	session *session.Session
	profile *models.Profile
	subs    map[int]func(Event, *session.Session)
	nextSub int
}

// NewManager creates an uninitialized manager.
func NewManager(sessions SessionService, profiles ProfileReader, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions: sessions,
		profiles: profiles,
		logger:   logger,
		state:    StateUninitialized,
		subs:     make(map[int]func(Event, *session.Session)),
	}
}

// Init loads the given session bundle and its profile. A missing or invalid
// session leaves the manager unauthenticated; that is not an error.
func (m *Manager) Init(ctx context.Context, bundle *session.Session) error {
	m.mu.Lock()
	if m.state == StateDisposed {
		m.mu.Unlock()
		return session.Errorf(session.KindUnknown, "manager disposed")
	}
	m.state = StateLoading
	m.mu.Unlock()

	if bundle == nil {
		m.setUnauthenticated()
		return nil
	}
	current, err := m.sessions.Get(ctx, bundle.ID)
	if err != nil && !session.IsTokenExpired(err) {
		m.setUnauthenticated()
		return nil
	}
	if current == nil {
		m.setUnauthenticated()
		return nil
	}
	// Keep the caller's bundle for its refresh token; Get never returns one.
	// A bundle recovered from a cookie carries only the session ID, so the
	// identity fields come from the store.
	bundle.ExpiresAt = current.ExpiresAt
	if bundle.UserID == uuid.Nil {
		bundle.UserID = current.UserID
		bundle.Role = current.Role
	}
	profile, err := m.profiles.GetByID(ctx, bundle.UserID)
	if err != nil {
		m.logger.Warn("profile fetch failed during init", zap.Error(err))
		m.setUnauthenticated()
		return nil
	}

	m.mu.Lock()
	if m.state == StateDisposed {
		m.mu.Unlock()
		return session.Errorf(session.KindUnknown, "manager disposed")
	}
	m.session = bundle
	m.profile = profile
	m.state = StateAuthenticated
	m.mu.Unlock()
	return nil
}

// Subscribe registers fn for auth events and returns its unsubscribe
// function. Unsubscribing twice is a no-op.
func (m *Manager) Subscribe(fn func(Event, *session.Session)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Dispose tears the manager down and drops all subscriptions. Idempotent,
// and terminal: a disposed manager ignores all later state changes.
func (m *Manager) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateDisposed
	m.session = nil
	m.profile = nil
	m.subs = make(map[int]func(Event, *session.Session))
}

// SignedIn re-enters the authenticated state with a fresh bundle and
// refetches the profile.
func (m *Manager) SignedIn(ctx context.Context, bundle *session.Session) {
	profile, err := m.profiles.GetByID(ctx, bundle.UserID)
	if err != nil {
		m.logger.Warn("profile fetch failed on sign-in", zap.Error(err))
	}
	m.mu.Lock()
	if m.state == StateDisposed {
		m.mu.Unlock()
		return
	}
	m.session = bundle
	if profile != nil {
		m.profile = profile
	}
	m.state = StateAuthenticated
	m.mu.Unlock()
	m.emit(EventSignedIn, bundle)
}

// SignedOut clears session and profile.
func (m *Manager) SignedOut() {
	m.mu.Lock()
	if m.state == StateDisposed {
		m.mu.Unlock()
		return
	}
	m.session = nil
	m.profile = nil
	m.state = StateUnauthenticated
	m.mu.Unlock()
	m.emit(EventSignedOut, nil)
}

// TokenRefreshed swaps in the rotated bundle. The profile is untouched.
func (m *Manager) TokenRefreshed(bundle *session.Session) {
	m.mu.Lock()
	if m.state == StateDisposed {
		m.mu.Unlock()
		return
	}
	m.session = bundle
	m.mu.Unlock()
	m.emit(EventTokenRefreshed, bundle)
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns the mirrored session bundle, or nil.
func (m *Manager) Session() *session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Profile returns the mirrored profile, or nil.
func (m *Manager) Profile() *models.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile
}

// ExecuteAuthOperation runs op. If op fails with a token-expiry kind, the
// session is refreshed once (the refresh fully completes before the retry
// begins) and op is retried exactly once. A second failure is terminal and
// returned to the caller. Any other error kind is returned without retry.
// op is therefore invoked at most twice.
func (m *Manager) ExecuteAuthOperation(ctx context.Context, op func(ctx context.Context) error) error {
	err := op(ctx)
	if err == nil {
		return nil
	}
	if !session.IsTokenExpired(err) {
		return err
	}

	m.mu.Lock()
	current := m.session
	m.mu.Unlock()
	if current == nil || current.RefreshToken == "" {
		return err
	}
	rotated, refreshErr := m.sessions.Refresh(ctx, current.ID, current.RefreshToken)
	if refreshErr != nil {
		m.logger.Warn("session refresh failed, signing out",
			zap.String("session_id", current.ID.String()), zap.Error(refreshErr))
		m.SignedOut()
		return err
	}
	m.TokenRefreshed(rotated)

	if retryErr := op(ctx); retryErr != nil {
		m.logger.Warn("operation failed after refresh", zap.Error(retryErr))
		return retryErr
	}
	return nil
}

func (m *Manager) emit(ev Event, bundle *session.Session) {
	m.mu.Lock()
	fns := make([]func(Event, *session.Session), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(ev, bundle)
	}
}

func (m *Manager) setUnauthenticated() {
	m.mu.Lock()
	if m.state == StateDisposed {
		m.mu.Unlock()
		return
	}
	m.session = nil
	m.profile = nil
	m.state = StateUnauthenticated
	m.mu.Unlock()
}
