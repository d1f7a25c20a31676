package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planner-suite/backend/internal/session"
)

// Registry scopes one Manager per server-side session so concurrent users
// never share a mirror. Entries live until the session signs out or its
// manager is dropped after an auth failure.
type Registry struct {
	sessions SessionService
	profiles ProfileReader
	logger   *zap.Logger

	mu       sync.Mutex
	managers map[uuid.UUID]*Manager
}

// NewRegistry creates an empty manager registry.
func NewRegistry(sessions SessionService, profiles ProfileReader, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions: sessions,
		profiles: profiles,
		logger:   logger,
		managers: make(map[uuid.UUID]*Manager),
	}
}

// For returns the manager for the session in the bundle, creating and
// initializing it on first use. The bundle needs at least the session ID;
// a refresh token, when present, enables the refresh-and-retry path.
func (r *Registry) For(ctx context.Context, bundle *session.Session) (*Manager, error) {
	m, created := r.obtain(bundle.ID)
	if created {
		if err := m.Init(ctx, bundle); err != nil {
			r.Drop(bundle.ID)
			return nil, err
		}
	}
	return m, nil
}

// SignedIn registers a freshly minted session and returns its manager.
func (r *Registry) SignedIn(ctx context.Context, sess *session.Session) *Manager {
	m, _ := r.obtain(sess.ID)
	m.SignedIn(ctx, sess)
	return m
}

// SignedOut disposes and removes the session's manager. Unknown sessions
// are a no-op.
func (r *Registry) SignedOut(id uuid.UUID) {
	r.mu.Lock()
	m, ok := r.managers[id]
	delete(r.managers, id)
	r.mu.Unlock()
	if ok {
		m.SignedOut()
		m.Dispose()
	}
}

// TokenRefreshed mirrors an externally rotated bundle into the session's
// manager, if one exists.
func (r *Registry) TokenRefreshed(sess *session.Session) {
	r.mu.Lock()
	m, ok := r.managers[sess.ID]
	r.mu.Unlock()
	if ok {
		m.TokenRefreshed(sess)
	}
}

// Drop removes and disposes the session's manager without emitting events.
// Used when the session turns out to be invalid or gone.
func (r *Registry) Drop(id uuid.UUID) {
	r.mu.Lock()
	m, ok := r.managers[id]
	delete(r.managers, id)
	r.mu.Unlock()
	if ok {
		m.Dispose()
	}
}

// Len returns the number of live managers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.managers)
}

func (r *Registry) obtain(id uuid.UUID) (m *Manager, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.managers[id]
	if !ok {
		m = NewManager(r.sessions, r.profiles, r.logger)
		r.managers[id] = m
		created = true
	}
	return m, created
}
