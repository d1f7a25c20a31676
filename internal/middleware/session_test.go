package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/planner-suite/backend/internal/auth"
	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/internal/session"
)

type authFixture struct {
	router   *gin.Engine
	store    *memStore
	sessions *session.Service
	cookies  session.CookieCodec
	managers *auth.Registry
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	sessions, err := session.NewService(store, "test-secret", time.Hour, 24*time.Hour, nil)
	require.NoError(t, err)
	cookies := session.CookieCodec{Name: "planner_suite_session", MaxAge: 24 * time.Hour}
	managers := auth.NewRegistry(sessions, staticProfiles{role: models.RoleIntermittent}, nil)

	router := gin.New()
	router.GET("/api/profiles/me", Auth(sessions, cookies, managers), func(c *gin.Context) {
		id := c.MustGet(ContextUserID).(uuid.UUID)
		c.String(http.StatusOK, id.String())
	})
	return &authFixture{router: router, store: store, sessions: sessions, cookies: cookies, managers: managers}
}

// expiredRecord stores a session whose access window has elapsed but whose
// refresh token is still valid, and returns the cookie value presenting it.
func (f *authFixture) expiredRecord(t *testing.T, userID uuid.UUID, refreshToken string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(refreshToken), bcrypt.MinCost)
	require.NoError(t, err)
	rec := &session.Record{
		ID:          uuid.New(),
		UserID:      userID,
		Role:        models.RoleIntermittent,
		RefreshHash: string(hash),
		ExpiresAt:   time.Now().Add(-time.Minute).Unix(),
		CreatedAt:   time.Now().Add(-2 * time.Hour),
	}
	require.NoError(t, f.store.Save(context.Background(), rec, 24*time.Hour))
	return rec.ID.String() + "." + refreshToken
}

func (f *authFixture) get(cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/profiles/me", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: f.cookies.Name, Value: cookie})
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestAuthRefreshesExpiredSessionAndRetries(t *testing.T) {
	f := newAuthFixture(t)
	userID := uuid.New()
	cookie := f.expiredRecord(t, userID, "single-use-refresh")

	rec := f.get(cookie)

	// The expired access window was refreshed mid-request and the lookup
	// retried, so the caller never sees the expiry.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID.String(), rec.Body.String())

	// The rotated bundle rides back on a fresh cookie.
	var rotated string
	for _, c := range rec.Result().Cookies() {
		if c.Name == f.cookies.Name {
			rotated = c.Value
		}
	}
	require.NotEmpty(t, rotated)
	assert.NotEqual(t, cookie, rotated)

	// The rotated cookie authenticates without another refresh.
	again := f.get(rotated)
	assert.Equal(t, http.StatusOK, again.Code)
}

func TestAuthStaleCookieUsesManagerToken(t *testing.T) {
	f := newAuthFixture(t)
	cookie := f.expiredRecord(t, uuid.New(), "single-use-refresh")

	first := f.get(cookie)
	require.Equal(t, http.StatusOK, first.Code)

	// A client replaying the pre-rotation cookie is still served: the
	// session manager holds the live refresh token, and the response
	// carries the current bundle.
	replay := f.get(cookie)
	assert.Equal(t, http.StatusOK, replay.Code)
	var rewritten bool
	for _, c := range replay.Result().Cookies() {
		if c.Name == f.cookies.Name && c.Value != cookie {
			rewritten = true
		}
	}
	assert.True(t, rewritten)
}

func TestAuthExpiredSessionWithBadRefreshTokenIs401(t *testing.T) {
	f := newAuthFixture(t)
	cookie := f.expiredRecord(t, uuid.New(), "single-use-refresh")
	id, _, err := f.cookies.Decode(cookie)
	require.NoError(t, err)

	rec := f.get(id.String() + ".wrong-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, f.managers.Len())
}

func TestAuthUnknownSessionIs401(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.get(uuid.New().String() + ".whatever")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, f.managers.Len())
}

func TestAuthMissingCookieIs401(t *testing.T) {
	f := newAuthFixture(t)
	assert.Equal(t, http.StatusUnauthorized, f.get("").Code)
}

func TestAuthBearerToken(t *testing.T) {
	f := newAuthFixture(t)
	profile := &models.Profile{ID: uuid.New(), Role: models.RoleRegisseur}
	sess, err := f.sessions.Create(context.Background(), profile)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/profiles/me", nil)
	req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, profile.ID.String(), rec.Body.String())
}
