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
	"go.uber.org/zap"

	"github.com/planner-suite/backend/internal/auth"
	"github.com/planner-suite/backend/internal/guard"
	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/internal/session"
)

type memStore struct {
	recs map[uuid.UUID]*session.Record
}

func newMemStore() *memStore {
	return &memStore{recs: make(map[uuid.UUID]*session.Record)}
}

func (s *memStore) Save(ctx context.Context, rec *session.Record, ttl time.Duration) error {
	cp := *rec
	s.recs[rec.ID] = &cp
	return nil
}

func (s *memStore) Get(ctx context.Context, id uuid.UUID) (*session.Record, error) {
	rec, ok := s.recs[id]
	if !ok {
		return nil, session.Errorf(session.KindNotFound, "session %s not found", id)
	}
	cp := *rec
	return &cp, nil
}

func (s *memStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.recs, id)
	return nil
}

type staticProfiles struct {
	role models.Role
}

func (p staticProfiles) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return &models.Profile{ID: id, Role: p.role}, nil
}

func guardRouter(t *testing.T, role models.Role) (*gin.Engine, session.CookieCodec, *session.Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions, err := session.NewService(newMemStore(), "test-secret", time.Hour, 24*time.Hour, nil)
	require.NoError(t, err)
	sess, err := sessions.Create(context.Background(), &models.Profile{ID: uuid.New(), Role: role})
	require.NoError(t, err)

	cookies := session.CookieCodec{Name: "planner_suite_session", MaxAge: 24 * time.Hour}
	managers := auth.NewRegistry(sessions, staticProfiles{role: role}, nil)

	router := gin.New()
	router.Use(Guard(guard.DefaultChain(), sessions, cookies, staticProfiles{role: role}, managers, zap.NewNop()))
	router.GET("/dashboard/admin", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/dashboard/regisseur", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router, cookies, sess
}

func withCookie(req *http.Request, cookies session.CookieCodec, sess *session.Session) {
	req.AddCookie(&http.Cookie{Name: cookies.Name, Value: cookies.Encode(sess)})
}

func TestGuardRedirectsUnauthenticatedToLogin(t *testing.T) {
	router, _, _ := guardRouter(t, models.RoleRegisseur)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/regisseur", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login?redirectTo=%2Fdashboard%2Fregisseur", rec.Header().Get("Location"))
}

func TestGuardRedirectsRegisseurOffAdminDashboard(t *testing.T) {
	router, cookies, sess := guardRouter(t, models.RoleRegisseur)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/admin", nil)
	withCookie(req, cookies, sess)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard/regisseur", rec.Header().Get("Location"))
}

func TestGuardAllowsMatchingRole(t *testing.T) {
	router, cookies, sess := guardRouter(t, models.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/admin", nil)
	withCookie(req, cookies, sess)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardAllowsPublicPathWithoutSession(t *testing.T) {
	router, _, _ := guardRouter(t, models.RoleIntermittent)

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardIgnoresGarbageCookie(t *testing.T) {
	router, cookies, _ := guardRouter(t, models.RoleRegisseur)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/regisseur", nil)
	req.AddCookie(&http.Cookie{Name: cookies.Name, Value: "garbage"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login?redirectTo=%2Fdashboard%2Fregisseur", rec.Header().Get("Location"))
}
