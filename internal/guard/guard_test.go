package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/planner-suite/backend/internal/models"
)

func TestMatchesPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		pattern string
		want    bool
	}{
		{"/", "/", true},
		{"/events", "/", false},
		{"/auth/login", "/auth/login", true},
		{"/auth/login/extra", "/auth/login", true},
		{"/auth/loginx", "/auth/login", false},
		{"/dashboard/admin", "/dashboard/admin", true},
		{"/dashboard/administration", "/dashboard/admin", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, MatchesPrefix(tc.path, tc.pattern), "path %q pattern %q", tc.path, tc.pattern)
	}
}

func TestIsPublic(t *testing.T) {
	t.Parallel()

	assert.True(t, IsPublic("/"))
	assert.True(t, IsPublic("/health"))
	assert.True(t, IsPublic("/auth/callback"))
	assert.True(t, IsPublic("/api/auth/callback"))
	assert.True(t, IsPublic("/assets/logo.PNG"))
	assert.True(t, IsPublic("/static/app.js"))
	assert.False(t, IsPublic("/dashboard"))
	assert.False(t, IsPublic("/api/events"))
}

func TestDefaultChain(t *testing.T) {
	t.Parallel()

	chain := DefaultChain()

	tests := []struct {
		name string
		req  Request
		want Decision
	}{
		{
			name: "public path passes unauthenticated",
			req:  Request{Path: "/auth/login"},
			want: Allowed,
		},
		{
			name: "root passes unauthenticated",
			req:  Request{Path: "/"},
			want: Allowed,
		},
		{
			name: "unauthenticated protected path redirects to login with origin",
			req:  Request{Path: "/dashboard/regisseur"},
			want: RedirectTo("/auth/login?redirectTo=%2Fdashboard%2Fregisseur"),
		},
		{
			name: "regisseur on admin dashboard lands on regisseur dashboard",
			req:  Request{Path: "/dashboard/admin", Authenticated: true, Role: models.RoleRegisseur},
			want: RedirectTo("/dashboard/regisseur"),
		},
		{
			name: "intermittent on regisseur dashboard lands on intermittent dashboard",
			req:  Request{Path: "/dashboard/regisseur", Authenticated: true, Role: models.RoleIntermittent},
			want: RedirectTo("/dashboard/intermittent"),
		},
		{
			name: "admin allowed on admin dashboard",
			req:  Request{Path: "/dashboard/admin", Authenticated: true, Role: models.RoleAdmin},
			want: Allowed,
		},
		{
			name: "admin allowed on regisseur dashboard",
			req:  Request{Path: "/dashboard/regisseur/events", Authenticated: true, Role: models.RoleAdmin},
			want: Allowed,
		},
		{
			name: "unknown role on restricted path lands at root",
			req:  Request{Path: "/dashboard/admin", Authenticated: true, Role: models.Role("ghost")},
			want: RedirectTo("/"),
		},
		{
			name: "authenticated unrestricted path allowed",
			req:  Request{Path: "/dashboard/intermittent", Authenticated: true, Role: models.RoleIntermittent},
			want: Allowed,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, chain.Evaluate(tc.req))
		})
	}
}

func TestEmptyChainAllows(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Allowed, Chain{}.Evaluate(Request{Path: "/anything"}))
}
