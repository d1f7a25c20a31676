// Package guard implements route protection as an explicit ordered list of
// predicates evaluated against a plain request description, so the decision
// procedure is testable without a running server.
package guard

import (
	"net/url"
	"path"
	"strings"

	"github.com/planner-suite/backend/internal/models"
)

// Decision is the outcome of evaluating the guard chain.
type Decision struct {
	Allow  bool
	Target string // redirect target when !Allow
}

// Allowed is the pass-through decision.
var Allowed = Decision{Allow: true}

// RedirectTo returns a redirect decision.
func RedirectTo(target string) Decision {
	return Decision{Target: target}
}

// Request is the slice of an HTTP request the guard looks at. Role is only
// consulted when the path is role-restricted; callers may leave it empty
// otherwise (see NeedsRole).
type Request struct {
	Path          string
	Authenticated bool
	Role          models.Role
}

// Predicate inspects a request and either decides (decided=true) or defers
// to the next predicate in the chain.
type Predicate func(Request) (d Decision, decided bool)

// Chain is an ordered list of predicates. Evaluation stops at the first
// predicate that decides; a chain that never decides allows the request.
type Chain []Predicate

// Evaluate runs the chain in order.
func (c Chain) Evaluate(req Request) Decision {
	for _, p := range c {
		if d, ok := p(req); ok {
			return d
		}
	}
	return Allowed
}

// PublicPrefixes are route patterns reachable without a session. A pattern
// P matches P itself or any path beginning with P/.
var PublicPrefixes = []string{
	"/",
	"/health",
	"/auth/login",
	"/auth/register",
	"/auth/logout",
	"/auth/reset-password",
	"/auth/callback",
	"/api/auth/callback",
}

// staticExtensions are asset suffixes that always pass through.
var staticExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {},
	".svg": {}, ".ico": {}, ".css": {}, ".js": {},
}

// RoleRule restricts a path prefix to a set of roles.
type RoleRule struct {
	Prefix  string
	Allowed map[models.Role]struct{}
}

// RoleRules are the role-restricted route patterns, most specific first.
var RoleRules = []RoleRule{
	{Prefix: "/dashboard/admin", Allowed: roles(models.RoleAdmin)},
	{Prefix: "/dashboard/regisseur", Allowed: roles(models.RoleRegisseur, models.RoleAdmin)},
}

func roles(rs ...models.Role) map[models.Role]struct{} {
	m := make(map[models.Role]struct{}, len(rs))
	for _, r := range rs {
		m[r] = struct{}{}
	}
	return m
}

// MatchesPrefix reports whether p matches the pattern: the path equals the
// pattern or begins with pattern + "/". The root pattern "/" therefore
// matches only "/" itself.
func MatchesPrefix(p, pattern string) bool {
	return p == pattern || strings.HasPrefix(p, pattern+"/")
}

// IsPublic reports whether the path is a public route or a static asset.
func IsPublic(p string) bool {
	if _, ok := staticExtensions[strings.ToLower(path.Ext(p))]; ok {
		return true
	}
	for _, pub := range PublicPrefixes {
		if MatchesPrefix(p, pub) {
			return true
		}
	}
	return false
}

// NeedsRole reports whether evaluating the path requires resolving the
// requester's role.
func NeedsRole(p string) bool {
	for _, rule := range RoleRules {
		if MatchesPrefix(p, rule.Prefix) {
			return true
		}
	}
	return false
}

// LoginRedirect is the target for unauthenticated requests to protected
// paths, carrying the original path for post-login navigation.
func LoginRedirect(originalPath string) string {
	return "/auth/login?redirectTo=" + url.QueryEscape(originalPath)
}

// roleFallback is where a role mismatch lands: intermittents on their own
// dashboard, a regisseur on the regisseur dashboard, anything else at the
// site root. Mismatches are always redirects, never errors.
func roleFallback(role models.Role) string {
	switch role {
	case models.RoleIntermittent:
		return "/dashboard/intermittent"
	case models.RoleRegisseur:
		return "/dashboard/regisseur"
	}
	return "/"
}

// DefaultChain builds the production guard chain: public routes and assets
// pass, unauthenticated requests bounce to login, role rules apply,
// everything else with a session is allowed.
func DefaultChain() Chain {
	return Chain{
		func(req Request) (Decision, bool) {
			if IsPublic(req.Path) {
				return Allowed, true
			}
			return Decision{}, false
		},
		func(req Request) (Decision, bool) {
			if !req.Authenticated {
				return RedirectTo(LoginRedirect(req.Path)), true
			}
			return Decision{}, false
		},
		func(req Request) (Decision, bool) {
			for _, rule := range RoleRules {
				if !MatchesPrefix(req.Path, rule.Prefix) {
					continue
				}
				if _, ok := rule.Allowed[req.Role]; ok {
					return Allowed, true
				}
				return RedirectTo(roleFallback(req.Role)), true
			}
			return Decision{}, false
		},
	}
}
