package web

import (
	"github.com/mocknhire/mocknhire/internal/auth"
	"github.com/mocknhire/mocknhire/internal/identity"
)

// LoginRoute is where visitors without an identity are sent for
// anything that needs one.
const LoginRoute = "/auth/login"

// Decision is the outcome of evaluating a route against the current
// identity. It is derived, never stored: the guard re-evaluates on
// every request.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

func allowed() Decision {
	return Decision{Allowed: true}
}

func redirectTo(route string) Decision {
	return Decision{RedirectTo: route}
}

// publicOnlyRoutes are reachable by anyone, but a signed-in user is
// sent to their dashboard instead: they never see the landing page or
// the login form again without signing out first.
var publicOnlyRoutes = map[string]bool{
	"/":          true,
	"/auth/login": true,
}

// roleRoutes are reachable only when the identity's role matches.
var roleRoutes = map[string]identity.Role{
	"/dashboard/recruiter": identity.RoleRecruiter,
	"/dashboard/student":   identity.RoleStudent,
	"/history":             identity.RoleStudent,
}

// authedRoutes are reachable by any signed-in user regardless of role.
var authedRoutes = map[string]bool{
	"/settings": true,
}

// Decide evaluates whether the route is reachable for the given
// identity, ident is nil when nobody is signed in. It is a pure
// function of its arguments.
func Decide(route string, ident *identity.Identity) Decision {
	if publicOnlyRoutes[route] {
		if ident != nil {
			return redirectTo(auth.DashboardRoute(ident.Role))
		}
		return allowed()
	}

	if role, ok := roleRoutes[route]; ok {
		if ident == nil {
			return redirectTo(LoginRoute)
		}
		if ident.Role != role {
			// A wrongly-placed visitor goes to their own dashboard,
			// this is a routing decision, not an error.
			return redirectTo(auth.DashboardRoute(ident.Role))
		}
		return allowed()
	}

	if authedRoutes[route] {
		if ident == nil {
			return redirectTo(LoginRoute)
		}
		return allowed()
	}

	return allowed()
}
