// Package gates provides authorization gate functions for HTTP handlers.
// Gates check authentication and authorization, writing the JSON error
// envelope when checks fail.
//
// # Three-Tier Authorization Pattern
//
// CampusHub uses a three-tier authorization approach:
//
//  1. Route-Level Middleware (auth.LoadPrincipal plus per-group checks)
//     Applied in routes.go files for coarse-grained access control.
//
//  2. Handler-Level Gates (this package)
//     Used in handlers that need capability checks beyond what the route
//     group enforces. Gates write the error response and return the
//     caller's Capabilities.
//
//  3. Policy Layer (internal/app/policy/*)
//     Used for resource-specific authorization requiring database
//     lookups. Policies return (bool, error); callers handle the
//     error response.
//
// Don't stack gates behind middleware that already enforces the same
// requirement; use auth.CurrentPrincipal to read context without
// re-checking.
package gates

import (
	"net/http"

	"github.com/campushq/campushub/internal/app/apperr"
	"github.com/campushq/campushub/internal/app/system/auth"
	"github.com/campushq/campushub/internal/app/system/authz"
	"github.com/campushq/campushub/internal/app/system/httpjson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Result carries the outcome of a gate check.
type Result struct {
	Caps authz.Capabilities
	OK   bool
}

// RequireAuth ensures the caller is signed in and derives their
// capabilities. On failure it writes 401 and returns OK=false.
func RequireAuth(w http.ResponseWriter, r *http.Request, deriver *authz.Deriver, logger *zap.Logger) Result {
	p, ok := auth.CurrentPrincipal(r)
	if !ok {
		httpjson.Error(w, logger, apperr.Unauthenticated("sign in required"))
		return Result{}
	}
	caps, err := deriver.Derive(r.Context(), p)
	if err != nil {
		httpjson.Error(w, logger, apperr.Internal(err))
		return Result{}
	}
	return Result{Caps: caps, OK: true}
}

// RequireSuperAdmin ensures the caller is the platform super admin.
func RequireSuperAdmin(w http.ResponseWriter, r *http.Request, deriver *authz.Deriver, logger *zap.Logger) Result {
	res := RequireAuth(w, r, deriver, logger)
	if !res.OK {
		return res
	}
	if !authz.IsSuperAdmin(res.Caps) {
		httpjson.Error(w, logger, apperr.Forbidden("super admin required"))
		return Result{}
	}
	return res
}

// RequireInstitutionAdmin ensures the caller administers the given
// institution. Super admins pass.
func RequireInstitutionAdmin(w http.ResponseWriter, r *http.Request, deriver *authz.Deriver, logger *zap.Logger, institutionID primitive.ObjectID) Result {
	res := RequireAuth(w, r, deriver, logger)
	if !res.OK {
		return res
	}
	if authz.IsSuperAdmin(res.Caps) || authz.IsInstitutionAdmin(res.Caps, institutionID) {
		return res
	}
	httpjson.Error(w, logger, apperr.Forbidden("institution admin required"))
	return Result{}
}

// RequireAnyRole ensures the caller is signed in and holds one of the
// given roles.
func RequireAnyRole(w http.ResponseWriter, r *http.Request, deriver *authz.Deriver, logger *zap.Logger, roles ...string) Result {
	res := RequireAuth(w, r, deriver, logger)
	if !res.OK {
		return res
	}
	for _, want := range roles {
		if res.Caps.Role == want {
			return res
		}
	}
	httpjson.Error(w, logger, apperr.Forbidden("insufficient role"))
	return Result{}
}
