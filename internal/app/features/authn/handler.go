// internal/app/features/authn/handler.go
package authn

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/campushq/campushub/internal/app/apperr"
	institutionstore "github.com/campushq/campushub/internal/app/store/institutions"
	sessionstore "github.com/campushq/campushub/internal/app/store/sessions"
	userstore "github.com/campushq/campushub/internal/app/store/users"
	"github.com/campushq/campushub/internal/app/system/auditlog"
	"github.com/campushq/campushub/internal/app/system/auth"
	"github.com/campushq/campushub/internal/app/system/authz"
	"github.com/campushq/campushub/internal/app/system/credential"
	"github.com/campushq/campushub/internal/app/system/httpjson"
	"github.com/campushq/campushub/internal/app/system/normalize"
	"github.com/campushq/campushub/internal/app/system/ratelimit"
	"github.com/campushq/campushub/internal/app/system/status"
	"github.com/campushq/campushub/internal/app/system/timeouts"
)

// Handler serves login, logout, and session introspection.
type Handler struct {
	Users        *userstore.Store
	Institutions *institutionstore.Store
	Sessions     *sessionstore.Store
	Deriver      *authz.Deriver
	Audit        *auditlog.Logger
	Limiter      *ratelimit.LoginLimiter
	Log          *zap.Logger
}

func NewHandler(users *userstore.Store, institutions *institutionstore.Store, sessions *sessionstore.Store, deriver *authz.Deriver, audit *auditlog.Logger, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Users:        users,
		Institutions: institutions,
		Sessions:     sessions,
		Deriver:      deriver,
		Audit:        audit,
		Limiter:      limiter,
		Log:          logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req loginRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required, validation.Length(1, 128)),
	)
}

// ServeLogin handles POST /api/auth/login. Wrong email and wrong
// password get the same answer so the endpoint cannot be used to probe
// which accounts exist.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, h.Log, apperr.InvalidInput("request body must be JSON"))
		return
	}
	if err := req.Validate(); err != nil {
		httpjson.Error(w, h.Log, apperr.InvalidInput(err.Error()))
		return
	}

	if ok, reason := h.Limiter.Check(r, req.Email); !ok {
		httpjson.Error(w, h.Log, apperr.RateLimited(reason))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.Audit.LoginFailed(ctx, r, req.Email, "user not found")
		httpjson.Error(w, h.Log, apperr.Unauthenticated("invalid email or password"))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	if !credential.Verify(u.SecretHash, req.Password) {
		h.Audit.LoginFailed(ctx, r, req.Email, "wrong password")
		httpjson.Error(w, h.Log, apperr.Unauthenticated("invalid email or password"))
		return
	}
	if u.Status != status.Active {
		h.Audit.LoginFailed(ctx, r, req.Email, "account not active")
		httpjson.Error(w, h.Log, apperr.Forbidden("account is not active"))
		return
	}

	sess, err := h.Sessions.Create(ctx, u.ID)
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	if err := auth.IssueCookie(w, r, sess.Token); err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	h.Limiter.ResetEmail(req.Email)
	h.Audit.LoginSuccess(ctx, r, u.ID, u.InstitutionID, u.Email)

	httpjson.OK(w, map[string]any{
		"user": map[string]any{
			"id":        u.ID.Hex(),
			"full_name": u.FullName,
			"email":     u.Email,
			"role":      status.NormalizeRole(u.Role),
		},
	})
}

type institutionLoginRequest struct {
	Domain   string `json:"domain"`
	Password string `json:"password"`
}

func (req institutionLoginRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Domain, validation.Required, validation.Length(1, 253)),
		validation.Field(&req.Password, validation.Required, validation.Length(1, 128)),
	)
}

// ServeInstitutionLogin handles POST /api/auth/login/institution.
// Institutions sign in by email domain, matched exactly first and by
// substring as a fallback. Institutions created before per-institution
// user accounts carry their credential on the institution record
// itself; newer ones have a dedicated user account. This endpoint
// accepts both, preferring the account when one exists. Only approved
// institutions may sign in on either path.
func (h *Handler) ServeInstitutionLogin(w http.ResponseWriter, r *http.Request) {
	var req institutionLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, h.Log, apperr.InvalidInput("request body must be JSON"))
		return
	}
	if err := req.Validate(); err != nil {
		httpjson.Error(w, h.Log, apperr.InvalidInput(err.Error()))
		return
	}

	if ok, reason := h.Limiter.Check(r, req.Domain); !ok {
		httpjson.Error(w, h.Log, apperr.RateLimited(reason))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	inst, err := h.Institutions.GetByDomain(ctx, normalize.Domain(req.Domain))
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.Audit.LoginFailed(ctx, r, req.Domain, "institution not found")
		httpjson.Error(w, h.Log, apperr.Unauthenticated("invalid institution or password"))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	if inst.Status != status.Approved {
		h.Audit.LoginFailed(ctx, r, req.Domain, "institution not approved")
		httpjson.Error(w, h.Log, apperr.Forbidden("institution is not approved"))
		return
	}

	acct, err := h.Users.GetInstitutionAccount(ctx, inst.ID)
	switch {
	case err == nil:
		if !credential.Verify(acct.SecretHash, req.Password) {
			h.Audit.LoginFailed(ctx, r, req.Domain, "wrong password")
			httpjson.Error(w, h.Log, apperr.Unauthenticated("invalid institution or password"))
			return
		}
		if acct.Status != status.Active {
			h.Audit.LoginFailed(ctx, r, req.Domain, "account not active")
			httpjson.Error(w, h.Log, apperr.Forbidden("account is not active"))
			return
		}
		sess, err := h.Sessions.Create(ctx, acct.ID)
		if err != nil {
			httpjson.Error(w, h.Log, apperr.Internal(err))
			return
		}
		if err := auth.IssueCookie(w, r, sess.Token); err != nil {
			httpjson.Error(w, h.Log, apperr.Internal(err))
			return
		}
		h.Limiter.ResetEmail(req.Domain)
		h.Audit.LoginSuccess(ctx, r, acct.ID, &inst.ID, acct.Email)
		httpjson.OK(w, map[string]any{
			"institution": map[string]any{
				"id":   inst.ID.Hex(),
				"name": inst.Name,
				"slug": inst.Slug,
			},
		})
		return

	case errors.Is(err, mongo.ErrNoDocuments):
		// Legacy shape: credential on the institution record.
		if inst.SecretHash == "" || !credential.Verify(inst.SecretHash, req.Password) {
			h.Audit.LoginFailed(ctx, r, req.Domain, "wrong password")
			httpjson.Error(w, h.Log, apperr.Unauthenticated("invalid institution or password"))
			return
		}
		sess, err := h.Sessions.CreateLegacy(ctx, inst.ID)
		if err != nil {
			httpjson.Error(w, h.Log, apperr.Internal(err))
			return
		}
		if err := auth.IssueCookie(w, r, sess.Token); err != nil {
			httpjson.Error(w, h.Log, apperr.Internal(err))
			return
		}
		h.Limiter.ResetEmail(req.Domain)
		h.Audit.LoginSuccess(ctx, r, inst.ID, &inst.ID, inst.Slug)
		httpjson.OK(w, map[string]any{
			"institution": map[string]any{
				"id":   inst.ID.Hex(),
				"name": inst.Name,
				"slug": inst.Slug,
			},
		})
		return

	default:
		httpjson.Error(w, h.Log, apperr.Internal(err))
	}
}

// ServeLogout handles POST /api/auth/logout. The server-side session is
// revoked and the cookie cleared; logging out while signed out is fine.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if token := auth.CookieToken(r); token != "" {
		if err := h.Sessions.DeleteByToken(ctx, token); err != nil {
			h.Log.Warn("failed to revoke session", zap.Error(err))
		}
	}
	if err := auth.ClearCookie(w, r); err != nil {
		h.Log.Warn("failed to clear session cookie", zap.Error(err))
	}

	var userID *primitive.ObjectID
	if p, ok := auth.CurrentPrincipal(r); ok {
		userID = &p.UserID
	}
	h.Audit.Logout(ctx, r, userID)

	httpjson.OK(w, nil)
}

// ServeSession handles GET /api/auth/session: who am I, with derived
// capabilities. Anonymous callers get an empty principal, not an error.
func (h *Handler) ServeSession(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentPrincipal(r)
	if !ok {
		httpjson.OK(w, map[string]any{"authenticated": false})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	caps, err := h.Deriver.Derive(ctx, p)
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	payload := map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"id":        p.UserID.Hex(),
			"full_name": p.FullName,
			"email":     p.Email,
			"role":      p.Role,
		},
		"clubs": caps.Clubs,
	}
	if caps.Institution != nil {
		payload["institution"] = map[string]any{
			"id":     caps.Institution.ID.Hex(),
			"status": caps.Institution.Status,
		}
	}
	httpjson.OK(w, payload)
}
