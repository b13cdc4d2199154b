// internal/app/features/principals/handler.go
package principals

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/campushq/campushub/internal/app/apperr"
	"github.com/campushq/campushub/internal/app/policy/principalpolicy"
	institutionstore "github.com/campushq/campushub/internal/app/store/institutions"
	membershipstore "github.com/campushq/campushub/internal/app/store/memberships"
	sessionstore "github.com/campushq/campushub/internal/app/store/sessions"
	userstore "github.com/campushq/campushub/internal/app/store/users"
	"github.com/campushq/campushub/internal/app/system/auditlog"
	"github.com/campushq/campushub/internal/app/system/authz"
	"github.com/campushq/campushub/internal/app/system/credential"
	"github.com/campushq/campushub/internal/app/system/gates"
	"github.com/campushq/campushub/internal/app/system/httpjson"
	"github.com/campushq/campushub/internal/app/system/normalize"
	"github.com/campushq/campushub/internal/app/system/status"
	"github.com/campushq/campushub/internal/app/system/timeouts"
	"github.com/campushq/campushub/internal/domain/models"
)

// Handler serves user account registration and administration.
type Handler struct {
	Users        *userstore.Store
	Institutions *institutionstore.Store
	Memberships  *membershipstore.Store
	Sessions     *sessionstore.Store
	DB           *mongo.Database
	Deriver      *authz.Deriver
	Audit        *auditlog.Logger
	Log          *zap.Logger
}

func NewHandler(users *userstore.Store, institutions *institutionstore.Store, memberships *membershipstore.Store, sessions *sessionstore.Store, db *mongo.Database, deriver *authz.Deriver, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:        users,
		Institutions: institutions,
		Memberships:  memberships,
		Sessions:     sessions,
		DB:           db,
		Deriver:      deriver,
		Audit:        audit,
		Log:          logger,
	}
}

func urlID(r *http.Request, key string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, key))
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidInput("malformed id in URL")
	}
	return id, nil
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (req registerRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.FullName, validation.Required, validation.Length(2, 120)),
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&req.Role, validation.Required,
			validation.In(status.RoleStudent, status.RoleEmployee)),
	)
}

// ServeRegister handles POST /api/users. Open registration for
// students and employees. When the email's domain matches an approved
// institution, a pending membership edge is created alongside the
// account.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, h.Log, apperr.InvalidInput("request body must be JSON"))
		return
	}
	if err := req.Validate(); err != nil {
		httpjson.Error(w, h.Log, apperr.InvalidInput(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	hash, err := credential.Hash(req.Password)
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	u, err := h.Users.Create(ctx, models.User{
		FullName:   req.FullName,
		Email:      req.Email,
		SecretHash: hash,
		Role:       req.Role,
		Status:     status.Active,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		httpjson.Error(w, h.Log, apperr.Conflict(err.Error()))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	payload := map[string]any{"user": userPayload(&u)}

	// A matching email domain starts the institution application
	// automatically. Failures here do not break registration.
	if domain := emailDomain(u.Email); domain != "" {
		inst, err := h.Institutions.GetByDomain(ctx, domain)
		if err == nil && (inst.Status == status.Approved || inst.Status == status.Active) {
			kind := status.KindStudent
			if u.Role == status.RoleEmployee {
				kind = status.KindEmployee
			}
			if m, err := h.Memberships.Add(ctx, u.ID, inst.ID, kind); err == nil {
				payload["membership"] = map[string]any{
					"institution_id": m.InstitutionID.Hex(),
					"kind":           m.Kind,
					"status":         m.Status,
				}
			}
		} else if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			h.Log.Warn("institution domain lookup failed during registration",
				zap.String("domain", domain), zap.Error(err))
		}
	}

	httpjson.Created(w, payload)
}

// ServeGet handles GET /api/users/{userID}. Users read themselves; the
// super admin reads anyone.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	userID, err := urlID(r, "userID")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	res := gates.RequireAuth(w, r, h.Deriver, h.Log)
	if !res.OK {
		return
	}
	if res.Caps.UserID != userID && !authz.IsSuperAdmin(res.Caps) {
		httpjson.Error(w, h.Log, apperr.NotFound("user not found"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, h.Log, apperr.NotFound("user not found"))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	edges, err := h.Memberships.GetForUser(ctx, userID)
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	memberships := make([]map[string]any, 0, len(edges))
	for _, m := range edges {
		memberships = append(memberships, map[string]any{
			"institution_id": m.InstitutionID.Hex(),
			"kind":           m.Kind,
			"status":         m.Status,
		})
	}

	httpjson.OK(w, map[string]any{
		"user":        userPayload(u),
		"memberships": memberships,
	})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (req statusRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Status, validation.Required,
			validation.In(status.Active, status.Disabled)),
	)
}

// ServeSetStatus handles POST /api/users/{userID}/status. The super
// admin can toggle anyone; an institution admin can toggle its own
// members, provided the membership edge is already active. Protected
// accounts cannot be disabled. Disabling revokes every open session
// for the account.
func (h *Handler) ServeSetStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := urlID(r, "userID")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	res := gates.RequireAuth(w, r, h.Deriver, h.Log)
	if !res.OK {
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, h.Log, apperr.InvalidInput("request body must be JSON"))
		return
	}
	if err := req.Validate(); err != nil {
		httpjson.Error(w, h.Log, apperr.InvalidInput(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !authz.IsSuperAdmin(res.Caps) {
		if res.Caps.Institution == nil || !authz.IsInstitutionAdmin(res.Caps, res.Caps.Institution.ID) {
			httpjson.Error(w, h.Log, apperr.Forbidden("super admin or institution admin required"))
			return
		}
		// Only members whose edge is already active are in scope.
		active, err := h.Memberships.HasActive(ctx, userID, res.Caps.Institution.ID)
		if err != nil {
			httpjson.Error(w, h.Log, apperr.Internal(err))
			return
		}
		if !active {
			httpjson.Error(w, h.Log, apperr.NotFound("user not found"))
			return
		}
	}

	allowed, err := principalpolicy.CheckProtectedMutation(ctx, h.DB, userID, principalpolicy.Mutation{
		Op:        principalpolicy.OpSetStatus,
		NewStatus: req.Status,
	})
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	if !allowed {
		h.Audit.ProtectedDenied(ctx, r, res.Caps.UserID, userID, principalpolicy.OpSetStatus)
		httpjson.Error(w, h.Log, apperr.Forbidden("this account is protected"))
		return
	}

	if err := h.Users.SetStatus(ctx, userID, req.Status); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, h.Log, apperr.NotFound("user not found"))
			return
		}
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	if req.Status == status.Disabled {
		if _, err := h.Sessions.DeleteForUser(ctx, userID); err != nil {
			h.Log.Error("failed to revoke sessions for disabled user",
				zap.String("user_id", userID.Hex()), zap.Error(err))
		}
	}

	h.Audit.StatusChanged(ctx, r, res.Caps.UserID, nil, "user", userID.Hex(), req.Status)
	httpjson.OK(w, map[string]any{"status": req.Status})
}

// ServeDelete handles DELETE /api/users/{userID}. Super admin only;
// protected accounts are never deletable.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireSuperAdmin(w, r, h.Deriver, h.Log)
	if !res.OK {
		return
	}
	userID, err := urlID(r, "userID")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	allowed, err := principalpolicy.CheckProtectedMutation(ctx, h.DB, userID, principalpolicy.Mutation{
		Op: principalpolicy.OpDelete,
	})
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	if !allowed {
		h.Audit.ProtectedDenied(ctx, r, res.Caps.UserID, userID, principalpolicy.OpDelete)
		httpjson.Error(w, h.Log, apperr.Forbidden("this account is protected"))
		return
	}

	n, err := h.Users.Delete(ctx, userID)
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	if n == 0 {
		httpjson.Error(w, h.Log, apperr.NotFound("user not found"))
		return
	}

	if _, err := h.Sessions.DeleteForUser(ctx, userID); err != nil {
		h.Log.Error("failed to revoke sessions for deleted user",
			zap.String("user_id", userID.Hex()), zap.Error(err))
	}

	h.Audit.AccountDeleted(ctx, r, res.Caps.UserID, userID)
	httpjson.OK(w, map[string]any{"deleted": userID.Hex()})
}

type emailRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req emailRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required, is.Email),
	)
}

// ServeSetEmail handles POST /api/users/{userID}/email. Users change
// their own address; the super admin changes anyone's. For protected
// accounts the caller must re-prove the account password in the same
// request.
func (h *Handler) ServeSetEmail(w http.ResponseWriter, r *http.Request) {
	userID, err := urlID(r, "userID")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	res := gates.RequireAuth(w, r, h.Deriver, h.Log)
	if !res.OK {
		return
	}
	if res.Caps.UserID != userID && !authz.IsSuperAdmin(res.Caps) {
		httpjson.Error(w, h.Log, apperr.NotFound("user not found"))
		return
	}

	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, h.Log, apperr.InvalidInput("request body must be JSON"))
		return
	}
	if err := req.Validate(); err != nil {
		httpjson.Error(w, h.Log, apperr.InvalidInput(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	target, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, h.Log, apperr.NotFound("user not found"))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	reauthed := req.Password != "" && credential.Verify(target.SecretHash, req.Password)

	allowed, err := principalpolicy.CheckProtectedMutation(ctx, h.DB, userID, principalpolicy.Mutation{
		Op:               principalpolicy.OpSetEmail,
		AllowEmailChange: reauthed,
	})
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	if !allowed {
		h.Audit.ProtectedDenied(ctx, r, res.Caps.UserID, userID, principalpolicy.OpSetEmail)
		httpjson.Error(w, h.Log, apperr.Forbidden("this account is protected; re-authenticate to change its email"))
		return
	}

	if err := h.Users.SetEmail(ctx, userID, req.Email); err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			httpjson.Error(w, h.Log, apperr.Conflict(err.Error()))
			return
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, h.Log, apperr.NotFound("user not found"))
			return
		}
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	h.Audit.EmailChanged(ctx, r, res.Caps.UserID, userID, normalize.Email(req.Email))
	httpjson.OK(w, map[string]any{"email": normalize.Email(req.Email)})
}

func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

func userPayload(u *models.User) map[string]any {
	p := map[string]any{
		"id":        u.ID.Hex(),
		"full_name": u.FullName,
		"email":     u.Email,
		"role":      u.Role,
		"status":    u.Status,
	}
	if u.InstitutionID != nil {
		p["institution_id"] = u.InstitutionID.Hex()
	}
	return p
}
