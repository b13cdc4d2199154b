// internal/app/features/institutions/handler.go
package institutions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/campushq/campushub/internal/app/apperr"
	"github.com/campushq/campushub/internal/app/policy/staffpolicy"
	institutionstore "github.com/campushq/campushub/internal/app/store/institutions"
	membershipstore "github.com/campushq/campushub/internal/app/store/memberships"
	staffstore "github.com/campushq/campushub/internal/app/store/staff"
	userstore "github.com/campushq/campushub/internal/app/store/users"
	"github.com/campushq/campushub/internal/app/system/auditlog"
	"github.com/campushq/campushub/internal/app/system/authz"
	"github.com/campushq/campushub/internal/app/system/credential"
	"github.com/campushq/campushub/internal/app/system/gates"
	"github.com/campushq/campushub/internal/app/system/httpjson"
	"github.com/campushq/campushub/internal/app/system/paging"
	"github.com/campushq/campushub/internal/app/system/status"
	"github.com/campushq/campushub/internal/app/system/timeouts"
	"github.com/campushq/campushub/internal/domain/models"
)

// Handler serves institution registration, approval, and membership
// endpoints.
type Handler struct {
	Institutions *institutionstore.Store
	Users        *userstore.Store
	Memberships  *membershipstore.Store
	Staff        *staffstore.Store
	DB           *mongo.Database
	Deriver      *authz.Deriver
	Audit        *auditlog.Logger
	Log          *zap.Logger
}

func NewHandler(institutions *institutionstore.Store, users *userstore.Store, memberships *membershipstore.Store, staff *staffstore.Store, db *mongo.Database, deriver *authz.Deriver, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Institutions: institutions,
		Users:        users,
		Memberships:  memberships,
		Staff:        staff,
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

type applyRequest struct {
	Name        string `json:"name"`
	EmailDomain string `json:"email_domain"`
	AdminEmail  string `json:"admin_email"`
	Password    string `json:"password"`
}

func (req applyRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 120)),
		validation.Field(&req.EmailDomain, validation.Required, is.Domain),
		validation.Field(&req.AdminEmail, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required, validation.Length(8, 128)),
	)
}

// ServeApply handles POST /api/institutions. Registration is open: the
// institution lands in pending status together with its admin account,
// and stays inert until the super admin approves it.
func (h *Handler) ServeApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
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

	inst, err := h.Institutions.Create(ctx, models.Institution{
		Name:        req.Name,
		EmailDomain: req.EmailDomain,
	})
	if errors.Is(err, institutionstore.ErrDuplicateSlug) {
		httpjson.Error(w, h.Log, apperr.Conflict(err.Error()))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	hash, err := credential.Hash(req.Password)
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	acct, err := h.Users.Create(ctx, models.User{
		FullName:      req.Name + " Admin",
		Email:         req.AdminEmail,
		SecretHash:    hash,
		Role:          status.RoleInstitution,
		Status:        status.Active,
		InstitutionID: &inst.ID,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		httpjson.Error(w, h.Log, apperr.Conflict(err.Error()))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	httpjson.Created(w, map[string]any{
		"institution": map[string]any{
			"id":     inst.ID.Hex(),
			"name":   inst.Name,
			"slug":   inst.Slug,
			"status": inst.Status,
		},
		"admin_account": map[string]any{
			"id":    acct.ID.Hex(),
			"email": acct.Email,
		},
	})
}

// ServeList handles GET /api/institutions. Everyone sees the approved
// directory; the super admin may filter by any status.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	st := status.Approved
	if want := r.URL.Query().Get("status"); want != "" && want != status.Approved {
		res := gates.RequireSuperAdmin(w, r, h.Deriver, h.Log)
		if !res.OK {
			return
		}
		st = want
	}

	list, err := h.Institutions.List(ctx, st, r.URL.Query().Get("q"), paging.Limit(r))
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	out := make([]map[string]any, 0, len(list))
	for _, inst := range list {
		out = append(out, map[string]any{
			"id":           inst.ID.Hex(),
			"name":         inst.Name,
			"slug":         inst.Slug,
			"email_domain": inst.EmailDomain,
			"status":       inst.Status,
		})
	}
	httpjson.OK(w, map[string]any{"institutions": out})
}

// ServeGet handles GET /api/institutions/{institutionID}. Anyone may
// read an approved institution; pending or rejected ones are visible
// only to the super admin.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	instID, err := urlID(r, "institutionID")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	inst, err := h.Institutions.GetByID(ctx, instID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, h.Log, apperr.NotFound("institution not found"))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	if inst.Status != status.Approved && inst.Status != status.Active {
		res := gates.RequireSuperAdmin(w, r, h.Deriver, h.Log)
		if !res.OK {
			return
		}
	}

	httpjson.OK(w, map[string]any{"institution": map[string]any{
		"id":           inst.ID.Hex(),
		"name":         inst.Name,
		"slug":         inst.Slug,
		"email_domain": inst.EmailDomain,
		"status":       inst.Status,
	}})
}

// ServeDecide handles POST /api/institutions/{institutionID}/approve
// and /reject. Super admin only; approve and reject apply only to
// pending institutions.
func (h *Handler) ServeDecide(decision string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := gates.RequireSuperAdmin(w, r, h.Deriver, h.Log)
		if !res.OK {
			return
		}
		instID, err := urlID(r, "institutionID")
		if err != nil {
			httpjson.Error(w, h.Log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
		defer cancel()

		inst, err := h.Institutions.GetByID(ctx, instID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, h.Log, apperr.NotFound("institution not found"))
			return
		}
		if err != nil {
			httpjson.Error(w, h.Log, apperr.Internal(err))
			return
		}
		if inst.Status != status.Pending {
			httpjson.Error(w, h.Log, apperr.Conflict("institution is not pending"))
			return
		}

		if err := h.Institutions.SetStatus(ctx, instID, decision); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				httpjson.Error(w, h.Log, apperr.NotFound("institution not found"))
				return
			}
			httpjson.Error(w, h.Log, apperr.Internal(err))
			return
		}

		h.Audit.ApprovalDecision(ctx, r, res.Caps.UserID, &instID, "institution", instID.Hex(), decision)
		httpjson.OK(w, map[string]any{"status": decision})
	}
}

type joinRequest struct {
	Kind string `json:"kind"`
}

func (req joinRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Kind, validation.Required,
			validation.In(status.KindStudent, status.KindEmployee, status.KindMemberOf)),
	)
}

// ServeJoin handles POST /api/institutions/{institutionID}/join. Any
// signed-in student or employee may apply; the edge starts pending.
func (h *Handler) ServeJoin(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAnyRole(w, r, h.Deriver, h.Log, status.RoleStudent, status.RoleEmployee)
	if !res.OK {
		return
	}
	instID, err := urlID(r, "institutionID")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	var req joinRequest
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

	inst, err := h.Institutions.GetByID(ctx, instID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, h.Log, apperr.NotFound("institution not found"))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	if inst.Status != status.Approved && inst.Status != status.Active {
		httpjson.Error(w, h.Log, apperr.NotFound("institution not found"))
		return
	}

	m, err := h.Memberships.Add(ctx, res.Caps.UserID, instID, req.Kind)
	if errors.Is(err, membershipstore.ErrDuplicateMembership) {
		httpjson.Error(w, h.Log, apperr.Conflict(err.Error()))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	httpjson.Created(w, map[string]any{
		"membership": map[string]any{
			"institution_id": m.InstitutionID.Hex(),
			"kind":           m.Kind,
			"status":         m.Status,
		},
	})
}

// ServeMembers handles GET /api/institutions/{institutionID}/members.
// Institution admin or staff only.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	instID, err := urlID(r, "institutionID")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	res := gates.RequireAuth(w, r, h.Deriver, h.Log)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	allowed, err := staffpolicy.CanManageInstitutionContent(ctx, h.DB, res.Caps, instID)
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	if !allowed {
		httpjson.Error(w, h.Log, apperr.Forbidden("institution admin or staff required"))
		return
	}

	list, err := h.Memberships.ListForInstitution(ctx, instID, r.URL.Query().Get("status"), paging.Limit(r))
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	out := make([]map[string]any, 0, len(list))
	for _, m := range list {
		out = append(out, map[string]any{
			"user_id": m.UserID.Hex(),
			"kind":    m.Kind,
			"status":  m.Status,
		})
	}
	httpjson.OK(w, map[string]any{"members": out})
}

// ServeMemberDecide handles POST
// /api/institutions/{institutionID}/members/{userID}/approve and
// /reject. Institution admin only; approve and reject apply only to
// pending edges. A user outside the institution reads as not found
// rather than leaking that they exist.
func (h *Handler) ServeMemberDecide(decision string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		instID, err := urlID(r, "institutionID")
		if err != nil {
			httpjson.Error(w, h.Log, err)
			return
		}
		userID, err := urlID(r, "userID")
		if err != nil {
			httpjson.Error(w, h.Log, err)
			return
		}
		res := gates.RequireInstitutionAdmin(w, r, h.Deriver, h.Log, instID)
		if !res.OK {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
		defer cancel()

		m, err := h.Memberships.Get(ctx, userID, instID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, h.Log, apperr.NotFound("membership not found"))
			return
		}
		if err != nil {
			httpjson.Error(w, h.Log, apperr.Internal(err))
			return
		}
		if m.Status != status.Pending {
			httpjson.Error(w, h.Log, apperr.Conflict("membership is not pending"))
			return
		}

		st := status.Active
		if decision == status.Rejected {
			st = status.Rejected
		}
		if err := h.Memberships.SetStatus(ctx, userID, instID, st); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				httpjson.Error(w, h.Log, apperr.NotFound("membership not found"))
				return
			}
			httpjson.Error(w, h.Log, apperr.Internal(err))
			return
		}

		h.Audit.ApprovalDecision(ctx, r, res.Caps.UserID, &instID, "membership", userID.Hex(), decision)
		httpjson.OK(w, map[string]any{"status": st})
	}
}

type staffRequest struct {
	UserID string `json:"user_id"`
}

func (req staffRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.UserID, validation.Required, is.MongoID),
	)
}

// ServeAssignStaff handles POST /api/institutions/{institutionID}/staff.
// Institution admin only; the target must hold an active employee
// membership.
func (h *Handler) ServeAssignStaff(w http.ResponseWriter, r *http.Request) {
	instID, err := urlID(r, "institutionID")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	res := gates.RequireInstitutionAdmin(w, r, h.Deriver, h.Log, instID)
	if !res.OK {
		return
	}

	var req staffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, h.Log, apperr.InvalidInput("request body must be JSON"))
		return
	}
	if err := req.Validate(); err != nil {
		httpjson.Error(w, h.Log, apperr.InvalidInput(err.Error()))
		return
	}
	userID, _ := primitive.ObjectIDFromHex(req.UserID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	eligible, err := staffpolicy.HasActiveEmployment(ctx, h.DB, userID, instID)
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	if !eligible {
		httpjson.Error(w, h.Log, apperr.InvalidInput("user does not hold an active employee membership at this institution"))
		return
	}

	if err := h.Staff.Assign(ctx, userID, instID); err != nil {
		if errors.Is(err, staffstore.ErrAlreadyAssigned) {
			httpjson.Error(w, h.Log, apperr.Conflict(err.Error()))
			return
		}
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	h.Audit.StaffAssigned(ctx, r, res.Caps.UserID, userID, &instID)
	httpjson.OK(w, map[string]any{"staff": map[string]any{
		"user_id":        userID.Hex(),
		"institution_id": instID.Hex(),
	}})
}

// ServeStaff handles GET /api/institutions/{institutionID}/staff.
// Institution admin only.
func (h *Handler) ServeStaff(w http.ResponseWriter, r *http.Request) {
	instID, err := urlID(r, "institutionID")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	res := gates.RequireInstitutionAdmin(w, r, h.Deriver, h.Log, instID)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Staff.ListForInstitution(ctx, instID)
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	out := make([]map[string]any, 0, len(list))
	for _, s := range list {
		out = append(out, map[string]any{"user_id": s.UserID.Hex()})
	}
	httpjson.OK(w, map[string]any{"staff": out})
}
