// internal/app/features/clubs/handler.go
package clubs

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
	"github.com/campushq/campushub/internal/app/policy/clubpolicy"
	"github.com/campushq/campushub/internal/app/policy/staffpolicy"
	advisorystore "github.com/campushq/campushub/internal/app/store/advisories"
	clubmemberstore "github.com/campushq/campushub/internal/app/store/clubmembers"
	clubstore "github.com/campushq/campushub/internal/app/store/clubs"
	membershipstore "github.com/campushq/campushub/internal/app/store/memberships"
	"github.com/campushq/campushub/internal/app/system/auditlog"
	"github.com/campushq/campushub/internal/app/system/authz"
	"github.com/campushq/campushub/internal/app/system/gates"
	"github.com/campushq/campushub/internal/app/system/httpjson"
	"github.com/campushq/campushub/internal/app/system/paging"
	"github.com/campushq/campushub/internal/app/system/status"
	"github.com/campushq/campushub/internal/app/system/timeouts"
	"github.com/campushq/campushub/internal/domain/models"
)

// Handler serves club lifecycle and club membership endpoints.
type Handler struct {
	Clubs       *clubstore.Store
	ClubMembers *clubmemberstore.Store
	Memberships *membershipstore.Store
	Advisories  *advisorystore.Store
	DB          *mongo.Database
	Deriver     *authz.Deriver
	Audit       *auditlog.Logger
	Log         *zap.Logger
}

func NewHandler(clubs *clubstore.Store, clubMembers *clubmemberstore.Store, memberships *membershipstore.Store, advisories *advisorystore.Store, db *mongo.Database, deriver *authz.Deriver, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Clubs:       clubs,
		ClubMembers: clubMembers,
		Memberships: memberships,
		Advisories:  advisories,
		DB:          db,
		Deriver:     deriver,
		Audit:       audit,
		Log:         logger,
	}
}

func urlID(r *http.Request, key string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, key))
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidInput("malformed id in URL")
	}
	return id, nil
}

// loadClub fetches the club or writes NotFound.
func (h *Handler) loadClub(ctx context.Context, w http.ResponseWriter, clubID primitive.ObjectID) (*models.Club, bool) {
	club, err := h.Clubs.GetByID(ctx, clubID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, h.Log, apperr.NotFound("club not found"))
		return nil, false
	}
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return nil, false
	}
	return club, true
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (req createRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 120)),
		validation.Field(&req.Description, validation.Length(0, 4000)),
	)
}

// ServeCreate handles POST /api/institutions/{institutionID}/clubs. Any
// active member of the institution may propose a club; it starts
// pending and the proposer becomes its first member.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	instID, err := urlID(r, "institutionID")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	res := gates.RequireAuth(w, r, h.Deriver, h.Log)
	if !res.OK {
		return
	}

	var req createRequest
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

	active, err := h.Memberships.HasActive(ctx, res.Caps.UserID, instID)
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	if !active && !authz.IsInstitutionAdmin(res.Caps, instID) {
		httpjson.Error(w, h.Log, apperr.Forbidden("an active membership at this institution is required"))
		return
	}

	club, err := h.Clubs.Create(ctx, instID, req.Name, req.Description, "")
	if errors.Is(err, clubstore.ErrDuplicateSlug) {
		httpjson.Error(w, h.Log, apperr.Conflict(err.Error()))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	if _, err := h.ClubMembers.Join(ctx, club.ID, res.Caps.UserID, instID); err != nil && !errors.Is(err, clubmemberstore.ErrAlreadyMember) {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	httpjson.Created(w, map[string]any{"club": clubPayload(club)})
}

// ServeListForInstitution handles GET
// /api/institutions/{institutionID}/clubs. The public sees approved
// clubs; the institution admin may filter by any status.
func (h *Handler) ServeListForInstitution(w http.ResponseWriter, r *http.Request) {
	instID, err := urlID(r, "institutionID")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	st := status.Approved
	if want := r.URL.Query().Get("status"); want != "" && want != status.Approved {
		res := gates.RequireInstitutionAdmin(w, r, h.Deriver, h.Log, instID)
		if !res.OK {
			return
		}
		st = want
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Clubs.ListForInstitution(ctx, instID, st, r.URL.Query().Get("q"), paging.Limit(r))
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	out := make([]map[string]any, 0, len(list))
	for i := range list {
		out = append(out, clubPayload(list[i]))
	}
	httpjson.OK(w, map[string]any{"clubs": out})
}

// ServeGet handles GET /api/clubs/{clubID}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	clubID, err := urlID(r, "clubID")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	club, ok := h.loadClub(ctx, w, clubID)
	if !ok {
		return
	}
	httpjson.OK(w, map[string]any{"club": clubPayload(*club)})
}

// ServeDecide handles POST /api/clubs/{clubID}/approve and /reject.
// The owning institution's admin decides; approve and reject apply
// only to pending clubs.
func (h *Handler) ServeDecide(decision string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clubID, err := urlID(r, "clubID")
		if err != nil {
			httpjson.Error(w, h.Log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
		defer cancel()

		club, ok := h.loadClub(ctx, w, clubID)
		if !ok {
			return
		}
		res := gates.RequireInstitutionAdmin(w, r, h.Deriver, h.Log, club.InstitutionID)
		if !res.OK {
			return
		}
		if club.Status != status.Pending {
			httpjson.Error(w, h.Log, apperr.Conflict("club is not pending"))
			return
		}

		if err := h.Clubs.SetStatus(ctx, clubID, club.InstitutionID, decision); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				httpjson.Error(w, h.Log, apperr.NotFound("club not found"))
				return
			}
			httpjson.Error(w, h.Log, apperr.Internal(err))
			return
		}

		h.Audit.ApprovalDecision(ctx, r, res.Caps.UserID, &club.InstitutionID, "club", clubID.Hex(), decision)
		httpjson.OK(w, map[string]any{"status": decision})
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

func (req statusRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Status, validation.Required,
			validation.In(status.Pending, status.Approved, status.Rejected)),
	)
}

// ServeSetStatus handles POST /api/clubs/{clubID}/status. Super admin
// only; sets any valid status directly.
func (h *Handler) ServeSetStatus(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireSuperAdmin(w, r, h.Deriver, h.Log)
	if !res.OK {
		return
	}
	clubID, err := urlID(r, "clubID")
	if err != nil {
		httpjson.Error(w, h.Log, err)
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

	club, ok := h.loadClub(ctx, w, clubID)
	if !ok {
		return
	}
	if err := h.Clubs.SetStatus(ctx, clubID, club.InstitutionID, req.Status); err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	h.Audit.StatusChanged(ctx, r, res.Caps.UserID, &club.InstitutionID, "club", clubID.Hex(), req.Status)
	httpjson.OK(w, map[string]any{"status": req.Status})
}

// ServeJoin handles POST /api/clubs/{clubID}/members. The caller joins
// the club; they need an active membership at the owning institution
// and the club must be approved.
func (h *Handler) ServeJoin(w http.ResponseWriter, r *http.Request) {
	clubID, err := urlID(r, "clubID")
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

	club, ok := h.loadClub(ctx, w, clubID)
	if !ok {
		return
	}
	if club.Status != status.Approved {
		httpjson.Error(w, h.Log, apperr.NotFound("club not found"))
		return
	}

	active, err := h.Memberships.HasActive(ctx, res.Caps.UserID, club.InstitutionID)
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	if !active {
		httpjson.Error(w, h.Log, apperr.Forbidden("an active membership at this institution is required"))
		return
	}

	m, err := h.ClubMembers.Join(ctx, clubID, res.Caps.UserID, club.InstitutionID)
	if errors.Is(err, clubmemberstore.ErrAlreadyMember) {
		httpjson.Error(w, h.Log, apperr.Conflict(err.Error()))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	httpjson.Created(w, map[string]any{"membership": map[string]any{
		"club_id": m.ClubID.Hex(),
		"role":    m.Role,
	}})
}

// ServeMembers handles GET /api/clubs/{clubID}/members. Visible to
// anyone who can manage the club or belongs to it.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	clubID, err := urlID(r, "clubID")
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

	club, ok := h.loadClub(ctx, w, clubID)
	if !ok {
		return
	}

	allowed := authz.IsClubMember(res.Caps, clubID)
	if !allowed {
		allowed, err = clubpolicy.CanManageClub(ctx, h.DB, res.Caps, clubID, club.InstitutionID)
		if err != nil {
			httpjson.Error(w, h.Log, apperr.Internal(err))
			return
		}
	}
	if !allowed {
		httpjson.Error(w, h.Log, apperr.Forbidden("club membership required"))
		return
	}

	list, err := h.ClubMembers.ListMembers(ctx, clubID)
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	out := make([]map[string]any, 0, len(list))
	for _, m := range list {
		out = append(out, map[string]any{
			"user_id": m.UserID.Hex(),
			"role":    m.Role,
		})
	}
	httpjson.OK(w, map[string]any{"members": out})
}

type targetRequest struct {
	UserID string `json:"user_id"`
}

func (req targetRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.UserID, validation.Required, is.MongoID),
	)
}

// ServeAssignOfficer handles POST /api/clubs/{clubID}/officer. Anyone
// who manages the club may hand the single officer seat to a member;
// the previous officer is demoted in the same operation.
func (h *Handler) ServeAssignOfficer(w http.ResponseWriter, r *http.Request) {
	clubID, err := urlID(r, "clubID")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	res := gates.RequireAuth(w, r, h.Deriver, h.Log)
	if !res.OK {
		return
	}

	var req targetRequest
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

	club, ok := h.loadClub(ctx, w, clubID)
	if !ok {
		return
	}
	allowed, err := clubpolicy.CanManageClub(ctx, h.DB, res.Caps, clubID, club.InstitutionID)
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	if !allowed {
		httpjson.Error(w, h.Log, apperr.Forbidden("club management rights required"))
		return
	}

	// Re-assigning the current officer is a no-op, not a seat shuffle.
	if already, err := h.ClubMembers.IsOfficer(ctx, clubID, userID); err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	} else if already {
		httpjson.OK(w, map[string]any{"officer": userID.Hex()})
		return
	}

	if err := h.ClubMembers.AssignOfficer(ctx, clubID, userID); err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			httpjson.Error(w, h.Log, apperr.NotFound("user is not a member of this club"))
		case errors.Is(err, clubmemberstore.ErrOfficerRace):
			httpjson.Error(w, h.Log, apperr.Conflict(err.Error()))
		default:
			httpjson.Error(w, h.Log, apperr.Internal(err))
		}
		return
	}

	h.Audit.OfficerAssigned(ctx, r, res.Caps.UserID, userID, clubID, &club.InstitutionID)
	httpjson.OK(w, map[string]any{"officer": userID.Hex()})
}

// ServeAssignAdvisor handles POST /api/clubs/{clubID}/advisor. The
// owning institution's admin assigns an advisor; the target must hold
// an active employee membership there.
func (h *Handler) ServeAssignAdvisor(w http.ResponseWriter, r *http.Request) {
	clubID, err := urlID(r, "clubID")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	var req targetRequest
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

	club, ok := h.loadClub(ctx, w, clubID)
	if !ok {
		return
	}
	res := gates.RequireInstitutionAdmin(w, r, h.Deriver, h.Log, club.InstitutionID)
	if !res.OK {
		return
	}

	eligible, err := staffpolicy.HasActiveEmployment(ctx, h.DB, userID, club.InstitutionID)
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	if !eligible {
		httpjson.Error(w, h.Log, apperr.InvalidInput("user does not hold an active employee membership at this institution"))
		return
	}

	if err := h.Advisories.Assign(ctx, clubID, userID, club.InstitutionID); err != nil {
		if errors.Is(err, advisorystore.ErrAlreadyAssigned) {
			httpjson.Error(w, h.Log, apperr.Conflict(err.Error()))
			return
		}
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	h.Audit.AdvisorAssigned(ctx, r, res.Caps.UserID, userID, clubID, &club.InstitutionID)
	httpjson.OK(w, map[string]any{"advisor": userID.Hex()})
}

// ServeAdvisors handles GET /api/clubs/{clubID}/advisors. Visible to
// the same audience as the member list.
func (h *Handler) ServeAdvisors(w http.ResponseWriter, r *http.Request) {
	clubID, err := urlID(r, "clubID")
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

	club, ok := h.loadClub(ctx, w, clubID)
	if !ok {
		return
	}

	allowed := authz.IsClubMember(res.Caps, clubID)
	if !allowed {
		allowed, err = clubpolicy.CanManageClub(ctx, h.DB, res.Caps, clubID, club.InstitutionID)
		if err != nil {
			httpjson.Error(w, h.Log, apperr.Internal(err))
			return
		}
	}
	if !allowed {
		httpjson.Error(w, h.Log, apperr.Forbidden("club membership required"))
		return
	}

	list, err := h.Advisories.ListForClub(ctx, clubID)
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	out := make([]map[string]any, 0, len(list))
	for _, a := range list {
		out = append(out, map[string]any{"user_id": a.UserID.Hex()})
	}
	httpjson.OK(w, map[string]any{"advisors": out})
}

func clubPayload(c models.Club) map[string]any {
	return map[string]any{
		"id":             c.ID.Hex(),
		"institution_id": c.InstitutionID.Hex(),
		"name":           c.Name,
		"slug":           c.Slug,
		"description":    c.Description,
		"status":         c.Status,
	}
}
