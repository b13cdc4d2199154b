// internal/app/features/announcements/handler.go
package announcements

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/campushq/campushub/internal/app/apperr"
	"github.com/campushq/campushub/internal/app/policy/clubpolicy"
	announcementstore "github.com/campushq/campushub/internal/app/store/announcements"
	clubstore "github.com/campushq/campushub/internal/app/store/clubs"
	"github.com/campushq/campushub/internal/app/system/auditlog"
	"github.com/campushq/campushub/internal/app/system/authz"
	"github.com/campushq/campushub/internal/app/system/gates"
	"github.com/campushq/campushub/internal/app/system/httpjson"
	"github.com/campushq/campushub/internal/app/system/paging"
	"github.com/campushq/campushub/internal/app/system/status"
	"github.com/campushq/campushub/internal/app/system/timeouts"
	"github.com/campushq/campushub/internal/domain/models"
)

// Handler serves club announcement endpoints.
type Handler struct {
	Announcements *announcementstore.Store
	Clubs         *clubstore.Store
	DB            *mongo.Database
	Deriver       *authz.Deriver
	Audit         *auditlog.Logger
	Log           *zap.Logger
}

func NewHandler(announcements *announcementstore.Store, clubs *clubstore.Store, db *mongo.Database, deriver *authz.Deriver, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Announcements: announcements, Clubs: clubs, DB: db, Deriver: deriver, Audit: audit, Log: logger}
}

func urlID(r *http.Request, key string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, key))
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidInput("malformed id in URL")
	}
	return id, nil
}

type createRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (req createRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.Required, validation.Length(2, 200)),
		validation.Field(&req.Body, validation.Required, validation.Length(1, 16000)),
	)
}

// ServeCreate handles POST /api/clubs/{clubID}/announcements. Club
// managers post announcements; they start as drafts.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	clubID, err := urlID(r, "clubID")
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	club, err := h.Clubs.GetByID(ctx, clubID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, h.Log, apperr.NotFound("club not found"))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	allowed, err := clubpolicy.CanManagePost(ctx, h.DB, res.Caps, club.InstitutionID, &clubID)
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	if !allowed {
		httpjson.Error(w, h.Log, apperr.Forbidden("club management rights required"))
		return
	}

	a, err := h.Announcements.Create(ctx, clubID, club.InstitutionID, req.Title, req.Body)
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	httpjson.Created(w, map[string]any{"announcement": payload(a)})
}

// ServeList handles GET /api/clubs/{clubID}/announcements. The public
// feed carries published announcements; ?all=1 needs management
// rights.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	clubID, err := urlID(r, "clubID")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var list []models.Announcement
	if r.URL.Query().Get("all") != "" {
		res := gates.RequireAuth(w, r, h.Deriver, h.Log)
		if !res.OK {
			return
		}
		club, err := h.Clubs.GetByID(ctx, clubID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, h.Log, apperr.NotFound("club not found"))
			return
		}
		if err != nil {
			httpjson.Error(w, h.Log, apperr.Internal(err))
			return
		}
		allowed, err := clubpolicy.CanManagePost(ctx, h.DB, res.Caps, club.InstitutionID, &clubID)
		if err != nil {
			httpjson.Error(w, h.Log, apperr.Internal(err))
			return
		}
		if !allowed {
			httpjson.Error(w, h.Log, apperr.Forbidden("management rights required to list unpublished announcements"))
			return
		}
		list, err = h.Announcements.ListAll(ctx, clubID, paging.Limit(r))
		if err != nil {
			httpjson.Error(w, h.Log, apperr.Internal(err))
			return
		}
	} else {
		list, err = h.Announcements.ListPublished(ctx, clubID, paging.Limit(r))
		if err != nil {
			httpjson.Error(w, h.Log, apperr.Internal(err))
			return
		}
	}

	out := make([]map[string]any, 0, len(list))
	for i := range list {
		out = append(out, payload(list[i]))
	}
	httpjson.OK(w, map[string]any{"announcements": out})
}

// ServeDecide handles POST /api/announcements/{announcementID}/approve
// and /reject. Valid only while pending.
func (h *Handler) ServeDecide(decision string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		annID, err := urlID(r, "announcementID")
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

		a, allowed, err := h.loadManaged(ctx, res.Caps, annID)
		if err != nil {
			httpjson.Error(w, h.Log, err)
			return
		}
		if !allowed {
			httpjson.Error(w, h.Log, apperr.Forbidden("management rights over this announcement required"))
			return
		}
		if a.Status != status.Pending {
			httpjson.Error(w, h.Log, apperr.Conflict("announcement is not pending"))
			return
		}

		st := status.Published
		if decision == status.Rejected {
			st = status.Rejected
		}
		if err := h.Announcements.SetStatus(ctx, annID, a.InstitutionID, st); err != nil {
			httpjson.Error(w, h.Log, apperr.Internal(err))
			return
		}

		h.Audit.ApprovalDecision(ctx, r, res.Caps.UserID, &a.InstitutionID, "announcement", annID.Hex(), decision)
		httpjson.OK(w, map[string]any{"status": st})
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

func (req statusRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Status, validation.Required,
			validation.By(func(v interface{}) error {
				if s, _ := v.(string); !status.IsValidPost(s) {
					return errors.New("must be a valid announcement status")
				}
				return nil
			})),
	)
}

// ServeSetStatus handles POST /api/announcements/{announcementID}/status.
func (h *Handler) ServeSetStatus(w http.ResponseWriter, r *http.Request) {
	annID, err := urlID(r, "announcementID")
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

	a, allowed, err := h.loadManaged(ctx, res.Caps, annID)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	if !allowed {
		httpjson.Error(w, h.Log, apperr.Forbidden("management rights over this announcement required"))
		return
	}

	if err := h.Announcements.SetStatus(ctx, annID, a.InstitutionID, req.Status); err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	h.Audit.StatusChanged(ctx, r, res.Caps.UserID, &a.InstitutionID, "announcement", annID.Hex(), req.Status)
	httpjson.OK(w, map[string]any{"status": req.Status})
}

// ServeDelete handles DELETE /api/announcements/{announcementID}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	annID, err := urlID(r, "announcementID")
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

	a, allowed, err := h.loadManaged(ctx, res.Caps, annID)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	if !allowed {
		httpjson.Error(w, h.Log, apperr.Forbidden("management rights over this announcement required"))
		return
	}

	if err := h.Announcements.Delete(ctx, annID, a.InstitutionID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, h.Log, apperr.NotFound("announcement not found"))
			return
		}
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	httpjson.OK(w, map[string]any{"deleted": annID.Hex()})
}

func (h *Handler) loadManaged(ctx context.Context, caps authz.Capabilities, annID primitive.ObjectID) (*models.Announcement, bool, error) {
	a, err := h.Announcements.GetByID(ctx, annID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, apperr.NotFound("announcement not found")
	}
	if err != nil {
		return nil, false, apperr.Internal(err)
	}
	clubID := a.ClubID
	allowed, err := clubpolicy.CanManagePost(ctx, h.DB, caps, a.InstitutionID, &clubID)
	if err != nil {
		return nil, false, apperr.Internal(err)
	}
	return a, allowed, nil
}

func payload(a models.Announcement) map[string]any {
	return map[string]any{
		"id":             a.ID.Hex(),
		"club_id":        a.ClubID.Hex(),
		"institution_id": a.InstitutionID.Hex(),
		"title":          a.Title,
		"body":           a.Body,
		"status":         a.Status,
		"created_at":     a.CreatedAt,
	}
}
