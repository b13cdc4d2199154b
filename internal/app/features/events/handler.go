// internal/app/features/events/handler.go
package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/campushq/campushub/internal/app/apperr"
	"github.com/campushq/campushub/internal/app/policy/clubpolicy"
	clubstore "github.com/campushq/campushub/internal/app/store/clubs"
	eventstore "github.com/campushq/campushub/internal/app/store/events"
	"github.com/campushq/campushub/internal/app/system/auditlog"
	"github.com/campushq/campushub/internal/app/system/authz"
	"github.com/campushq/campushub/internal/app/system/gates"
	"github.com/campushq/campushub/internal/app/system/httpjson"
	"github.com/campushq/campushub/internal/app/system/paging"
	"github.com/campushq/campushub/internal/app/system/status"
	"github.com/campushq/campushub/internal/app/system/timeouts"
	"github.com/campushq/campushub/internal/domain/models"
)

// Handler serves event publishing endpoints for clubs and institutions.
type Handler struct {
	Events  *eventstore.Store
	Clubs   *clubstore.Store
	DB      *mongo.Database
	Deriver *authz.Deriver
	Audit   *auditlog.Logger
	Log     *zap.Logger
}

func NewHandler(events *eventstore.Store, clubs *clubstore.Store, db *mongo.Database, deriver *authz.Deriver, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Events: events, Clubs: clubs, DB: db, Deriver: deriver, Audit: audit, Log: logger}
}

func urlID(r *http.Request, key string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, key))
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidInput("malformed id in URL")
	}
	return id, nil
}

type createRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartsAt    *time.Time `json:"starts_at"`
}

func (req createRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.Required, validation.Length(2, 200)),
		validation.Field(&req.Description, validation.Length(0, 8000)),
	)
}

// ServeCreateForClub handles POST /api/clubs/{clubID}/events. Club
// managers create events in draft status.
func (h *Handler) ServeCreateForClub(w http.ResponseWriter, r *http.Request) {
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

	h.create(ctx, w, r, club.InstitutionID, &clubID)
}

// ServeCreateForInstitution handles POST
// /api/institutions/{institutionID}/events for institution-level
// events. Institution admin or staff only.
func (h *Handler) ServeCreateForInstitution(w http.ResponseWriter, r *http.Request) {
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

	allowed, err := clubpolicy.CanManagePost(ctx, h.DB, res.Caps, instID, nil)
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	if !allowed {
		httpjson.Error(w, h.Log, apperr.Forbidden("institution admin or staff required"))
		return
	}

	h.create(ctx, w, r, instID, nil)
}

func (h *Handler) create(ctx context.Context, w http.ResponseWriter, r *http.Request, instID primitive.ObjectID, clubID *primitive.ObjectID) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, h.Log, apperr.InvalidInput("request body must be JSON"))
		return
	}
	if err := req.Validate(); err != nil {
		httpjson.Error(w, h.Log, apperr.InvalidInput(err.Error()))
		return
	}

	var startsAt time.Time
	if req.StartsAt != nil {
		startsAt = *req.StartsAt
	}
	ev, err := h.Events.Create(ctx, instID, clubID, req.Title, req.Description, "", startsAt)
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}
	httpjson.Created(w, map[string]any{"event": eventPayload(ev)})
}

// ServeGet handles GET /api/events/{eventID}. Published events are
// public; anything else requires management rights over its scope.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	eventID, err := urlID(r, "eventID")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ev, err := h.Events.GetByID(ctx, eventID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, h.Log, apperr.NotFound("event not found"))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	if ev.Status != status.Published {
		res := gates.RequireAuth(w, r, h.Deriver, h.Log)
		if !res.OK {
			return
		}
		allowed, err := clubpolicy.CanManagePost(ctx, h.DB, res.Caps, ev.InstitutionID, ev.ClubID)
		if err != nil {
			httpjson.Error(w, h.Log, apperr.Internal(err))
			return
		}
		if !allowed {
			httpjson.Error(w, h.Log, apperr.NotFound("event not found"))
			return
		}
	}

	httpjson.OK(w, map[string]any{"event": eventPayload(*ev)})
}

// ServeDecide handles POST /api/events/{eventID}/approve and /reject.
// Valid only while the event is pending.
func (h *Handler) ServeDecide(decision string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, err := urlID(r, "eventID")
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

		ev, allowed, err := h.loadManaged(ctx, res.Caps, eventID)
		if err != nil {
			httpjson.Error(w, h.Log, err)
			return
		}
		if !allowed {
			httpjson.Error(w, h.Log, apperr.Forbidden("management rights over this event required"))
			return
		}
		if ev.Status != status.Pending {
			httpjson.Error(w, h.Log, apperr.Conflict("event is not pending"))
			return
		}

		st := status.Published
		if decision == status.Rejected {
			st = status.Rejected
		}
		if err := h.Events.SetStatus(ctx, eventID, ev.InstitutionID, st); err != nil {
			httpjson.Error(w, h.Log, apperr.Internal(err))
			return
		}

		h.Audit.ApprovalDecision(ctx, r, res.Caps.UserID, &ev.InstitutionID, "event", eventID.Hex(), decision)
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
					return errors.New("must be a valid event status")
				}
				return nil
			})),
	)
}

// ServeSetStatus handles POST /api/events/{eventID}/status. The scope's
// managers move the event through its lifecycle directly, including
// draft to pending (submission) and published to hidden.
func (h *Handler) ServeSetStatus(w http.ResponseWriter, r *http.Request) {
	eventID, err := urlID(r, "eventID")
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

	ev, allowed, err := h.loadManaged(ctx, res.Caps, eventID)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	if !allowed {
		httpjson.Error(w, h.Log, apperr.Forbidden("management rights over this event required"))
		return
	}

	if err := h.Events.SetStatus(ctx, eventID, ev.InstitutionID, req.Status); err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	h.Audit.StatusChanged(ctx, r, res.Caps.UserID, &ev.InstitutionID, "event", eventID.Hex(), req.Status)
	httpjson.OK(w, map[string]any{"status": req.Status})
}

// ServeDelete handles DELETE /api/events/{eventID}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	eventID, err := urlID(r, "eventID")
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

	ev, allowed, err := h.loadManaged(ctx, res.Caps, eventID)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	if !allowed {
		httpjson.Error(w, h.Log, apperr.Forbidden("management rights over this event required"))
		return
	}

	if err := h.Events.Delete(ctx, eventID, ev.InstitutionID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, h.Log, apperr.NotFound("event not found"))
			return
		}
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	httpjson.OK(w, map[string]any{"deleted": eventID.Hex()})
}

// ServeListForClub handles GET /api/clubs/{clubID}/events.
func (h *Handler) ServeListForClub(w http.ResponseWriter, r *http.Request) {
	clubID, err := urlID(r, "clubID")
	if err != nil {
		httpjson.Error(w, h.Log, err)
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

	h.list(ctx, w, r, club.InstitutionID, &clubID)
}

// ServeListForInstitution handles GET
// /api/institutions/{institutionID}/events.
func (h *Handler) ServeListForInstitution(w http.ResponseWriter, r *http.Request) {
	instID, err := urlID(r, "institutionID")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	h.list(ctx, w, r, instID, nil)
}

// list returns published events to everyone; ?all=1 returns every
// status to callers with management rights over the scope.
func (h *Handler) list(ctx context.Context, w http.ResponseWriter, r *http.Request, instID primitive.ObjectID, clubID *primitive.ObjectID) {
	var (
		events []models.Event
		err    error
	)
	if r.URL.Query().Get("all") != "" {
		res := gates.RequireAuth(w, r, h.Deriver, h.Log)
		if !res.OK {
			return
		}
		allowed, perr := clubpolicy.CanManagePost(ctx, h.DB, res.Caps, instID, clubID)
		if perr != nil {
			httpjson.Error(w, h.Log, apperr.Internal(perr))
			return
		}
		if !allowed {
			httpjson.Error(w, h.Log, apperr.Forbidden("management rights required to list unpublished events"))
			return
		}
		events, err = h.Events.ListAll(ctx, instID, clubID, paging.Limit(r))
	} else {
		events, err = h.Events.ListPublished(ctx, instID, clubID, paging.Limit(r))
	}
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Internal(err))
		return
	}

	out := make([]map[string]any, 0, len(events))
	for i := range events {
		out = append(out, eventPayload(events[i]))
	}
	httpjson.OK(w, map[string]any{"events": out})
}

// loadManaged fetches the event and resolves whether the caller can
// manage it. A missing event comes back as a NotFound apperr.
func (h *Handler) loadManaged(ctx context.Context, caps authz.Capabilities, eventID primitive.ObjectID) (*models.Event, bool, error) {
	ev, err := h.Events.GetByID(ctx, eventID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, apperr.NotFound("event not found")
	}
	if err != nil {
		return nil, false, apperr.Internal(err)
	}
	allowed, err := clubpolicy.CanManagePost(ctx, h.DB, caps, ev.InstitutionID, ev.ClubID)
	if err != nil {
		return nil, false, apperr.Internal(err)
	}
	return ev, allowed, nil
}

func eventPayload(ev models.Event) map[string]any {
	p := map[string]any{
		"id":             ev.ID.Hex(),
		"institution_id": ev.InstitutionID.Hex(),
		"title":          ev.Title,
		"description":    ev.Description,
		"status":         ev.Status,
	}
	if ev.ClubID != nil {
		p["club_id"] = ev.ClubID.Hex()
	}
	if ev.StartsAt != nil {
		p["starts_at"] = ev.StartsAt.UTC()
	}
	return p
}
