// internal/app/features/events/routes.go
package events

import (
	"github.com/go-chi/chi/v5"

	"github.com/campushq/campushub/internal/app/system/status"
)

// Routes wires the event endpoints onto a chi router. The caller
// mounts this under /api/events.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Route("/{eventID}", func(r chi.Router) {
		r.Get("/", h.ServeGet)
		r.Post("/approve", h.ServeDecide(status.Approved))
		r.Post("/reject", h.ServeDecide(status.Rejected))
		r.Post("/status", h.ServeSetStatus)
		r.Delete("/", h.ServeDelete)
	})

	return r
}

// ClubRoutes wires the club-scoped event endpoints. The caller mounts
// this under /api/clubs/{clubID}/events.
func ClubRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeCreateForClub)
	r.Get("/", h.ServeListForClub)
	return r
}

// InstitutionRoutes wires the institution-scoped event endpoints. The
// caller mounts this under /api/institutions/{institutionID}/events.
func InstitutionRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeCreateForInstitution)
	r.Get("/", h.ServeListForInstitution)
	return r
}
