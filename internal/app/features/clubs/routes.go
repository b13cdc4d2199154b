// internal/app/features/clubs/routes.go
package clubs

import (
	"github.com/go-chi/chi/v5"

	"github.com/campushq/campushub/internal/app/system/status"
)

// Routes wires the club endpoints onto a chi router. The caller mounts
// this under /api/clubs. Event and announcement routers nest under
// /{clubID} so their URL parameters resolve; either may be nil.
func Routes(h *Handler, eventRoutes, announcementRoutes chi.Router) chi.Router {
	r := chi.NewRouter()

	r.Route("/{clubID}", func(r chi.Router) {
		r.Get("/", h.ServeGet)
		r.Post("/approve", h.ServeDecide(status.Approved))
		r.Post("/reject", h.ServeDecide(status.Rejected))
		r.Post("/status", h.ServeSetStatus)
		r.Post("/members", h.ServeJoin)
		r.Get("/members", h.ServeMembers)
		r.Post("/officer", h.ServeAssignOfficer)
		r.Post("/advisor", h.ServeAssignAdvisor)
		r.Get("/advisors", h.ServeAdvisors)

		if eventRoutes != nil {
			r.Mount("/events", eventRoutes)
		}
		if announcementRoutes != nil {
			r.Mount("/announcements", announcementRoutes)
		}
	})

	return r
}

// InstitutionRoutes wires the institution-scoped club endpoints. The
// caller mounts this under /api/institutions/{institutionID}/clubs.
func InstitutionRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeCreate)
	r.Get("/", h.ServeListForInstitution)
	return r
}
