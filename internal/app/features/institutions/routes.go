// internal/app/features/institutions/routes.go
package institutions

import (
	"github.com/go-chi/chi/v5"

	"github.com/campushq/campushub/internal/app/system/status"
)

// Routes wires the institution endpoints onto a chi router. The caller
// mounts this under /api/institutions. Club and event routers nest
// under /{institutionID} so their URL parameters resolve; either may
// be nil.
func Routes(h *Handler, clubRoutes, eventRoutes chi.Router) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.ServeApply)
	r.Get("/", h.ServeList)

	r.Route("/{institutionID}", func(r chi.Router) {
		r.Get("/", h.ServeGet)
		r.Post("/approve", h.ServeDecide(status.Approved))
		r.Post("/reject", h.ServeDecide(status.Rejected))
		r.Post("/join", h.ServeJoin)
		r.Get("/members", h.ServeMembers)
		r.Post("/members/{userID}/approve", h.ServeMemberDecide(status.Approved))
		r.Post("/members/{userID}/reject", h.ServeMemberDecide(status.Rejected))
		r.Post("/staff", h.ServeAssignStaff)
		r.Get("/staff", h.ServeStaff)

		if clubRoutes != nil {
			r.Mount("/clubs", clubRoutes)
		}
		if eventRoutes != nil {
			r.Mount("/events", eventRoutes)
		}
	})

	return r
}
