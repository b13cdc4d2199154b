// internal/app/features/announcements/routes.go
package announcements

import (
	"github.com/go-chi/chi/v5"

	"github.com/campushq/campushub/internal/app/system/status"
)

// Routes wires the announcement endpoints onto a chi router. The
// caller mounts this under /api/announcements.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Route("/{announcementID}", func(r chi.Router) {
		r.Post("/approve", h.ServeDecide(status.Approved))
		r.Post("/reject", h.ServeDecide(status.Rejected))
		r.Post("/status", h.ServeSetStatus)
		r.Delete("/", h.ServeDelete)
	})

	return r
}

// ClubRoutes wires the club-scoped announcement endpoints. The caller
// mounts this under /api/clubs/{clubID}/announcements.
func ClubRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeCreate)
	r.Get("/", h.ServeList)
	return r
}
