// internal/app/features/principals/routes.go
package principals

import "github.com/go-chi/chi/v5"

// Routes wires the user account endpoints onto a chi router. The
// caller mounts this under /api/users.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.ServeRegister)
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", h.ServeGet)
		r.Post("/status", h.ServeSetStatus)
		r.Post("/email", h.ServeSetEmail)
		r.Delete("/", h.ServeDelete)
	})

	return r
}
