// internal/app/features/authn/routes.go
package authn

import "github.com/go-chi/chi/v5"

// Routes returns the router for authentication endpoints, mounted
// under /api/auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.ServeLogin)
	r.Post("/login/institution", h.ServeInstitutionLogin)
	r.Post("/logout", h.ServeLogout)
	r.Get("/session", h.ServeSession)

	return r
}
