// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	announcementsfeature "github.com/campushq/campushub/internal/app/features/announcements"
	authnfeature "github.com/campushq/campushub/internal/app/features/authn"
	clubsfeature "github.com/campushq/campushub/internal/app/features/clubs"
	diagfeature "github.com/campushq/campushub/internal/app/features/diag"
	eventsfeature "github.com/campushq/campushub/internal/app/features/events"
	healthfeature "github.com/campushq/campushub/internal/app/features/health"
	institutionsfeature "github.com/campushq/campushub/internal/app/features/institutions"
	principalsfeature "github.com/campushq/campushub/internal/app/features/principals"
	advisorystore "github.com/campushq/campushub/internal/app/store/advisories"
	announcementstore "github.com/campushq/campushub/internal/app/store/announcements"
	"github.com/campushq/campushub/internal/app/store/audit"
	clubmemberstore "github.com/campushq/campushub/internal/app/store/clubmembers"
	clubstore "github.com/campushq/campushub/internal/app/store/clubs"
	eventstore "github.com/campushq/campushub/internal/app/store/events"
	institutionstore "github.com/campushq/campushub/internal/app/store/institutions"
	membershipstore "github.com/campushq/campushub/internal/app/store/memberships"
	sessionstore "github.com/campushq/campushub/internal/app/store/sessions"
	staffstore "github.com/campushq/campushub/internal/app/store/staff"
	userstore "github.com/campushq/campushub/internal/app/store/users"
	"github.com/campushq/campushub/internal/app/system/auditlog"
	"github.com/campushq/campushub/internal/app/system/auth"
	"github.com/campushq/campushub/internal/app/system/authz"
	"github.com/campushq/campushub/internal/app/system/limits"
	"github.com/campushq/campushub/internal/app/system/ratelimit"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and the Startup hook have completed. Every store shares the single
// Mongo database handle; the principal-loading middleware runs on every
// request so handlers can ask auth.CurrentPrincipal(r) at any point.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	users := userstore.New(db)
	institutions := institutionstore.New(db)
	memberships := membershipstore.New(db)
	clubs := clubstore.New(db)
	clubMembers := clubmemberstore.New(db)
	advisories := advisorystore.New(db)
	staff := staffstore.New(db)
	events := eventstore.New(db)
	announcements := announcementstore.New(db)
	sessions := sessionstore.New(db)

	deriver := authz.NewDeriver(institutions, clubMembers, advisories, staff)
	resolver := auth.NewResolver(sessions, users, institutions, logger)
	auditor := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
	limiter := ratelimit.NewLoginLimiter()

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(limits.RequestBody(limits.MaxJSONBody))

	// Resolve the session cookie to a principal on every request.
	r.Use(auth.LoadPrincipal(resolver, logger))

	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	diagHandler := diagfeature.NewHandler(db, logger)
	r.Mount("/diag", diagfeature.Routes(diagHandler))

	authnHandler := authnfeature.NewHandler(users, institutions, sessions, deriver, auditor, limiter, logger)
	r.Mount("/api/auth", authnfeature.Routes(authnHandler))

	institutionsHandler := institutionsfeature.NewHandler(institutions, users, memberships, staff, db, deriver, auditor, logger)
	clubsHandler := clubsfeature.NewHandler(clubs, clubMembers, memberships, advisories, db, deriver, auditor, logger)
	eventsHandler := eventsfeature.NewHandler(events, clubs, db, deriver, auditor, logger)
	announcementsHandler := announcementsfeature.NewHandler(announcements, clubs, db, deriver, auditor, logger)
	principalsHandler := principalsfeature.NewHandler(users, institutions, memberships, sessions, db, deriver, auditor, logger)

	r.Mount("/api/institutions", institutionsfeature.Routes(institutionsHandler,
		clubsfeature.InstitutionRoutes(clubsHandler),
		eventsfeature.InstitutionRoutes(eventsHandler)))

	r.Mount("/api/clubs", clubsfeature.Routes(clubsHandler,
		eventsfeature.ClubRoutes(eventsHandler),
		announcementsfeature.ClubRoutes(announcementsHandler)))

	r.Mount("/api/events", eventsfeature.Routes(eventsHandler))
	r.Mount("/api/announcements", announcementsfeature.Routes(announcementsHandler))
	r.Mount("/api/users", principalsfeature.Routes(principalsHandler))

	return r, nil
}
