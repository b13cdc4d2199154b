// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	sessionstore "github.com/campushq/campushub/internal/app/store/sessions"
	userstore "github.com/campushq/campushub/internal/app/store/users"
	"github.com/campushq/campushub/internal/app/system/auth"
	"github.com/campushq/campushub/internal/app/system/workers"
)

// sessionCleanup is started in Startup and stopped in Shutdown.
var sessionCleanup *workers.SessionCleanup

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
// CampusHub initializes the cookie store, seeds the super admin, and
// starts the expired-session sweeper.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionDomain, secure, logger); err != nil {
		return err
	}

	if err := ensureSuperAdmin(ctx, userstore.New(deps.MongoDatabase), appCfg, logger); err != nil {
		return err
	}

	sessionCleanup = workers.NewSessionCleanup(sessionstore.New(deps.MongoDatabase), logger, time.Hour)
	sessionCleanup.Start()

	return nil
}
