// internal/app/bootstrap/seed.go
package bootstrap

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	userstore "github.com/campushq/campushub/internal/app/store/users"
	"github.com/campushq/campushub/internal/app/system/credential"
	"github.com/campushq/campushub/internal/app/system/status"
	"github.com/campushq/campushub/internal/domain/models"
)

// ensureSuperAdmin runs once at startup. If a super admin already
// exists it is optionally hardened (protected + active) without
// touching identity fields. If none exists and the config carries
// enough to create one, it is created protected. Insufficient config
// or a taken email skips the seed silently; the platform still works,
// it just has no super admin yet.
func ensureSuperAdmin(ctx context.Context, users *userstore.Store, cfg AppConfig, logger *zap.Logger) error {
	existing, err := users.GetSuperAdmin(ctx)
	if err == nil {
		if cfg.HardenExisting {
			if err := users.Harden(ctx, existing.ID); err != nil {
				return err
			}
			logger.Info("hardened existing super admin",
				zap.String("user_id", existing.ID.Hex()))
		}
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	if cfg.SuperAdminEmail == "" {
		logger.Info("no super admin exists and superadmin_email is unset; skipping seed")
		return nil
	}

	taken, err := users.EmailExists(ctx, cfg.SuperAdminEmail)
	if err != nil {
		return err
	}
	if taken {
		logger.Warn("superadmin_email is already taken by another account; skipping seed",
			zap.String("email", cfg.SuperAdminEmail))
		return nil
	}

	hash := cfg.SuperAdminPasswordHash
	if hash == "" {
		if cfg.SuperAdminPassword == "" {
			logger.Warn("superadmin_email set without password or hash; skipping seed")
			return nil
		}
		hash, err = credential.Hash(cfg.SuperAdminPassword)
		if err != nil {
			return err
		}
	}

	u, err := users.Create(ctx, models.User{
		FullName:   "Platform Admin",
		Email:      cfg.SuperAdminEmail,
		SecretHash: hash,
		Role:       status.RoleSuperAdmin,
		Status:     status.Active,
		Protected:  true,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		logger.Warn("superadmin_email is already taken by another account; skipping seed",
			zap.String("email", cfg.SuperAdminEmail))
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("seeded super admin account",
		zap.String("user_id", u.ID.Hex()),
		zap.String("email", u.Email))
	return nil
}
