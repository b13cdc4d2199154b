// internal/app/bootstrap/seed_test.go
package bootstrap

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	userstore "github.com/campushq/campushub/internal/app/store/users"
	"github.com/campushq/campushub/internal/app/system/credential"
	"github.com/campushq/campushub/internal/app/system/indexes"
	"github.com/campushq/campushub/internal/app/system/status"
	"github.com/campushq/campushub/internal/domain/models"
	"github.com/campushq/campushub/internal/testutil"
)

func TestEnsureSuperAdminSeedsAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	users := userstore.New(db)

	cfg := AppConfig{
		SuperAdminEmail:    "root@campushub.test",
		SuperAdminPassword: "first-login-secret",
	}
	if err := ensureSuperAdmin(ctx, users, cfg, zap.NewNop()); err != nil {
		t.Fatalf("ensureSuperAdmin: %v", err)
	}

	u, err := users.GetSuperAdmin(ctx)
	if err != nil {
		t.Fatalf("GetSuperAdmin after seed: %v", err)
	}
	if u.Email != "root@campushub.test" {
		t.Errorf("email = %q", u.Email)
	}
	if !u.Protected {
		t.Error("seeded super admin should be protected")
	}
	if u.Status != status.Active {
		t.Errorf("status = %q, want %q", u.Status, status.Active)
	}
	if !credential.Verify(u.SecretHash, "first-login-secret") {
		t.Error("seeded password does not verify")
	}

	// A second run must not create a second account.
	if err := ensureSuperAdmin(ctx, users, cfg, zap.NewNop()); err != nil {
		t.Fatalf("second ensureSuperAdmin: %v", err)
	}
	n, err := db.Collection("users").CountDocuments(ctx, bson.M{"role": status.RoleSuperAdmin})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 1 {
		t.Errorf("super admin count = %d, want 1", n)
	}
}

func TestEnsureSuperAdminHardensExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	users := userstore.New(db)

	existing, err := users.Create(ctx, models.User{
		FullName:   "Legacy Admin",
		Email:      "legacy@campushub.test",
		SecretHash: "x",
		Role:       status.RoleSuperAdmin,
		Status:     status.Disabled,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	cfg := AppConfig{HardenExisting: true}
	if err := ensureSuperAdmin(ctx, users, cfg, zap.NewNop()); err != nil {
		t.Fatalf("ensureSuperAdmin: %v", err)
	}

	u, err := users.GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !u.Protected {
		t.Error("existing super admin should be protected after hardening")
	}
	if u.Status != status.Active {
		t.Errorf("status = %q, want %q", u.Status, status.Active)
	}
}

func TestEnsureSuperAdminSkipsTakenEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	users := userstore.New(db)

	if _, err := users.Create(ctx, models.User{
		FullName:   "Some Student",
		Email:      "taken@campushub.test",
		SecretHash: "x",
		Role:       status.RoleStudent,
		Status:     status.Active,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	cfg := AppConfig{
		SuperAdminEmail:    "taken@campushub.test",
		SuperAdminPassword: "whatever",
	}
	if err := ensureSuperAdmin(ctx, users, cfg, zap.NewNop()); err != nil {
		t.Fatalf("ensureSuperAdmin: %v", err)
	}
	if _, err := users.GetSuperAdmin(ctx); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected no super admin, got err=%v", err)
	}
}

func TestEnsureSuperAdminSkipsWithoutConfig(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	users := userstore.New(db)

	if err := ensureSuperAdmin(ctx, users, AppConfig{}, zap.NewNop()); err != nil {
		t.Fatalf("ensureSuperAdmin: %v", err)
	}
	if _, err := users.GetSuperAdmin(ctx); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected no super admin, got err=%v", err)
	}
}
