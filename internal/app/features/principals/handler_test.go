// internal/app/features/principals/handler_test.go
package principals_test

import (
	"net/http"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/campushq/campushub/internal/app/features/principals"
	advisorystore "github.com/campushq/campushub/internal/app/store/advisories"
	clubmemberstore "github.com/campushq/campushub/internal/app/store/clubmembers"
	institutionstore "github.com/campushq/campushub/internal/app/store/institutions"
	membershipstore "github.com/campushq/campushub/internal/app/store/memberships"
	sessionstore "github.com/campushq/campushub/internal/app/store/sessions"
	staffstore "github.com/campushq/campushub/internal/app/store/staff"
	userstore "github.com/campushq/campushub/internal/app/store/users"
	"github.com/campushq/campushub/internal/app/system/authz"
	"github.com/campushq/campushub/internal/app/system/status"
	"github.com/campushq/campushub/internal/testutil"
)

func newTestHandler(t *testing.T) (*principals.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	deriver := authz.NewDeriver(institutionstore.New(db), clubmemberstore.New(db), advisorystore.New(db), staffstore.New(db))
	h := principals.NewHandler(
		userstore.New(db),
		institutionstore.New(db),
		membershipstore.New(db),
		sessionstore.New(db),
		db,
		deriver,
		nil,
		zap.NewNop(),
	)
	return h, db
}

func TestRegister(t *testing.T) {
	h, db := newTestHandler(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)
	router := principals.Routes(h)

	// An institution with a matching email domain picks up the new
	// account as a pending member.
	inst := f.CreateInstitutionWithStatus(ctx, "Domain U", status.Approved)
	if err := db.Collection("institutions").FindOneAndUpdate(ctx,
		map[string]any{"_id": inst.ID},
		map[string]any{"$set": map[string]any{"email_domain": "domain.edu"}},
	).Err(); err != nil {
		t.Fatalf("set email_domain: %v", err)
	}

	req := testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{
		"full_name": "New Student",
		"email":     "new@domain.edu",
		"password":  "hunter2hunter2",
		"role":      status.RoleStudent,
	})
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var resp struct {
		User struct {
			ID     string `json:"id"`
			Role   string `json:"role"`
			Status string `json:"status"`
		} `json:"user"`
		Membership *struct {
			InstitutionID string `json:"institution_id"`
			Status        string `json:"status"`
		} `json:"membership"`
	}
	rec.DecodeJSON(t, &resp)
	if resp.User.Status != status.Active {
		t.Errorf("new account status = %q, want %q", resp.User.Status, status.Active)
	}
	if resp.Membership == nil {
		t.Fatal("expected an automatic membership application")
	}
	if resp.Membership.InstitutionID != inst.ID.Hex() {
		t.Errorf("membership institution = %s, want %s", resp.Membership.InstitutionID, inst.ID.Hex())
	}
	if resp.Membership.Status != status.Pending {
		t.Errorf("membership status = %q, want %q", resp.Membership.Status, status.Pending)
	}

	// The same email cannot register twice.
	req = testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{
		"full_name": "Copy Cat",
		"email":     "NEW@domain.edu",
		"password":  "hunter2hunter2",
		"role":      status.RoleStudent,
	})
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusConflict)

	// Nobody registers as an institution or super admin.
	req = testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{
		"full_name": "Sneaky",
		"email":     "sneak@domain.edu",
		"password":  "hunter2hunter2",
		"role":      status.RoleSuperAdmin,
	})
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeGetSelfOrAdmin(t *testing.T) {
	h, db := newTestHandler(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)
	router := principals.Routes(h)

	alice := f.CreateUser(ctx, "Alice", "alice@get.edu", status.RoleStudent)
	bob := f.CreateUser(ctx, "Bob", "bob@get.edu", status.RoleStudent)

	alicePrincipal := testutil.TestPrincipal{
		ID: alice.ID, Name: alice.FullName, Email: alice.Email, Role: status.RoleStudent,
	}

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/"+alice.ID.Hex(), alicePrincipal)
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "alice@get.edu")

	// Other users' records read as not found.
	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/"+bob.ID.Hex(), alicePrincipal)
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)

	// The super admin reads anyone.
	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/"+bob.ID.Hex(), testutil.SuperAdminPrincipal())
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "bob@get.edu")
}

func TestProtectedMutations(t *testing.T) {
	h, db := newTestHandler(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)
	router := principals.Routes(h)

	protected := f.CreateProtectedUser(ctx, "root@protect.edu")
	regular := f.CreateUser(ctx, "Regular", "reg@protect.edu", status.RoleStudent)
	admin := testutil.SuperAdminPrincipal()

	// Disabling a protected account is blocked.
	req := testutil.NewJSONRequest(t, http.MethodPost, "/"+protected.ID.Hex()+"/status",
		map[string]any{"status": status.Disabled})
	req = testutil.WithPrincipal(req, admin)
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)

	// Deleting it is blocked too.
	req = testutil.NewAuthenticatedRequest(http.MethodDelete, "/"+protected.ID.Hex(), admin)
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)

	// A regular account can be disabled and its sessions die with it.
	if _, err := h.Sessions.Create(ctx, regular.ID); err != nil {
		t.Fatalf("Create session: %v", err)
	}
	req = testutil.NewJSONRequest(t, http.MethodPost, "/"+regular.ID.Hex()+"/status",
		map[string]any{"status": status.Disabled})
	req = testutil.WithPrincipal(req, admin)
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	n, err := db.Collection("sessions").CountDocuments(ctx, map[string]any{"user_id": regular.ID})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 0 {
		t.Errorf("expected all sessions revoked, found %d", n)
	}

	// Students never reach these endpoints at all.
	req = testutil.NewJSONRequest(t, http.MethodPost, "/"+regular.ID.Hex()+"/status",
		map[string]any{"status": status.Active})
	req = testutil.WithPrincipal(req, testutil.StudentPrincipal())
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestServeSetStatusByInstitutionAdmin(t *testing.T) {
	h, db := newTestHandler(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)
	router := principals.Routes(h)

	inst := f.CreateInstitution(ctx, "Status U")
	other := f.CreateInstitution(ctx, "Elsewhere U")
	admin := f.CreateInstitutionAdmin(ctx, "admin@status.edu", inst.ID)
	member := f.CreateUser(ctx, "Member", "member@status.edu", status.RoleStudent)
	outsider := f.CreateUser(ctx, "Outsider", "out@status.edu", status.RoleStudent)
	applicant := f.CreateUser(ctx, "Applicant", "app@status.edu", status.RoleStudent)
	f.CreateMembership(ctx, member.ID, inst.ID, status.KindStudent, status.Active)
	f.CreateMembership(ctx, outsider.ID, other.ID, status.KindStudent, status.Active)
	f.CreateMembership(ctx, applicant.ID, inst.ID, status.KindStudent, status.Pending)

	adminPrincipal := testutil.TestPrincipal{
		ID:            admin.ID,
		Name:          admin.FullName,
		Email:         admin.Email,
		Role:          status.RoleInstitution,
		InstitutionID: &inst.ID,
	}

	// An active member of the admin's institution can be disabled.
	req := testutil.NewJSONRequest(t, http.MethodPost, "/"+member.ID.Hex()+"/status",
		map[string]any{"status": status.Disabled})
	req = testutil.WithPrincipal(req, adminPrincipal)
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	got, err := h.Users.GetByID(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != status.Disabled {
		t.Errorf("member status = %q, want %q", got.Status, status.Disabled)
	}

	// Members of other institutions are out of scope.
	req = testutil.NewJSONRequest(t, http.MethodPost, "/"+outsider.ID.Hex()+"/status",
		map[string]any{"status": status.Disabled})
	req = testutil.WithPrincipal(req, adminPrincipal)
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)

	// So are members whose edge is still pending.
	req = testutil.NewJSONRequest(t, http.MethodPost, "/"+applicant.ID.Hex()+"/status",
		map[string]any{"status": status.Disabled})
	req = testutil.WithPrincipal(req, adminPrincipal)
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeSetEmail(t *testing.T) {
	h, db := newTestHandler(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)
	router := principals.Routes(h)

	user := f.CreateUser(ctx, "Mover", "old@mail.edu", status.RoleStudent)
	userPrincipal := testutil.TestPrincipal{
		ID: user.ID, Name: user.FullName, Email: user.Email, Role: status.RoleStudent,
	}

	req := testutil.NewJSONRequest(t, http.MethodPost, "/"+user.ID.Hex()+"/email",
		map[string]any{"email": "new@mail.edu"})
	req = testutil.WithPrincipal(req, userPrincipal)
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	got, err := h.Users.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Email != "new@mail.edu" {
		t.Errorf("email = %q, want new@mail.edu", got.Email)
	}

	// A protected account refuses the change without re-authentication.
	protected := f.CreateProtectedUser(ctx, "root@mail.edu")
	req = testutil.NewJSONRequest(t, http.MethodPost, "/"+protected.ID.Hex()+"/email",
		map[string]any{"email": "other@mail.edu"})
	req = testutil.WithPrincipal(req, testutil.SuperAdminPrincipal())
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)
}
