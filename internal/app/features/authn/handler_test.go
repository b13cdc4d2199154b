package authn_test

import (
	"net/http"
	"testing"

	"github.com/campushq/campushub/internal/app/features/authn"
	advisorystore "github.com/campushq/campushub/internal/app/store/advisories"
	"github.com/campushq/campushub/internal/app/store/audit"
	clubmemberstore "github.com/campushq/campushub/internal/app/store/clubmembers"
	institutionstore "github.com/campushq/campushub/internal/app/store/institutions"
	sessionstore "github.com/campushq/campushub/internal/app/store/sessions"
	staffstore "github.com/campushq/campushub/internal/app/store/staff"
	userstore "github.com/campushq/campushub/internal/app/store/users"
	"github.com/campushq/campushub/internal/app/system/auditlog"
	"github.com/campushq/campushub/internal/app/system/auth"
	"github.com/campushq/campushub/internal/app/system/authz"
	"github.com/campushq/campushub/internal/app/system/credential"
	"github.com/campushq/campushub/internal/app/system/ratelimit"
	"github.com/campushq/campushub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*authn.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	if err := auth.InitSessionStore("test-session-key-32-characters!!", "", false, logger); err != nil {
		t.Fatalf("InitSessionStore failed: %v", err)
	}

	users := userstore.New(db)
	institutions := institutionstore.New(db)
	sessions := sessionstore.New(db)
	deriver := authz.NewDeriver(institutions, clubmemberstore.New(db), advisorystore.New(db), staffstore.New(db))
	auditor := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: "db", Admin: "db"})

	h := authn.NewHandler(users, institutions, sessions, deriver, auditor, ratelimit.NewLoginLimiter(), logger)
	return h, db
}

func seedUser(t *testing.T, db *mongo.Database, email, password string) {
	t.Helper()
	ctx := testutil.TestContext(t)

	hash, err := credential.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	f := testutil.NewFixtures(t, db)
	u := f.CreateUser(ctx, "Login Tester", email, "student")
	_, err = db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": u.ID},
		bson.M{"$set": bson.M{"secret_hash": hash}})
	if err != nil {
		t.Fatalf("set secret hash: %v", err)
	}
}

func TestServeLogin_Success(t *testing.T) {
	h, db := newTestHandler(t)
	seedUser(t, db, "login@example.edu", "correct-horse")

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "login@example.edu", "password": "correct-horse"})
	rec := testutil.NewRecorder()

	h.ServeLogin(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		OK   bool `json:"ok"`
		User struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	rec.DecodeJSON(t, &body)
	if !body.OK {
		t.Fatal("expected ok=true")
	}
	if body.User.Email != "login@example.edu" {
		t.Errorf("user email = %q", body.User.Email)
	}
	if body.User.Role != "student" {
		t.Errorf("user role = %q", body.User.Role)
	}

	// A server-side session must exist now.
	ctx := testutil.TestContext(t)
	n, err := db.Collection("sessions").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if n != 1 {
		t.Errorf("sessions count = %d, want 1", n)
	}
}

func TestServeLogin_WrongPassword(t *testing.T) {
	h, db := newTestHandler(t)
	seedUser(t, db, "wrongpw@example.edu", "right-password")

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "wrongpw@example.edu", "password": "not-the-password"})
	rec := testutil.NewRecorder()

	h.ServeLogin(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, "invalid email or password")
}

func TestServeLogin_RateLimited(t *testing.T) {
	h, db := newTestHandler(t)
	seedUser(t, db, "hammered@example.edu", "right-password")

	// The per-email window allows 5 attempts; the 6th must be refused
	// with 429 before credentials are even checked.
	for i := 0; i < 5; i++ {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/login",
			map[string]string{"email": "hammered@example.edu", "password": "wrong"})
		rec := testutil.NewRecorder()
		h.ServeLogin(rec.ResponseRecorder, req)
		rec.AssertStatus(t, http.StatusUnauthorized)
	}

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "hammered@example.edu", "password": "right-password"})
	rec := testutil.NewRecorder()
	h.ServeLogin(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusTooManyRequests)
	rec.AssertContains(t, "too many login attempts")
}

func TestServeLogin_UnknownUserSameAnswer(t *testing.T) {
	h, _ := newTestHandler(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "nobody@example.edu", "password": "whatever"})
	rec := testutil.NewRecorder()

	h.ServeLogin(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, "invalid email or password")
}

func TestServeLogin_DisabledAccount(t *testing.T) {
	h, db := newTestHandler(t)
	seedUser(t, db, "disabled@example.edu", "some-password")

	ctx := testutil.TestContext(t)
	if _, err := db.Collection("users").UpdateOne(ctx,
		bson.M{"email": "disabled@example.edu"},
		bson.M{"$set": bson.M{"status": "disabled"}}); err != nil {
		t.Fatalf("disable user: %v", err)
	}

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "disabled@example.edu", "password": "some-password"})
	rec := testutil.NewRecorder()

	h.ServeLogin(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusForbidden)
}

func TestServeLogin_BadInput(t *testing.T) {
	h, _ := newTestHandler(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "not-an-email", "password": ""})
	rec := testutil.NewRecorder()

	h.ServeLogin(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func seedInstitution(t *testing.T, db *mongo.Database, status, password string, withAccount bool) {
	t.Helper()
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)

	hash, err := credential.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	inst := f.CreateInstitutionWithStatus(ctx, "Domain College", status)
	if withAccount {
		acct := f.CreateInstitutionAdmin(ctx, "admin@example.edu", inst.ID)
		if _, err := db.Collection("users").UpdateOne(ctx,
			bson.M{"_id": acct.ID},
			bson.M{"$set": bson.M{"secret_hash": hash}}); err != nil {
			t.Fatalf("set account secret hash: %v", err)
		}
		return
	}
	if _, err := db.Collection("institutions").UpdateOne(ctx,
		bson.M{"_id": inst.ID},
		bson.M{"$set": bson.M{"secret_hash": hash}}); err != nil {
		t.Fatalf("set legacy secret hash: %v", err)
	}
}

func institutionLoginRequest(t *testing.T, password string) *http.Request {
	t.Helper()
	return testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/login/institution",
		map[string]string{"domain": "example.edu", "password": password})
}

func TestServeInstitutionLogin_Approved(t *testing.T) {
	h, db := newTestHandler(t)
	seedInstitution(t, db, "approved", "campus-secret", true)

	rec := testutil.NewRecorder()
	h.ServeInstitutionLogin(rec.ResponseRecorder, institutionLoginRequest(t, "campus-secret"))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Domain College")

	ctx := testutil.TestContext(t)
	n, err := db.Collection("sessions").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if n != 1 {
		t.Errorf("sessions count = %d, want 1", n)
	}
}

func TestServeInstitutionLogin_ApprovedLegacyCredential(t *testing.T) {
	h, db := newTestHandler(t)
	seedInstitution(t, db, "approved", "campus-secret", false)

	rec := testutil.NewRecorder()
	h.ServeInstitutionLogin(rec.ResponseRecorder, institutionLoginRequest(t, "campus-secret"))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Domain College")
}

func TestServeInstitutionLogin_UnapprovedAccount(t *testing.T) {
	for _, st := range []string{"pending", "rejected"} {
		t.Run(st, func(t *testing.T) {
			h, db := newTestHandler(t)
			seedInstitution(t, db, st, "campus-secret", true)

			rec := testutil.NewRecorder()
			h.ServeInstitutionLogin(rec.ResponseRecorder, institutionLoginRequest(t, "campus-secret"))

			rec.AssertStatus(t, http.StatusForbidden)
			rec.AssertContains(t, "not approved")
		})
	}
}

func TestServeInstitutionLogin_UnapprovedLegacyCredential(t *testing.T) {
	for _, st := range []string{"pending", "rejected"} {
		t.Run(st, func(t *testing.T) {
			h, db := newTestHandler(t)
			seedInstitution(t, db, st, "campus-secret", false)

			rec := testutil.NewRecorder()
			h.ServeInstitutionLogin(rec.ResponseRecorder, institutionLoginRequest(t, "campus-secret"))

			rec.AssertStatus(t, http.StatusForbidden)
			rec.AssertContains(t, "not approved")
		})
	}
}

func TestServeInstitutionLogin_WrongPassword(t *testing.T) {
	h, db := newTestHandler(t)
	seedInstitution(t, db, "approved", "campus-secret", true)

	rec := testutil.NewRecorder()
	h.ServeInstitutionLogin(rec.ResponseRecorder, institutionLoginRequest(t, "not-the-secret"))

	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, "invalid institution or password")
}

func TestServeInstitutionLogin_UnknownDomain(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := testutil.NewRecorder()
	h.ServeInstitutionLogin(rec.ResponseRecorder, institutionLoginRequest(t, "whatever"))

	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, "invalid institution or password")
}

func TestServeSession_Anonymous(t *testing.T) {
	h, _ := newTestHandler(t)

	req := testutil.NewRequest(http.MethodGet, "/api/auth/session")
	rec := testutil.NewRecorder()

	h.ServeSession(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Authenticated bool `json:"authenticated"`
	}
	rec.DecodeJSON(t, &body)
	if body.Authenticated {
		t.Error("expected authenticated=false")
	}
}

func TestServeSession_SignedIn(t *testing.T) {
	h, db := newTestHandler(t)
	f := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext(t)
	u := f.CreateUser(ctx, "Session Tester", "session@example.edu", "student")

	p := testutil.TestPrincipal{ID: u.ID, Name: u.FullName, Email: u.Email, Role: "student"}
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/auth/session", p)
	rec := testutil.NewRecorder()

	h.ServeSession(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "session@example.edu")
}

func TestServeLogout_WhenSignedOut(t *testing.T) {
	h, _ := newTestHandler(t)

	req := testutil.NewRequest(http.MethodPost, "/api/auth/logout")
	rec := testutil.NewRecorder()

	h.ServeLogout(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusOK)
}

func TestRoutes(t *testing.T) {
	h, _ := newTestHandler(t)
	if r := authn.Routes(h); r == nil {
		t.Fatal("Routes() returned nil")
	}
}
