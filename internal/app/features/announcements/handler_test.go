// internal/app/features/announcements/handler_test.go
package announcements_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/campushq/campushub/internal/app/features/announcements"
	advisorystore "github.com/campushq/campushub/internal/app/store/advisories"
	announcementstore "github.com/campushq/campushub/internal/app/store/announcements"
	clubmemberstore "github.com/campushq/campushub/internal/app/store/clubmembers"
	clubstore "github.com/campushq/campushub/internal/app/store/clubs"
	institutionstore "github.com/campushq/campushub/internal/app/store/institutions"
	staffstore "github.com/campushq/campushub/internal/app/store/staff"
	"github.com/campushq/campushub/internal/app/system/authz"
	"github.com/campushq/campushub/internal/app/system/status"
	"github.com/campushq/campushub/internal/testutil"
)

func newTestRouter(t *testing.T) (*announcements.Handler, chi.Router, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	deriver := authz.NewDeriver(institutionstore.New(db), clubmemberstore.New(db), advisorystore.New(db), staffstore.New(db))
	h := announcements.NewHandler(announcementstore.New(db), clubstore.New(db), db, deriver, nil, zap.NewNop())

	router := chi.NewRouter()
	router.Mount("/announcements", announcements.Routes(h))
	router.Mount("/clubs/{clubID}/announcements", announcements.ClubRoutes(h))
	return h, router, db
}

func TestCreateAndFeed(t *testing.T) {
	h, router, db := newTestRouter(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)
	inst := f.CreateInstitutionWithStatus(ctx, "Feed U", status.Approved)
	club := f.CreateClub(ctx, "Drama", inst.ID, status.Approved)

	officer := f.CreateUser(ctx, "Officer", "off@feed.edu", status.RoleStudent)
	f.CreateClubMembership(ctx, club.ID, officer.ID, inst.ID, status.ClubOfficer)
	officerPrincipal := testutil.TestPrincipal{
		ID: officer.ID, Name: officer.FullName, Email: officer.Email, Role: status.RoleStudent,
	}

	req := testutil.NewJSONRequest(t, http.MethodPost, "/clubs/"+club.ID.Hex()+"/announcements",
		map[string]any{"title": "Auditions Open", "body": "Sign up in the green room."})
	req = testutil.WithPrincipal(req, officerPrincipal)
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, status.Draft)

	// Drafts never reach the public feed.
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/clubs/"+club.ID.Hex()+"/announcements"))
	rec.AssertStatus(t, http.StatusOK)
	if strings.Contains(rec.Body.String(), "Auditions Open") {
		t.Errorf("draft announcement leaked to public feed: %s", rec.Body.String())
	}

	// Publish via the lifecycle, then it appears.
	a, err := h.Announcements.Create(ctx, club.ID, inst.ID, "Show Dates", "Opening night is Friday.")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := h.Announcements.SetStatus(ctx, a.ID, inst.ID, status.Published); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/clubs/"+club.ID.Hex()+"/announcements"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Show Dates")

	// The sanitizer strips script tags on write.
	req = testutil.NewJSONRequest(t, http.MethodPost, "/clubs/"+club.ID.Hex()+"/announcements",
		map[string]any{"title": "Sneaky", "body": `hello <script>alert("x")</script> world`})
	req = testutil.WithPrincipal(req, officerPrincipal)
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusCreated)
	if strings.Contains(rec.Body.String(), "<script>") {
		t.Errorf("script tag survived sanitization: %s", rec.Body.String())
	}
}

func TestDecide(t *testing.T) {
	h, router, db := newTestRouter(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)
	inst := f.CreateInstitutionWithStatus(ctx, "Decide U", status.Approved)
	admin := f.CreateInstitutionAdmin(ctx, "admin@decide.edu", inst.ID)
	club := f.CreateClub(ctx, "Band", inst.ID, status.Approved)

	a, err := h.Announcements.Create(ctx, club.ID, inst.ID, "Practice Moved", "Now on Tuesdays.")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	adminPrincipal := testutil.TestPrincipal{
		ID: admin.ID, Name: admin.FullName, Email: admin.Email,
		Role: status.RoleInstitution, InstitutionID: &inst.ID,
	}

	// Approving a draft is a conflict; it must be submitted first.
	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/announcements/"+a.ID.Hex()+"/approve", adminPrincipal)
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusConflict)

	if err := h.Announcements.SetStatus(ctx, a.ID, inst.ID, status.Pending); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	req = testutil.NewAuthenticatedRequest(http.MethodPost, "/announcements/"+a.ID.Hex()+"/approve", adminPrincipal)
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	got, err := h.Announcements.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != status.Published {
		t.Errorf("status = %q, want %q", got.Status, status.Published)
	}

	// Students without club rights cannot touch the lifecycle.
	req = testutil.NewAuthenticatedRequest(http.MethodPost, "/announcements/"+a.ID.Hex()+"/reject", testutil.StudentPrincipal())
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestDelete(t *testing.T) {
	h, router, db := newTestRouter(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)
	inst := f.CreateInstitutionWithStatus(ctx, "Delete U", status.Approved)
	club := f.CreateClub(ctx, "Yearbook", inst.ID, status.Approved)

	a, err := h.Announcements.Create(ctx, club.ID, inst.ID, "Old News", "Outdated.")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/announcements/"+a.ID.Hex(), testutil.SuperAdminPrincipal())
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	if _, err := h.Announcements.GetByID(ctx, a.ID); err != mongo.ErrNoDocuments {
		t.Errorf("expected announcement to be gone, got err=%v", err)
	}
}
