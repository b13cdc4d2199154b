package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/campushq/campushub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateInstitution creates an approved test institution.
func (f *Fixtures) CreateInstitution(ctx context.Context, name string) models.Institution {
	f.t.Helper()
	return f.CreateInstitutionWithStatus(ctx, name, "approved")
}

// CreateInstitutionWithStatus creates a test institution in the given
// approval state.
func (f *Fixtures) CreateInstitutionWithStatus(ctx context.Context, name, status string) models.Institution {
	f.t.Helper()

	now := time.Now().UTC()
	inst := models.Institution{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Slug:        text.Fold(name),
		EmailDomain: "example.edu",
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("institutions").InsertOne(ctx, inst); err != nil {
		f.t.Fatalf("failed to create test institution: %v", err)
	}
	return inst
}

// CreateUser creates an active test user with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		Role:       role,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateInstitutionAdmin creates the institution-admin account for the
// given institution.
func (f *Fixtures) CreateInstitutionAdmin(ctx context.Context, email string, instID primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:            primitive.NewObjectID(),
		FullName:      "Institution Admin",
		FullNameCI:    text.Fold("Institution Admin"),
		Email:         email,
		Role:          "institution",
		Status:        "active",
		InstitutionID: &instID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create institution admin: %v", err)
	}
	return user
}

// CreateProtectedUser creates a protected super admin account.
func (f *Fixtures) CreateProtectedUser(ctx context.Context, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   "Super Admin",
		FullNameCI: text.Fold("Super Admin"),
		Email:      email,
		Role:       "super_admin",
		Status:     "active",
		Protected:  true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create protected user: %v", err)
	}
	return user
}

// CreateMembership creates an affiliation edge between user and
// institution in the given status.
func (f *Fixtures) CreateMembership(ctx context.Context, userID, instID primitive.ObjectID, kind, status string) models.Membership {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Membership{
		ID:            primitive.NewObjectID(),
		UserID:        userID,
		InstitutionID: instID,
		Kind:          kind,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}

// CreateClub creates a test club in the given approval state.
func (f *Fixtures) CreateClub(ctx context.Context, name string, instID primitive.ObjectID, status string) models.Club {
	f.t.Helper()

	now := time.Now().UTC()
	club := models.Club{
		ID:            primitive.NewObjectID(),
		InstitutionID: instID,
		Name:          name,
		NameCI:        text.Fold(name),
		Slug:          text.Fold(name),
		Description:   "Test club description",
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("clubs").InsertOne(ctx, club); err != nil {
		f.t.Fatalf("failed to create test club: %v", err)
	}
	return club
}

// CreateClubMembership links a user to a club with the given role.
func (f *Fixtures) CreateClubMembership(ctx context.Context, clubID, userID, instID primitive.ObjectID, role string) models.ClubMembership {
	f.t.Helper()

	now := time.Now().UTC()
	cm := models.ClubMembership{
		ID:            primitive.NewObjectID(),
		ClubID:        clubID,
		UserID:        userID,
		InstitutionID: instID,
		Role:          role,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("club_members").InsertOne(ctx, cm); err != nil {
		f.t.Fatalf("failed to create test club membership: %v", err)
	}
	return cm
}

// CreateAdvisory links an advisor to a club.
func (f *Fixtures) CreateAdvisory(ctx context.Context, clubID, userID, instID primitive.ObjectID) models.Advisory {
	f.t.Helper()

	a := models.Advisory{
		ID:            primitive.NewObjectID(),
		ClubID:        clubID,
		UserID:        userID,
		InstitutionID: instID,
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := f.db.Collection("advisories").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test advisory: %v", err)
	}
	return a
}

// CreateStaff marks a user as staff at an institution.
func (f *Fixtures) CreateStaff(ctx context.Context, userID, instID primitive.ObjectID) models.StaffAssignment {
	f.t.Helper()

	sa := models.StaffAssignment{
		ID:            primitive.NewObjectID(),
		UserID:        userID,
		InstitutionID: instID,
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := f.db.Collection("staff").InsertOne(ctx, sa); err != nil {
		f.t.Fatalf("failed to create test staff assignment: %v", err)
	}
	return sa
}
