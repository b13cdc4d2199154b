// internal/app/store/memberships/membershipstore_test.go
package membershipstore_test

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	membershipstore "github.com/campushq/campushub/internal/app/store/memberships"
	"github.com/campushq/campushub/internal/app/system/indexes"
	"github.com/campushq/campushub/internal/app/system/status"
	"github.com/campushq/campushub/internal/domain/models"
	"github.com/campushq/campushub/internal/testutil"
)

func TestAddRejectsDuplicateEdge(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	store := membershipstore.New(db)

	userID := primitive.NewObjectID()
	instID := primitive.NewObjectID()

	m, err := store.Add(ctx, userID, instID, status.KindStudent)
	if err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if m.Status != status.Pending {
		t.Errorf("new edge status = %q, want %q", m.Status, status.Pending)
	}

	// Same pair, even with a different kind, is still one edge.
	if _, err := store.Add(ctx, userID, instID, status.KindEmployee); !errors.Is(err, membershipstore.ErrDuplicateMembership) {
		t.Errorf("second Add err = %v, want ErrDuplicateMembership", err)
	}
}

func TestAddRejectsBadKind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := membershipstore.New(db)

	if _, err := store.Add(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "alumnus"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestSetStatusScopedToInstitution(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := membershipstore.New(db)

	userID := primitive.NewObjectID()
	instID := primitive.NewObjectID()
	if _, err := store.Add(ctx, userID, instID, status.KindStudent); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// A different institution in the filter matches nothing.
	err := store.SetStatus(ctx, userID, primitive.NewObjectID(), status.Active)
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("cross-institution SetStatus err = %v, want ErrNoDocuments", err)
	}

	if err := store.SetStatus(ctx, userID, instID, status.Active); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if ok, err := store.HasActive(ctx, userID, instID); err != nil || !ok {
		t.Errorf("HasActive = %v, %v; want true", ok, err)
	}
}

func TestHasActiveIgnoresPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := membershipstore.New(db)

	userID := primitive.NewObjectID()
	instID := primitive.NewObjectID()
	if _, err := store.Add(ctx, userID, instID, status.KindStudent); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if ok, _ := store.HasActive(ctx, userID, instID); ok {
		t.Error("pending edge should not count as active")
	}
}

func TestListForInstitutionTreatsLegacyEdgesAsPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := membershipstore.New(db)

	instID := primitive.NewObjectID()
	legacyUser := primitive.NewObjectID()

	// Pre-approval-flow edges carry no status field at all.
	now := time.Now().UTC()
	if _, err := db.Collection("memberships").InsertOne(ctx, models.Membership{
		ID:            primitive.NewObjectID(),
		UserID:        legacyUser,
		InstitutionID: instID,
		Kind:          status.KindMemberOf,
		CreatedAt:     now,
		UpdatedAt:     now,
	}); err != nil {
		t.Fatalf("insert legacy edge: %v", err)
	}
	if _, err := store.Add(ctx, primitive.NewObjectID(), instID, status.KindStudent); err != nil {
		t.Fatalf("Add: %v", err)
	}

	pending, err := store.ListForInstitution(ctx, instID, status.Pending, 0)
	if err != nil {
		t.Fatalf("ListForInstitution: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("len(pending) = %d, want 2 (legacy edge included)", len(pending))
	}
	for _, m := range pending {
		if m.Status != status.Pending {
			t.Errorf("edge %s status = %q, want normalized %q", m.UserID.Hex(), m.Status, status.Pending)
		}
	}
}

func TestListForInstitutionHonorsLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := membershipstore.New(db)

	instID := primitive.NewObjectID()
	for i := 0; i < 5; i++ {
		if _, err := store.Add(ctx, primitive.NewObjectID(), instID, status.KindStudent); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	got, err := store.ListForInstitution(ctx, instID, "", 3)
	if err != nil {
		t.Fatalf("ListForInstitution: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
}
