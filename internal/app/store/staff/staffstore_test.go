// internal/app/store/staff/staffstore_test.go
package staffstore_test

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	staffstore "github.com/campushq/campushub/internal/app/store/staff"
	"github.com/campushq/campushub/internal/app/system/indexes"
	"github.com/campushq/campushub/internal/testutil"
)

func TestAssignRejectsDuplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	store := staffstore.New(db)

	userID := primitive.NewObjectID()
	instID := primitive.NewObjectID()

	if err := store.Assign(ctx, userID, instID); err != nil {
		t.Fatalf("first Assign: %v", err)
	}
	if err := store.Assign(ctx, userID, instID); !errors.Is(err, staffstore.ErrAlreadyAssigned) {
		t.Errorf("second Assign err = %v, want ErrAlreadyAssigned", err)
	}

	// The same user at another institution is a distinct edge.
	if err := store.Assign(ctx, userID, primitive.NewObjectID()); err != nil {
		t.Errorf("Assign at second institution: %v", err)
	}
}

func TestStaffScopes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := staffstore.New(db)

	userID := primitive.NewObjectID()
	instID := primitive.NewObjectID()
	if err := store.Assign(ctx, userID, instID); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	ids, err := store.InstitutionIDsForUser(ctx, userID)
	if err != nil {
		t.Fatalf("InstitutionIDsForUser: %v", err)
	}
	if len(ids) != 1 || ids[0] != instID {
		t.Errorf("InstitutionIDsForUser = %v, want [%s]", ids, instID.Hex())
	}

	list, err := store.ListForInstitution(ctx, instID)
	if err != nil {
		t.Fatalf("ListForInstitution: %v", err)
	}
	if len(list) != 1 || list[0].UserID != userID {
		t.Errorf("ListForInstitution = %v, want one edge for %s", list, userID.Hex())
	}
	if other, _ := store.ListForInstitution(ctx, primitive.NewObjectID()); len(other) != 0 {
		t.Errorf("ListForInstitution at an unrelated institution = %v, want empty", other)
	}
}
