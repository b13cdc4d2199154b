// internal/app/store/institutions/store_test.go
package institutionstore_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	institutionstore "github.com/campushq/campushub/internal/app/store/institutions"
	"github.com/campushq/campushub/internal/app/system/status"
	"github.com/campushq/campushub/internal/domain/models"
	"github.com/campushq/campushub/internal/testutil"
)

func TestListFiltersByNamePrefix(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)
	store := institutionstore.New(db)

	f.CreateInstitution(ctx, "Riverside College")
	f.CreateInstitution(ctx, "Río Grande Tech")
	f.CreateInstitution(ctx, "Oak State University")

	got, err := store.List(ctx, status.Approved, "ri", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (folded prefix should match the accented name)", len(got))
	}
	for _, inst := range got {
		if inst.Name == "Oak State University" {
			t.Error("prefix filter leaked a non-matching institution")
		}
	}

	limited, err := store.List(ctx, status.Approved, "", 2)
	if err != nil {
		t.Fatalf("List with limit: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("len = %d, want 2 with limit", len(limited))
	}
}

func TestGetByDomain(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := institutionstore.New(db)

	riverside, err := store.Create(ctx, models.Institution{
		Name:        "Riverside College",
		EmailDomain: "riverside.edu",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, models.Institution{
		Name:        "Oak State University",
		EmailDomain: "oakstate.edu",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	exact, err := store.GetByDomain(ctx, "riverside.edu")
	if err != nil {
		t.Fatalf("GetByDomain exact: %v", err)
	}
	if exact.ID != riverside.ID {
		t.Errorf("exact match resolved %q, want Riverside", exact.Name)
	}

	// A departmental subdomain still resolves to the registered domain.
	sub, err := store.GetByDomain(ctx, "eng.riverside.edu")
	if err != nil {
		t.Fatalf("GetByDomain subdomain: %v", err)
	}
	if sub.ID != riverside.ID {
		t.Errorf("subdomain match resolved %q, want Riverside", sub.Name)
	}

	if _, err := store.GetByDomain(ctx, "elsewhere.edu"); err != mongo.ErrNoDocuments {
		t.Errorf("unknown domain: err = %v, want ErrNoDocuments", err)
	}
}
