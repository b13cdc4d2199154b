// internal/app/policy/principalpolicy/principalpolicy_test.go
package principalpolicy_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/campushq/campushub/internal/app/policy/principalpolicy"
	"github.com/campushq/campushub/internal/app/system/status"
	"github.com/campushq/campushub/internal/testutil"
)

func TestCheckProtectedMutationProtectedTarget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)

	target := f.CreateProtectedUser(ctx, "root@campushub.test")

	cases := []struct {
		name string
		m    principalpolicy.Mutation
		want bool
	}{
		{"delete", principalpolicy.Mutation{Op: principalpolicy.OpDelete}, false},
		{"demote role", principalpolicy.Mutation{Op: principalpolicy.OpSetRole, NewRole: status.RoleStudent}, false},
		{"keep super admin role", principalpolicy.Mutation{Op: principalpolicy.OpSetRole, NewRole: status.RoleSuperAdmin}, true},
		{"disable", principalpolicy.Mutation{Op: principalpolicy.OpSetStatus, NewStatus: status.Disabled}, false},
		{"keep active", principalpolicy.Mutation{Op: principalpolicy.OpSetStatus, NewStatus: status.Active}, true},
		{"email change blocked", principalpolicy.Mutation{Op: principalpolicy.OpSetEmail}, false},
		{"email change allowed", principalpolicy.Mutation{Op: principalpolicy.OpSetEmail, AllowEmailChange: true}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := principalpolicy.CheckProtectedMutation(ctx, db, target.ID, tc.m)
			if err != nil {
				t.Fatalf("CheckProtectedMutation: %v", err)
			}
			if got != tc.want {
				t.Errorf("CheckProtectedMutation = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCheckProtectedMutationUnprotectedTarget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)

	target := f.CreateUser(ctx, "Plain Student", "plain@example.edu", status.RoleStudent)

	for _, op := range []string{
		principalpolicy.OpDelete,
		principalpolicy.OpSetRole,
		principalpolicy.OpSetStatus,
		principalpolicy.OpSetEmail,
	} {
		got, err := principalpolicy.CheckProtectedMutation(ctx, db, target.ID, principalpolicy.Mutation{Op: op})
		if err != nil {
			t.Fatalf("CheckProtectedMutation(%s): %v", op, err)
		}
		if !got {
			t.Errorf("CheckProtectedMutation(%s) = false, want true for unprotected target", op)
		}
	}
}

func TestCheckProtectedMutationMissingTarget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	got, err := principalpolicy.CheckProtectedMutation(ctx, db, primitive.NewObjectID(), principalpolicy.Mutation{Op: principalpolicy.OpDelete})
	if err != nil {
		t.Fatalf("CheckProtectedMutation: %v", err)
	}
	if !got {
		t.Error("CheckProtectedMutation = false, want true for a missing target")
	}
}
