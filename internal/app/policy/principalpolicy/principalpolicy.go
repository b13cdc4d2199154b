// internal/app/policy/principalpolicy/principalpolicy.go
package principalpolicy

import (
	"context"
	"errors"

	"github.com/campushq/campushub/internal/app/system/status"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Mutation operations subject to the protected-account check.
const (
	OpDelete    = "delete"
	OpSetRole   = "set_role"
	OpSetStatus = "set_status"
	OpSetEmail  = "set_email"
)

// Mutation describes an intended change to a user account.
type Mutation struct {
	Op        string
	NewRole   string
	NewStatus string

	// AllowEmailChange lets an explicitly-sanctioned flow change a
	// protected account's email; everything else is blocked.
	AllowEmailChange bool
}

// CheckProtectedMutation reports whether the mutation may proceed
// against the target account. Unprotected and missing targets always
// pass; the store layer handles its own not-found reporting. For
// protected accounts:
//   - deletion is always blocked
//   - role changes are blocked unless the role stays super_admin
//   - status changes are blocked unless the status stays active
//   - email changes are blocked unless the flow opted in
func CheckProtectedMutation(ctx context.Context, db *mongo.Database, targetUserID primitive.ObjectID, m Mutation) (bool, error) {
	var target struct {
		Protected bool `bson:"protected"`
	}
	err := db.Collection("users").FindOne(ctx, bson.M{"_id": targetUserID}).Decode(&target)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if !target.Protected {
		return true, nil
	}

	switch m.Op {
	case OpDelete:
		return false, nil
	case OpSetRole:
		return m.NewRole == status.RoleSuperAdmin, nil
	case OpSetStatus:
		return m.NewStatus == status.Active, nil
	case OpSetEmail:
		return m.AllowEmailChange, nil
	default:
		return true, nil
	}
}
