// internal/app/policy/staffpolicy.go
package staffpolicy

import (
	"context"

	"github.com/campushq/campushub/internal/app/system/authz"
	"github.com/campushq/campushub/internal/app/system/status"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// IsStaff reports whether the user is staff at the institution according
// to the authoritative staff collection.
func IsStaff(ctx context.Context, db *mongo.Database, userID, institutionID primitive.ObjectID) (bool, error) {
	n, err := db.Collection("staff").CountDocuments(ctx, bson.M{
		"user_id":        userID,
		"institution_id": institutionID,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// HasActiveEmployment reports whether the user holds an active employee
// membership at the institution. Staff and advisor designations both
// require this.
func HasActiveEmployment(ctx context.Context, db *mongo.Database, userID, institutionID primitive.ObjectID) (bool, error) {
	n, err := db.Collection("memberships").CountDocuments(ctx, bson.M{
		"user_id":        userID,
		"institution_id": institutionID,
		"kind":           status.KindEmployee,
		"status":         status.Active,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CanManageInstitutionContent reports whether the caller may publish and
// moderate institution-level content: super admins, the institution's
// admin, and its staff.
func CanManageInstitutionContent(ctx context.Context, db *mongo.Database, caps authz.Capabilities, institutionID primitive.ObjectID) (bool, error) {
	if authz.IsSuperAdmin(caps) {
		return true, nil
	}
	if authz.IsInstitutionAdmin(caps, institutionID) {
		return true, nil
	}
	if authz.IsInstitutionStaff(caps, institutionID) {
		return true, nil
	}
	return IsStaff(ctx, db, caps.UserID, institutionID)
}
