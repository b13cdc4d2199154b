// internal/app/policy/clubpolicy.go
package clubpolicy

import (
	"context"

	"github.com/campushq/campushub/internal/app/system/authz"
	"github.com/campushq/campushub/internal/app/system/status"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// IsOfficer reports whether the user holds the club's officer seat
// according to the authoritative club_members collection.
func IsOfficer(ctx context.Context, db *mongo.Database, clubID, userID primitive.ObjectID) (bool, error) {
	n, err := db.Collection("club_members").CountDocuments(ctx, bson.M{
		"club_id": clubID,
		"user_id": userID,
		"role":    status.ClubOfficer,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsAdvisor reports whether the user advises the club according to the
// authoritative advisories collection.
func IsAdvisor(ctx context.Context, db *mongo.Database, clubID, userID primitive.ObjectID) (bool, error) {
	n, err := db.Collection("advisories").CountDocuments(ctx, bson.M{
		"club_id": clubID,
		"user_id": userID,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CanManageClub reports whether the caller may manage the given club:
//   - Super admins always can
//   - The institution's admin can
//   - The club officer and its advisors can
//
// Returns (false, nil) for "not authorized" and (false, err) for a
// database failure, so callers can tell the two apart.
func CanManageClub(ctx context.Context, db *mongo.Database, caps authz.Capabilities, clubID, clubInstitutionID primitive.ObjectID) (bool, error) {
	if authz.IsSuperAdmin(caps) {
		return true, nil
	}
	if authz.IsInstitutionAdmin(caps, clubInstitutionID) {
		return true, nil
	}
	if ok, err := IsOfficer(ctx, db, clubID, caps.UserID); err != nil || ok {
		return ok, err
	}
	return IsAdvisor(ctx, db, clubID, caps.UserID)
}

// CanManagePost reports whether the caller may create or moderate a
// post (event or announcement) in the given scope. Club-scoped posts
// are managed by whoever can manage the club; institution-level posts
// by the institution admin or its staff.
func CanManagePost(ctx context.Context, db *mongo.Database, caps authz.Capabilities, institutionID primitive.ObjectID, clubID *primitive.ObjectID) (bool, error) {
	if authz.IsSuperAdmin(caps) {
		return true, nil
	}
	if authz.IsInstitutionAdmin(caps, institutionID) {
		return true, nil
	}
	if clubID != nil {
		return CanManageClub(ctx, db, caps, *clubID, institutionID)
	}
	return authz.IsInstitutionStaff(caps, institutionID), nil
}
