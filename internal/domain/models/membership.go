// internal/domain/models/membership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership is the authoritative affiliation edge between a user and
// an institution. Exactly one document per (user_id, institution_id);
// Kind records how the user is affiliated ("student", "employee", or
// the legacy untyped "member_of"). A missing Status reads as pending.
type Membership struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"user_id"`
	InstitutionID primitive.ObjectID `bson:"institution_id" json:"institution_id"`
	Kind          string             `bson:"kind" json:"kind"`
	Status        string             `bson:"status,omitempty" json:"status"` // pending | active | rejected
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// StaffAssignment marks an employee as institution staff
// (IS_STAFF_OF). Requires an active membership edge to the same
// institution; one document per (user_id, institution_id).
type StaffAssignment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"user_id"`
	InstitutionID primitive.ObjectID `bson:"institution_id" json:"institution_id"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}
