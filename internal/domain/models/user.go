// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents any authenticated principal: students, employees,
// new-shape institution accounts, and the super admin.
//
// NOTE:
//   - Institution affiliation is not embedded on User. Use the
//     memberships collection to discover a user's institutions.
//   - Role may be empty on accounts that predate platform roles; it
//     reads as "student" (status.NormalizeRole).
//   - InstitutionID is set only on role="institution" accounts and
//     links the account to its institutions document.
type User struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FullName   string              `bson:"full_name" json:"full_name"`
	FullNameCI string              `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email      string              `bson:"email" json:"email"`
	SecretHash string              `bson:"secret_hash,omitempty" json:"-"`
	Role       string              `bson:"role,omitempty" json:"role"` // student | employee | institution | super_admin
	Status     string              `bson:"status,omitempty" json:"status"`
	Protected  bool                `bson:"protected,omitempty" json:"protected,omitempty"`

	InstitutionID *primitive.ObjectID `bson:"institution_id,omitempty" json:"institution_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
