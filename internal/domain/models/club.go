// internal/domain/models/club.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Club belongs to exactly one institution and goes through the
// pending → approved | rejected approval flow.
type Club struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InstitutionID primitive.ObjectID `bson:"institution_id" json:"institution_id"`
	Name          string             `bson:"name" json:"name"`
	NameCI        string             `bson:"name_ci" json:"-"`
	Slug          string             `bson:"slug" json:"slug"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Status        string             `bson:"status" json:"status"` // pending | approved | rejected
	LogoRef       string             `bson:"logo_ref,omitempty" json:"logo_ref,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ClubMembership is the edge between a user and a club. Exactly one
// document per (user_id, club_id). At most one membership per club has
// role="officer"; the partial unique index on club_members enforces
// this at the storage level.
type ClubMembership struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClubID        primitive.ObjectID `bson:"club_id" json:"club_id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"user_id"`
	InstitutionID primitive.ObjectID `bson:"institution_id" json:"institution_id"`
	Role          string             `bson:"role" json:"role"` // member | officer
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// Advisory marks an employee as a club's advisor (ADVISES). One
// document per (user_id, club_id); creation requires an active
// employee membership in the club's institution.
type Advisory struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClubID        primitive.ObjectID `bson:"club_id" json:"club_id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"user_id"`
	InstitutionID primitive.ObjectID `bson:"institution_id" json:"institution_id"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}
