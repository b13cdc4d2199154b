// internal/domain/models/post.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is hosted either directly by an institution or by a club
// (HOSTS). InstitutionID is always set; for club events it is
// denormalized from the hosting club so scope checks stay single-query.
type Event struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	InstitutionID primitive.ObjectID  `bson:"institution_id" json:"institution_id"`
	ClubID        *primitive.ObjectID `bson:"club_id,omitempty" json:"club_id,omitempty"`
	Title         string              `bson:"title" json:"title"`
	TitleCI       string              `bson:"title_ci" json:"-"`
	Description   string              `bson:"description,omitempty" json:"description,omitempty"`
	Status        string              `bson:"status" json:"status"` // draft | pending | published | rejected | hidden
	ImageRef      string              `bson:"image_ref,omitempty" json:"image_ref,omitempty"`
	StartsAt      *time.Time          `bson:"starts_at,omitempty" json:"starts_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Announcement belongs to a club; InstitutionID is denormalized from
// the club for scope checks. Body is sanitized on write.
type Announcement struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClubID        primitive.ObjectID `bson:"club_id" json:"club_id"`
	InstitutionID primitive.ObjectID `bson:"institution_id" json:"institution_id"`
	Title         string             `bson:"title" json:"title"`
	TitleCI       string             `bson:"title_ci" json:"-"`
	Body          string             `bson:"body" json:"body"`
	Status        string             `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
