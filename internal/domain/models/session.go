// internal/domain/models/session.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session is the server-side HAS_SESSION edge. Token is opaque and
// unguessable; the cookie stores only the token. Exactly one of UserID
// or LegacyInstitutionID is set: legacy institutions authenticate
// without a users document, so their sessions point at the
// institutions collection directly.
//
// Revocation policy: logout deletes this document and clears the
// cookie, and a TTL index on expires_at removes sessions the client
// abandoned. Both windows are seven days.
type Session struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Token               string              `bson:"token" json:"-"`
	UserID              *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	LegacyInstitutionID *primitive.ObjectID `bson:"legacy_institution_id,omitempty" json:"legacy_institution_id,omitempty"`
	CreatedAt           time.Time           `bson:"created_at" json:"created_at"`
	ExpiresAt           time.Time           `bson:"expires_at" json:"expires_at"`
}
