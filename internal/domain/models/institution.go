// internal/domain/models/institution.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Institution is a campus tenant. Two storage shapes exist for the same
// logical entity:
//
//   - New shape: this document plus a users document with
//     role="institution" whose institution_id points here. The user
//     document carries the login secret.
//   - Legacy shape: this document alone, with SecretHash set, created
//     before institution accounts moved into the users collection.
//
// The session resolver collapses both shapes into one canonical
// principal; nothing downstream re-implements the fallback.
type Institution struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	Slug        string             `bson:"slug" json:"slug"` // derived, lowercase, hyphenated, unique
	EmailDomain string             `bson:"email_domain" json:"email_domain"`
	Status      string             `bson:"status" json:"status"` // pending | approved | rejected
	SecretHash  string             `bson:"secret_hash,omitempty" json:"-"` // legacy shape only

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
