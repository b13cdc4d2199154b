// internal/app/store/staff/staffstore.go
package staffstore

import (
	"context"
	"errors"
	"time"

	"github.com/campushq/campushub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store manages institution staff designation edges.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("staff")}
}

// ErrAlreadyAssigned is returned when the user already holds the staff
// designation at the institution.
var ErrAlreadyAssigned = errors.New("user is already staff at this institution")

// Assign marks the user as staff of the institution.
func (s *Store) Assign(ctx context.Context, userID, institutionID primitive.ObjectID) error {
	_, err := s.c.InsertOne(ctx, models.StaffAssignment{
		ID:            primitive.NewObjectID(),
		UserID:        userID,
		InstitutionID: institutionID,
		CreatedAt:     time.Now().UTC(),
	})
	if wafflemongo.IsDup(err) {
		return ErrAlreadyAssigned
	}
	return err
}

// InstitutionIDsForUser returns the institutions where the user is staff.
func (s *Store) InstitutionIDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var edges []models.StaffAssignment
	if err := cur.All(ctx, &edges); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.InstitutionID)
	}
	return ids, nil
}

// ListForInstitution returns the institution's staff edges.
func (s *Store) ListForInstitution(ctx context.Context, institutionID primitive.ObjectID) ([]models.StaffAssignment, error) {
	cur, err := s.c.Find(ctx, bson.M{"institution_id": institutionID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.StaffAssignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
