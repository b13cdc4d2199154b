// internal/app/store/advisories/advisorystore.go
package advisorystore

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

// Store manages advisor↔club assignment edges.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("advisories")}
}

// ErrAlreadyAssigned is returned when the user already advises the club.
var ErrAlreadyAssigned = errors.New("user is already an advisor of this club")

// Assign records the user as an advisor of the club.
func (s *Store) Assign(ctx context.Context, clubID, userID, institutionID primitive.ObjectID) error {
	now := time.Now().UTC()
	_, err := s.c.InsertOne(ctx, models.Advisory{
		ID:            primitive.NewObjectID(),
		ClubID:        clubID,
		UserID:        userID,
		InstitutionID: institutionID,
		CreatedAt:     now,
	})
	if wafflemongo.IsDup(err) {
		return ErrAlreadyAssigned
	}
	return err
}

// ClubIDsForUser returns the clubs the user advises.
func (s *Store) ClubIDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var edges []models.Advisory
	if err := cur.All(ctx, &edges); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.ClubID)
	}
	return ids, nil
}

// ListForClub returns the club's advisor edges.
func (s *Store) ListForClub(ctx context.Context, clubID primitive.ObjectID) ([]models.Advisory, error) {
	cur, err := s.c.Find(ctx, bson.M{"club_id": clubID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Advisory
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
