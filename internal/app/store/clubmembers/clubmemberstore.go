// internal/app/store/clubmembers/clubmemberstore.go
package clubmemberstore

import (
	"context"
	"errors"
	"time"

	"github.com/campushq/campushub/internal/app/system/status"
	"github.com/campushq/campushub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages the user↔club membership edges, including the single
// officer seat per club.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("club_members")}
}

var (
	// ErrAlreadyMember is returned when the user already belongs to the club.
	ErrAlreadyMember = errors.New("user is already a member of this club")
	// ErrOfficerRace is returned when two concurrent officer assignments
	// collide and the retry also lost.
	ErrOfficerRace = errors.New("another officer assignment is in progress for this club")
)

// Join adds the user to the club as a plain member.
func (s *Store) Join(ctx context.Context, clubID, userID, institutionID primitive.ObjectID) (models.ClubMembership, error) {
	now := time.Now().UTC()
	cm := models.ClubMembership{
		ID:            primitive.NewObjectID(),
		ClubID:        clubID,
		UserID:        userID,
		InstitutionID: institutionID,
		Role:          status.ClubMember,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := s.c.InsertOne(ctx, cm); err != nil {
		if wafflemongo.IsDup(err) {
			return models.ClubMembership{}, ErrAlreadyMember
		}
		return models.ClubMembership{}, err
	}
	return cm, nil
}

// IsOfficer reports whether the user holds the club's officer seat.
func (s *Store) IsOfficer(ctx context.Context, clubID, userID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"club_id": clubID,
		"user_id": userID,
		"role":    status.ClubOfficer,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AssignOfficer moves the club's single officer seat to the given
// member. The previous holder, if any, is demoted first; the promotion
// then races against concurrent assignments on the partial unique
// officer index. A duplicate-key loss is retried once after demoting
// the interloper; a second loss reports ErrOfficerRace.
func (s *Store) AssignOfficer(ctx context.Context, clubID, userID primitive.ObjectID) error {
	promote := func() error {
		res, err := s.c.UpdateOne(ctx,
			bson.M{"club_id": clubID, "user_id": userID},
			bson.M{"$set": bson.M{"role": status.ClubOfficer, "updated_at": time.Now().UTC()}},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return mongo.ErrNoDocuments
		}
		return nil
	}

	if err := s.demoteOthers(ctx, clubID, userID); err != nil {
		return err
	}
	err := promote()
	if !wafflemongo.IsDup(err) {
		return err
	}

	// A concurrent assignment claimed the seat between our demote and
	// promote. Clear it and try once more.
	if err := s.demoteOthers(ctx, clubID, userID); err != nil {
		return err
	}
	err = promote()
	if wafflemongo.IsDup(err) {
		return ErrOfficerRace
	}
	return err
}

func (s *Store) demoteOthers(ctx context.Context, clubID, userID primitive.ObjectID) error {
	_, err := s.c.UpdateMany(ctx,
		bson.M{
			"club_id": clubID,
			"role":    status.ClubOfficer,
			"user_id": bson.M{"$ne": userID},
		},
		bson.M{"$set": bson.M{"role": status.ClubMember, "updated_at": time.Now().UTC()}},
	)
	return err
}

// ClubRole pairs a membership edge with its club's display fields for
// roster and profile views.
type ClubRole struct {
	ClubID   primitive.ObjectID `bson:"club_id" json:"club_id"`
	ClubName string             `bson:"club_name" json:"club_name"`
	Role     string             `bson:"role" json:"role"`
}

// ListForUser returns the clubs the user belongs to with their role in each.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]ClubRole, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "clubs",
			"localField":   "club_id",
			"foreignField": "_id",
			"as":           "club",
		}}},
		{{Key: "$unwind", Value: "$club"}},
		{{Key: "$project", Value: bson.M{
			"club_id":   1,
			"role":      1,
			"club_name": "$club.name",
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "club_name", Value: 1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []ClubRole
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMembers returns the club's roster, officer first.
func (s *Store) ListMembers(ctx context.Context, clubID primitive.ObjectID) ([]models.ClubMembership, error) {
	cur, err := s.c.Find(ctx, bson.M{"club_id": clubID},
		options.Find().SetSort(bson.D{{Key: "role", Value: -1}, {Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ClubMembership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
