// internal/app/store/memberships/membershipstore.go
package membershipstore

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

// Store manages the user↔institution affiliation edges.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("memberships")}
}

var (
	// ErrDuplicateMembership is returned when the (user, institution) edge already exists.
	ErrDuplicateMembership = errors.New("user already has a membership with this institution")
	errBadKind             = errors.New(`kind must be "student"|"employee"|"member_of"`)
	errBadStatus           = errors.New(`status must be "pending"|"active"|"rejected"`)
)

// Add creates a pending membership edge. Exactly one edge may exist per
// (user, institution) pair; a second insert reports ErrDuplicateMembership.
func (s *Store) Add(ctx context.Context, userID, institutionID primitive.ObjectID, kind string) (models.Membership, error) {
	switch kind {
	case status.KindStudent, status.KindEmployee, status.KindMemberOf:
		// ok
	default:
		return models.Membership{}, errBadKind
	}

	now := time.Now().UTC()
	m := models.Membership{
		ID:            primitive.NewObjectID(),
		UserID:        userID,
		InstitutionID: institutionID,
		Kind:          kind,
		Status:        status.Pending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Membership{}, ErrDuplicateMembership
		}
		return models.Membership{}, err
	}
	return m, nil
}

// Get loads the edge for (user, institution). Returns mongo.ErrNoDocuments
// when the pair has no affiliation.
func (s *Store) Get(ctx context.Context, userID, institutionID primitive.ObjectID) (*models.Membership, error) {
	var m models.Membership
	err := s.c.FindOne(ctx, bson.M{
		"user_id":        userID,
		"institution_id": institutionID,
	}).Decode(&m)
	if err != nil {
		return nil, err
	}
	m.Status = status.NormalizeMembership(m.Status)
	return &m, nil
}

// GetForUser returns the user's membership edges, statuses normalized.
func (s *Store) GetForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Membership, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Membership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Status = status.NormalizeMembership(out[i].Status)
	}
	return out, nil
}

// ListForInstitution returns an institution's membership edges,
// optionally filtered by effective status. Filtering on pending also
// matches legacy edges that carry no status. A limit of 0 means no cap.
func (s *Store) ListForInstitution(ctx context.Context, institutionID primitive.ObjectID, st string, limit int64) ([]models.Membership, error) {
	filter := bson.M{"institution_id": institutionID}
	switch st {
	case "":
		// no status filter
	case status.Pending:
		filter["$or"] = bson.A{
			bson.M{"status": status.Pending},
			bson.M{"status": bson.M{"$exists": false}},
			bson.M{"status": ""},
		}
	default:
		filter["status"] = st
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Membership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Status = status.NormalizeMembership(out[i].Status)
	}
	return out, nil
}

// SetStatus transitions the (user, institution) edge in a single
// existence-and-scope-checked write: the filter carries the
// institution, so a user outside the institution matches zero rows and
// reports mongo.ErrNoDocuments.
func (s *Store) SetStatus(ctx context.Context, userID, institutionID primitive.ObjectID, st string) error {
	if st != status.Active && st != status.Rejected && st != status.Pending {
		return errBadStatus
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"user_id": userID, "institution_id": institutionID},
		bson.M{"$set": bson.M{"status": st, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// HasActive reports whether the user has an active membership edge to
// the institution. Pending, rejected, and missing edges all report false.
func (s *Store) HasActive(ctx context.Context, userID, institutionID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"user_id":        userID,
		"institution_id": institutionID,
		"status":         status.Active,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
