// internal/app/store/clubs/clubstore.go
package clubstore

import (
	"context"
	"errors"
	"time"

	"github.com/campushq/campushub/internal/app/system/htmlsanitize"
	"github.com/campushq/campushub/internal/app/system/normalize"
	"github.com/campushq/campushub/internal/app/system/search"
	"github.com/campushq/campushub/internal/app/system/status"
	"github.com/campushq/campushub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("clubs")}
}

var (
	// ErrDuplicateSlug is returned when a club with the same slug already
	// exists within the institution.
	ErrDuplicateSlug = errors.New("a club with this name already exists at this institution")
	errBadStatus     = errors.New(`status must be "pending"|"approved"|"rejected"`)
)

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Club, error) {
	var cl models.Club
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&cl); err != nil {
		return nil, err
	}
	return &cl, nil
}

// Create inserts a new club in pending status. Name uniqueness is
// per institution, on the derived slug.
func (s *Store) Create(ctx context.Context, institutionID primitive.ObjectID, name, description, logoRef string) (models.Club, error) {
	name = normalize.Name(name)
	now := time.Now().UTC()
	cl := models.Club{
		ID:            primitive.NewObjectID(),
		InstitutionID: institutionID,
		Name:          name,
		NameCI:        text.Fold(name),
		Slug:          normalize.Slug(name),
		Description:   htmlsanitize.Body(description),
		Status:        status.Pending,
		LogoRef:       logoRef,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := s.c.InsertOne(ctx, cl); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Club{}, ErrDuplicateSlug
		}
		return models.Club{}, err
	}
	return cl, nil
}

// SetStatus transitions a club within the given institution. The
// institution is part of the filter so cross-institution IDs report
// mongo.ErrNoDocuments rather than touching another tenant's club.
func (s *Store) SetStatus(ctx context.Context, clubID, institutionID primitive.ObjectID, st string) error {
	if !status.IsValidApproval(st) {
		return errBadStatus
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": clubID, "institution_id": institutionID},
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

// ListForInstitution returns the institution's clubs sorted by folded
// name, optionally filtered by status and a case-folded name prefix.
// A limit of 0 means no cap.
func (s *Store) ListForInstitution(ctx context.Context, institutionID primitive.ObjectID, st, nameQuery string, limit int64) ([]models.Club, error) {
	filter := bson.M{"institution_id": institutionID}
	if st != "" {
		filter["status"] = st
	}
	if nameFilter := search.NamePrefix(nameQuery); nameFilter != nil {
		filter["name_ci"] = nameFilter["name_ci"]
	}
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Club
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

