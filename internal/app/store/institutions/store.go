// internal/app/store/institutions/store.go
package institutionstore

import (
	"context"
	"errors"
	"time"

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
	return &Store{c: db.Collection("institutions")}
}

var (
	// ErrDuplicateSlug is returned when an institution with the same slug already exists.
	ErrDuplicateSlug = errors.New("an institution with this name already exists")
	errBadStatus     = errors.New(`status must be "pending"|"approved"|"rejected"`)
)

// GetByID loads an institution by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Institution, error) {
	var inst models.Institution
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&inst); err != nil {
		return nil, err
	}
	return &inst, nil
}

// GetByDomain resolves an institution by email domain: first an exact
// match, then a substring match. This mirrors how institution logins
// identify themselves.
func (s *Store) GetByDomain(ctx context.Context, domain string) (*models.Institution, error) {
	domain = normalize.Domain(domain)

	var inst models.Institution
	err := s.c.FindOne(ctx, bson.M{"email_domain": domain}).Decode(&inst)
	if err == nil {
		return &inst, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	// Substring fallback: an institution registered as "example.edu"
	// is still found when the caller types "eng.example.edu".
	err = s.c.FindOne(ctx, bson.M{
		"email_domain": bson.M{"$ne": ""},
		"$expr": bson.M{"$gte": bson.A{
			bson.M{"$indexOfBytes": bson.A{domain, "$email_domain"}}, 0,
		}},
	}).Decode(&inst)
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

// Create inserts a pending institution with a derived unique slug.
func (s *Store) Create(ctx context.Context, inst models.Institution) (models.Institution, error) {
	inst.ID = primitive.NewObjectID()
	inst.Name = normalize.Name(inst.Name)
	inst.NameCI = text.Fold(inst.Name)
	inst.Slug = normalize.Slug(inst.Name)
	inst.EmailDomain = normalize.Domain(inst.EmailDomain)
	if inst.Status == "" {
		inst.Status = status.Pending
	}
	if !status.IsValidApproval(inst.Status) {
		return models.Institution{}, errBadStatus
	}

	now := time.Now().UTC()
	inst.CreatedAt = now
	inst.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, inst); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Institution{}, ErrDuplicateSlug
		}
		return models.Institution{}, err
	}
	return inst, nil
}

// SetStatus moves an institution to the given approval status. Returns
// mongo.ErrNoDocuments when no institution matched.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, st string) error {
	if !status.IsValidApproval(st) {
		return errBadStatus
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     st,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// List returns institutions sorted by folded name, optionally filtered
// by status and a case-folded name prefix. A limit of 0 means no cap.
func (s *Store) List(ctx context.Context, st, nameQuery string, limit int64) ([]models.Institution, error) {
	filter := bson.M{}
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

	var out []models.Institution
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
