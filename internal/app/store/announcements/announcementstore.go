// internal/app/store/announcements/announcementstore.go
package announcementstore

import (
	"context"
	"errors"
	"time"

	"github.com/campushq/campushub/internal/app/system/htmlsanitize"
	"github.com/campushq/campushub/internal/app/system/normalize"
	"github.com/campushq/campushub/internal/app/system/status"
	"github.com/campushq/campushub/internal/domain/models"
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
	return &Store{c: db.Collection("announcements")}
}

var errBadStatus = errors.New(`status must be "draft"|"pending"|"published"|"rejected"|"hidden"`)

// Create inserts a club announcement in draft status.
func (s *Store) Create(ctx context.Context, clubID, institutionID primitive.ObjectID, title, body string) (models.Announcement, error) {
	title = normalize.Name(title)
	now := time.Now().UTC()
	a := models.Announcement{
		ID:            primitive.NewObjectID(),
		ClubID:        clubID,
		InstitutionID: institutionID,
		Title:         title,
		TitleCI:       text.Fold(title),
		Body:          htmlsanitize.Body(body),
		Status:        status.Draft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Announcement{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Announcement, error) {
	var a models.Announcement
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// SetStatus moves the announcement between draft, published, and hidden
// within the institution scope.
func (s *Store) SetStatus(ctx context.Context, announcementID, institutionID primitive.ObjectID, st string) error {
	if !status.IsValidPost(st) {
		return errBadStatus
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": announcementID, "institution_id": institutionID},
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

// Delete removes the announcement within the institution scope.
func (s *Store) Delete(ctx context.Context, announcementID, institutionID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": announcementID, "institution_id": institutionID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListPublished returns the club's published announcements, newest
// first. A limit of 0 means no cap.
func (s *Store) ListPublished(ctx context.Context, clubID primitive.ObjectID, limit int64) ([]models.Announcement, error) {
	return s.list(ctx, bson.M{"club_id": clubID, "status": status.Published}, limit)
}

// ListAll returns every announcement for the club regardless of status.
// A limit of 0 means no cap.
func (s *Store) ListAll(ctx context.Context, clubID primitive.ObjectID, limit int64) ([]models.Announcement, error) {
	return s.list(ctx, bson.M{"club_id": clubID}, limit)
}

func (s *Store) list(ctx context.Context, filter bson.M, limit int64) ([]models.Announcement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Announcement
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
