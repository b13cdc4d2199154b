// internal/app/store/events/eventstore.go
package eventstore

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
	return &Store{c: db.Collection("events")}
}

var errBadStatus = errors.New(`status must be "draft"|"pending"|"published"|"rejected"|"hidden"`)

// Create inserts an event in draft status. A nil clubID makes it an
// institution-level event.
func (s *Store) Create(ctx context.Context, institutionID primitive.ObjectID, clubID *primitive.ObjectID, title, description, imageRef string, startsAt time.Time) (models.Event, error) {
	title = normalize.Name(title)
	now := time.Now().UTC()
	var starts *time.Time
	if !startsAt.IsZero() {
		u := startsAt.UTC()
		starts = &u
	}
	ev := models.Event{
		ID:            primitive.NewObjectID(),
		InstitutionID: institutionID,
		ClubID:        clubID,
		Title:         title,
		TitleCI:       text.Fold(title),
		Description:   htmlsanitize.Body(description),
		Status:        status.Draft,
		ImageRef:      imageRef,
		StartsAt:      starts,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := s.c.InsertOne(ctx, ev); err != nil {
		return models.Event{}, err
	}
	return ev, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var ev models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// SetStatus moves the event between draft, published, and hidden. The
// institution is part of the filter so IDs from another tenant report
// mongo.ErrNoDocuments.
func (s *Store) SetStatus(ctx context.Context, eventID, institutionID primitive.ObjectID, st string) error {
	if !status.IsValidPost(st) {
		return errBadStatus
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": eventID, "institution_id": institutionID},
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

// Delete removes the event within the institution scope.
func (s *Store) Delete(ctx context.Context, eventID, institutionID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": eventID, "institution_id": institutionID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListPublished returns the institution's published events in start
// order, optionally restricted to one club. A limit of 0 means no cap.
func (s *Store) ListPublished(ctx context.Context, institutionID primitive.ObjectID, clubID *primitive.ObjectID, limit int64) ([]models.Event, error) {
	filter := bson.M{"institution_id": institutionID, "status": status.Published}
	if clubID != nil {
		filter["club_id"] = *clubID
	}
	return s.list(ctx, filter, limit)
}

// ListAll returns every event in the institution regardless of status,
// for managers. A limit of 0 means no cap.
func (s *Store) ListAll(ctx context.Context, institutionID primitive.ObjectID, clubID *primitive.ObjectID, limit int64) ([]models.Event, error) {
	filter := bson.M{"institution_id": institutionID}
	if clubID != nil {
		filter["club_id"] = *clubID
	}
	return s.list(ctx, filter, limit)
}

func (s *Store) list(ctx context.Context, filter bson.M, limit int64) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "starts_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
