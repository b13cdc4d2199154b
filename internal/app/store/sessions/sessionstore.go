// internal/app/store/sessions/sessionstore.go
package sessionstore

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/campushq/campushub/internal/domain/models"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TTL is how long an issued session token stays valid. The sessions
// collection carries a matching TTL index on expires_at.
const TTL = 7 * 24 * time.Hour

// Store manages server-side session records keyed by opaque token.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sessions")}
}

var errNoToken = errors.New("could not generate session token")

// Create issues a new session for the user and returns its token.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID) (models.Session, error) {
	return s.create(ctx, &userID, nil)
}

// CreateLegacy issues a session bound directly to a legacy institution
// record that has no user account.
func (s *Store) CreateLegacy(ctx context.Context, institutionID primitive.ObjectID) (models.Session, error) {
	return s.create(ctx, nil, &institutionID)
}

func (s *Store) create(ctx context.Context, userID, legacyInstitutionID *primitive.ObjectID) (models.Session, error) {
	raw := securecookie.GenerateRandomKey(32)
	if raw == nil {
		return models.Session{}, errNoToken
	}
	now := time.Now().UTC()
	sess := models.Session{
		ID:                  primitive.NewObjectID(),
		Token:               hex.EncodeToString(raw),
		UserID:              userID,
		LegacyInstitutionID: legacyInstitutionID,
		CreatedAt:           now,
		ExpiresAt:           now.Add(TTL),
	}
	if _, err := s.c.InsertOne(ctx, sess); err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

// GetByToken returns a live session. Expired sessions report
// mongo.ErrNoDocuments even before the TTL monitor removes them.
func (s *Store) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	var sess models.Session
	err := s.c.FindOne(ctx, bson.M{
		"token":      token,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&sess)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// DeleteByToken revokes a session server side. Deleting an unknown
// token is not an error.
func (s *Store) DeleteByToken(ctx context.Context, token string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"token": token})
	return err
}

// PurgeExpired removes sessions past their expiry. The TTL index does
// this eventually; the cleanup worker calls it so expired rows never
// linger longer than one sweep.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"expires_at": bson.M{"$lte": time.Now().UTC()},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteForUser revokes all of a user's sessions, returning how many
// were removed.
func (s *Store) DeleteForUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
