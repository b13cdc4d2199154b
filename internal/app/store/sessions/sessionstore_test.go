// internal/app/store/sessions/sessionstore_test.go
package sessionstore_test

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	sessionstore "github.com/campushq/campushub/internal/app/store/sessions"
	"github.com/campushq/campushub/internal/domain/models"
	"github.com/campushq/campushub/internal/testutil"
)

func TestCreateAndGetByToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := sessionstore.New(db)

	userID := primitive.NewObjectID()
	sess, err := store.Create(ctx, userID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.Token == "" {
		t.Fatal("token is empty")
	}

	got, err := store.GetByToken(ctx, sess.Token)
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if got.UserID == nil || *got.UserID != userID {
		t.Errorf("UserID = %v, want %s", got.UserID, userID.Hex())
	}
	if time.Until(got.ExpiresAt) <= 0 {
		t.Error("new session is already expired")
	}
}

func TestGetByTokenRejectsExpired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := sessionstore.New(db)

	userID := primitive.NewObjectID()
	expired := models.Session{
		ID:        primitive.NewObjectID(),
		Token:     "expired-token",
		UserID:    &userID,
		CreatedAt: time.Now().UTC().Add(-8 * 24 * time.Hour),
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	if _, err := db.Collection("sessions").InsertOne(ctx, expired); err != nil {
		t.Fatalf("insert expired session: %v", err)
	}

	if _, err := store.GetByToken(ctx, "expired-token"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expired token err = %v, want ErrNoDocuments", err)
	}

	// The cleanup worker's sweep removes it for real.
	n, err := store.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d sessions, want 1", n)
	}
}

func TestDeleteByToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := sessionstore.New(db)

	sess, err := store.Create(ctx, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.DeleteByToken(ctx, sess.Token); err != nil {
		t.Fatalf("DeleteByToken: %v", err)
	}
	if _, err := store.GetByToken(ctx, sess.Token); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("revoked token err = %v, want ErrNoDocuments", err)
	}

	// Revoking an unknown token is fine.
	if err := store.DeleteByToken(ctx, "never-issued"); err != nil {
		t.Errorf("DeleteByToken(unknown) = %v", err)
	}
}

func TestDeleteForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := sessionstore.New(db)

	userID := primitive.NewObjectID()
	other := primitive.NewObjectID()
	for i := 0; i < 3; i++ {
		if _, err := store.Create(ctx, userID); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	keep, err := store.Create(ctx, other)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := store.DeleteForUser(ctx, userID)
	if err != nil {
		t.Fatalf("DeleteForUser: %v", err)
	}
	if n != 3 {
		t.Errorf("deleted %d sessions, want 3", n)
	}
	if _, err := store.GetByToken(ctx, keep.Token); err != nil {
		t.Errorf("other user's session should survive: %v", err)
	}
}
