// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Principals and tenants
	ensure("users", usersSchema())
	ensure("institutions", institutionsSchema())

	// Membership and assignment edges
	ensure("memberships", membershipsSchema())
	ensure("club_members", clubMembersSchema())
	ensure("advisories", advisoriesSchema())
	ensure("staff", staffSchema())

	// Club content
	ensure("clubs", clubsSchema())
	ensure("events", eventsSchema())
	ensure("announcements", announcementsSchema())

	// These don't strictly need validators; we still ensure the collections exist.
	ensure("sessions", nil)
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email"},
			"properties": bson.M{
				"full_name":      bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"full_name_ci":   bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"email":          bson.M{"bsonType": "string", "minLength": 3},
				"secret_hash":    bson.M{"bsonType": "string"},
				"role":           bson.M{"enum": bson.A{"student", "employee", "institution", "super_admin"}},
				"status":         bson.M{"enum": bson.A{"active", "disabled"}},
				"protected":      bson.M{"bsonType": "bool"},
				"institution_id": bson.M{"bsonType": "objectId"},
			},
		},
	}
}

func institutionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "slug", "email_domain", "status"},
			"properties": bson.M{
				"name":         bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"name_ci":      bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"slug":         bson.M{"bsonType": "string", "minLength": 1},
				"email_domain": bson.M{"bsonType": "string", "minLength": 1},
				"status":       bson.M{"enum": bson.A{"pending", "approved", "rejected"}},
			},
		},
	}
}

func membershipsSchema() bson.M {
	// status is optional: legacy edges predate the approval flow and
	// carry no status field at all.
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "institution_id", "kind"},
			"properties": bson.M{
				"user_id":        bson.M{"bsonType": "objectId"},
				"institution_id": bson.M{"bsonType": "objectId"},
				"kind":           bson.M{"enum": bson.A{"student", "employee", "member_of"}},
				"status":         bson.M{"enum": bson.A{"", "pending", "active", "rejected"}},
				"created_at":     bson.M{"bsonType": "date"},
			},
		},
	}
}

func clubMembersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"club_id", "user_id", "institution_id", "role"},
			"properties": bson.M{
				"club_id":        bson.M{"bsonType": "objectId"},
				"user_id":        bson.M{"bsonType": "objectId"},
				"institution_id": bson.M{"bsonType": "objectId"},
				"role":           bson.M{"enum": bson.A{"member", "officer"}},
				"created_at":     bson.M{"bsonType": "date"},
			},
		},
	}
}

func advisoriesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"club_id", "user_id", "institution_id"},
			"properties": bson.M{
				"club_id":        bson.M{"bsonType": "objectId"},
				"user_id":        bson.M{"bsonType": "objectId"},
				"institution_id": bson.M{"bsonType": "objectId"},
				"created_at":     bson.M{"bsonType": "date"},
			},
		},
	}
}

func staffSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "institution_id"},
			"properties": bson.M{
				"user_id":        bson.M{"bsonType": "objectId"},
				"institution_id": bson.M{"bsonType": "objectId"},
				"created_at":     bson.M{"bsonType": "date"},
			},
		},
	}
}

func clubsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"institution_id", "name", "name_ci", "slug", "status"},
			"properties": bson.M{
				"institution_id": bson.M{"bsonType": "objectId"},
				"name":           bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"name_ci":        bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"slug":           bson.M{"bsonType": "string", "minLength": 1},
				"description":    bson.M{"bsonType": "string"},
				"status":         bson.M{"enum": bson.A{"pending", "approved", "rejected"}},
			},
		},
	}
}

func eventsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"institution_id", "title", "title_ci", "status"},
			"properties": bson.M{
				"institution_id": bson.M{"bsonType": "objectId"},
				"club_id":        bson.M{"bsonType": "objectId"},
				"title":          bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"title_ci":       bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"description":    bson.M{"bsonType": "string"},
				"status":         bson.M{"enum": bson.A{"draft", "pending", "published", "rejected", "hidden"}},
				"starts_at":      bson.M{"bsonType": "date"},
			},
		},
	}
}

func announcementsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"club_id", "institution_id", "title", "title_ci", "body", "status"},
			"properties": bson.M{
				"club_id":        bson.M{"bsonType": "objectId"},
				"institution_id": bson.M{"bsonType": "objectId"},
				"title":          bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"title_ci":       bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"body":           bson.M{"bsonType": "string"},
				"status":         bson.M{"enum": bson.A{"draft", "pending", "published", "rejected", "hidden"}},
			},
		},
	}
}
