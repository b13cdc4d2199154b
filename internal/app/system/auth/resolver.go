package auth

import (
	"context"
	"errors"

	institutionstore "github.com/campushq/campushub/internal/app/store/institutions"
	sessionstore "github.com/campushq/campushub/internal/app/store/sessions"
	userstore "github.com/campushq/campushub/internal/app/store/users"
	"github.com/campushq/campushub/internal/app/system/status"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Principal is the resolved caller identity carried through a request.
type Principal struct {
	UserID        primitive.ObjectID
	Role          string
	Email         string
	FullName      string
	InstitutionID *primitive.ObjectID

	// LegacyInstitution is set when the session resolved straight to an
	// institution record that predates per-institution user accounts.
	// UserID then holds the institution's ID as a stand-in identity.
	LegacyInstitution bool
}

// Resolver turns opaque session tokens into Principals.
type Resolver struct {
	sessions     *sessionstore.Store
	users        *userstore.Store
	institutions *institutionstore.Store
	log          *zap.Logger
}

func NewResolver(sessions *sessionstore.Store, users *userstore.Store, institutions *institutionstore.Store, logger *zap.Logger) *Resolver {
	return &Resolver{
		sessions:     sessions,
		users:        users,
		institutions: institutions,
		log:          logger,
	}
}

// Resolve looks up the session and its backing account. Unknown or
// expired tokens, missing accounts, and non-active accounts all resolve
// to (nil, nil): the caller is anonymous. Only infrastructure failures
// return an error.
func (rs *Resolver) Resolve(ctx context.Context, token string) (*Principal, error) {
	sess, err := rs.sessions.GetByToken(ctx, token)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if sess.UserID != nil {
		return rs.resolveUser(ctx, *sess.UserID)
	}
	if sess.LegacyInstitutionID != nil {
		return rs.resolveInstitution(ctx, *sess.LegacyInstitutionID)
	}

	prefix := token
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	rs.log.Warn("session has no account reference", zap.String("token_prefix", prefix))
	return nil, nil
}

func (rs *Resolver) resolveUser(ctx context.Context, userID primitive.ObjectID) (*Principal, error) {
	u, err := rs.users.GetByID(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if u.Status != status.Active {
		return nil, nil
	}
	return &Principal{
		UserID:        u.ID,
		Role:          status.NormalizeRole(u.Role),
		Email:         u.Email,
		FullName:      u.FullName,
		InstitutionID: u.InstitutionID,
	}, nil
}

// resolveInstitution handles sessions bound to a legacy institution
// record. A dedicated institution user account is preferred when one
// has since been created for the institution.
func (rs *Resolver) resolveInstitution(ctx context.Context, institutionID primitive.ObjectID) (*Principal, error) {
	u, err := rs.users.GetInstitutionAccount(ctx, institutionID)
	if err == nil {
		if u.Status != status.Active {
			return nil, nil
		}
		return &Principal{
			UserID:        u.ID,
			Role:          status.RoleInstitution,
			Email:         u.Email,
			FullName:      u.FullName,
			InstitutionID: &institutionID,
		}, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	inst, err := rs.institutions.GetByID(ctx, institutionID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Principal{
		UserID:            inst.ID,
		Role:              status.RoleInstitution,
		FullName:          inst.Name,
		InstitutionID:     &inst.ID,
		LegacyInstitution: true,
	}, nil
}
