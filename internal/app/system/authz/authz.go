// internal/app/system/authz/authz.go
package authz

import (
	"context"
	"errors"

	advisorystore "github.com/campushq/campushub/internal/app/store/advisories"
	clubmemberstore "github.com/campushq/campushub/internal/app/store/clubmembers"
	institutionstore "github.com/campushq/campushub/internal/app/store/institutions"
	staffstore "github.com/campushq/campushub/internal/app/store/staff"
	"github.com/campushq/campushub/internal/app/system/auth"
	"github.com/campushq/campushub/internal/app/system/status"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// InstitutionScope identifies the institution an institution-admin
// account administers, with the institution's approval status.
type InstitutionScope struct {
	ID     primitive.ObjectID
	Status string
}

// EmployeeScope carries an employee's staff and advisor reach.
type EmployeeScope struct {
	StaffInstitutionIDs []primitive.ObjectID
	AdvisorClubIDs      []primitive.ObjectID
}

// Capabilities is the derived authority of one principal. All
// predicates over it are pure; deriving it is the only part that
// touches the database.
type Capabilities struct {
	UserID      primitive.ObjectID
	Role        string
	Institution *InstitutionScope
	Clubs       []clubmemberstore.ClubRole
	Employee    *EmployeeScope
}

// Deriver loads Capabilities for a resolved principal.
type Deriver struct {
	institutions *institutionstore.Store
	clubMembers  *clubmemberstore.Store
	advisories   *advisorystore.Store
	staff        *staffstore.Store
}

func NewDeriver(institutions *institutionstore.Store, clubMembers *clubmemberstore.Store, advisories *advisorystore.Store, staff *staffstore.Store) *Deriver {
	return &Deriver{
		institutions: institutions,
		clubMembers:  clubMembers,
		advisories:   advisories,
		staff:        staff,
	}
}

// Derive builds the caller's Capabilities. Anonymous principals (nil)
// yield zero capabilities with an empty role.
func (d *Deriver) Derive(ctx context.Context, p *auth.Principal) (Capabilities, error) {
	if p == nil {
		return Capabilities{}, nil
	}

	caps := Capabilities{UserID: p.UserID, Role: p.Role}

	switch p.Role {
	case status.RoleSuperAdmin:
		return caps, nil

	case status.RoleInstitution:
		instID := p.UserID
		if p.InstitutionID != nil {
			instID = *p.InstitutionID
		}
		inst, err := d.institutions.GetByID(ctx, instID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return caps, nil
		}
		if err != nil {
			return Capabilities{}, err
		}
		caps.Institution = &InstitutionScope{ID: inst.ID, Status: inst.Status}
		return caps, nil
	}

	clubs, err := d.clubMembers.ListForUser(ctx, p.UserID)
	if err != nil {
		return Capabilities{}, err
	}
	for i := range clubs {
		clubs[i].Role = status.NormalizeClubRole(clubs[i].Role)
	}
	caps.Clubs = clubs

	if p.Role == status.RoleEmployee {
		staffIDs, err := d.staff.InstitutionIDsForUser(ctx, p.UserID)
		if err != nil {
			return Capabilities{}, err
		}
		advisorIDs, err := d.advisories.ClubIDsForUser(ctx, p.UserID)
		if err != nil {
			return Capabilities{}, err
		}
		caps.Employee = &EmployeeScope{
			StaffInstitutionIDs: staffIDs,
			AdvisorClubIDs:      advisorIDs,
		}
	}
	return caps, nil
}

// IsSuperAdmin reports whether the caller holds the platform-wide role.
func IsSuperAdmin(c Capabilities) bool {
	return c.Role == status.RoleSuperAdmin
}

// IsInstitutionAdmin reports whether the caller administers the given
// institution. Legacy institution sessions carry the institution's own
// ID as the principal identity, so that match is accepted too. The
// institution must have been approved.
func IsInstitutionAdmin(c Capabilities, institutionID primitive.ObjectID) bool {
	if c.Role != status.RoleInstitution {
		return false
	}
	if c.Institution == nil || !approvedInstitution(c.Institution.Status) {
		return false
	}
	return c.Institution.ID == institutionID || c.UserID == institutionID
}

// IsClubOfficer reports whether the caller holds the club's officer seat.
func IsClubOfficer(c Capabilities, clubID primitive.ObjectID) bool {
	for _, cr := range c.Clubs {
		if cr.ClubID == clubID && cr.Role == status.ClubOfficer {
			return true
		}
	}
	return false
}

// IsClubMember reports whether the caller belongs to the club.
func IsClubMember(c Capabilities, clubID primitive.ObjectID) bool {
	for _, cr := range c.Clubs {
		if cr.ClubID == clubID {
			return true
		}
	}
	return false
}

// IsClubAdvisor reports whether the caller advises the club.
func IsClubAdvisor(c Capabilities, clubID primitive.ObjectID) bool {
	if c.Employee == nil {
		return false
	}
	for _, id := range c.Employee.AdvisorClubIDs {
		if id == clubID {
			return true
		}
	}
	return false
}

// IsInstitutionStaff reports whether the caller is staff at the
// institution.
func IsInstitutionStaff(c Capabilities, institutionID primitive.ObjectID) bool {
	if c.Employee == nil {
		return false
	}
	for _, id := range c.Employee.StaffInstitutionIDs {
		if id == institutionID {
			return true
		}
	}
	return false
}

// approvedInstitution accepts both the approval vocabulary and the
// legacy "active" records that predate it.
func approvedInstitution(s string) bool {
	return s == status.Approved || s == status.Active
}
