// Package status defines the status and role taxonomies shared by the
// stores, policies, and lifecycle handlers.
//
// Three status families exist:
//   - account statuses (users): active | disabled | pending
//   - approval statuses (institutions, clubs, membership edges):
//     pending | approved/active | rejected
//   - post statuses (events, announcements): draft | pending |
//     published | rejected | hidden
//
// Membership edges written before the approval flow existed carry no
// status at all; an empty membership status reads as pending.
package status

// Account statuses.
const (
	Active   = "active"
	Disabled = "disabled"
	Pending  = "pending"
)

// Approval statuses for institutions and clubs.
const (
	Approved = "approved"
	Rejected = "rejected"
)

// Post statuses for events and announcements.
const (
	Draft     = "draft"
	Published = "published"
	Hidden    = "hidden"
)

// Platform roles.
const (
	RoleStudent     = "student"
	RoleEmployee    = "employee"
	RoleInstitution = "institution"
	RoleSuperAdmin  = "super_admin"
)

// Club membership roles.
const (
	ClubMember  = "member"
	ClubOfficer = "officer"
)

// Membership edge kinds. MemberOf is the legacy untyped affiliation
// written before student/employee edges were split.
const (
	KindStudent  = "student"
	KindEmployee = "employee"
	KindMemberOf = "member_of"
)

// IsValidAccount reports whether s is a valid user account status.
func IsValidAccount(s string) bool {
	return s == Active || s == Disabled || s == Pending
}

// IsValidApproval reports whether s is a valid institution/club status.
func IsValidApproval(s string) bool {
	return s == Pending || s == Approved || s == Rejected
}

// IsValidMembership reports whether s is a valid membership edge status.
// The empty string is valid and reads as pending.
func IsValidMembership(s string) bool {
	return s == "" || s == Pending || s == Active || s == Rejected
}

// IsValidPost reports whether s is a valid event/announcement status.
func IsValidPost(s string) bool {
	switch s {
	case Draft, Pending, Published, Rejected, Hidden:
		return true
	}
	return false
}

// IsValidRole reports whether r is a recognized platform role.
func IsValidRole(r string) bool {
	switch r {
	case RoleStudent, RoleEmployee, RoleInstitution, RoleSuperAdmin:
		return true
	}
	return false
}

// NormalizeRole maps stored platform roles to their canonical form.
// Users created before roles existed have no role at all; they read as
// students.
func NormalizeRole(r string) string {
	if r == "" {
		return RoleStudent
	}
	return r
}

// NormalizeMembership maps a stored membership edge status to its
// effective value; edges without a status are pending.
func NormalizeMembership(s string) string {
	if s == "" {
		return Pending
	}
	return s
}

// NormalizeClubRole maps a club membership role to member unless it is
// exactly officer. Legacy edges carry free-form role strings.
func NormalizeClubRole(r string) string {
	if r == ClubOfficer {
		return ClubOfficer
	}
	return ClubMember
}
