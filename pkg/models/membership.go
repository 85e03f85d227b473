package models

import "time"

// Membership roles, in the order the upstream sources report them.
const (
	RoleMember      = "member"
	RoleChair       = "chair"
	RoleViceChair   = "vice-chair"
	RoleCoordinator = "coordinator"
	RoleSubstitute  = "substitute"
)

// Membership links one MEP to one committee. The (mep_id, committee_id) pair is
// the primary key; the role may be updated in place but the pairing is stable.
type Membership struct {
	MEPID         string    `db:"mep_id" json:"mepId"`
	CommitteeID   string    `db:"committee_id" json:"committeeId"`
	CommitteeCode string    `db:"committee_code" json:"committeeCode,omitempty"`
	CommitteeName string    `db:"committee_name" json:"committeeName,omitempty"`
	Role          string    `db:"role" json:"role"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// ValidRole reports whether role is one of the recognized membership roles.
func ValidRole(role string) bool {
	switch role {
	case RoleMember, RoleChair, RoleViceChair, RoleCoordinator, RoleSubstitute:
		return true
	}
	return false
}
