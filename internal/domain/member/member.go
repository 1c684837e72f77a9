// Package member exposes the read-only member and membership records owned
// by the gym platform, plus the access credentials this service manages.
package member

import (
	"strings"
	"time"
)

type Role string

const (
	RoleMember  Role = "member"
	RoleTrainer Role = "trainer"
	RoleStaff   Role = "staff"
)

type Member struct {
	ID        uint
	BranchID  uint
	FirstName string
	LastName  string
	Phone     string
	Role      Role
}

func (m *Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "active"
	MembershipFrozen    MembershipStatus = "frozen"
	MembershipExpired   MembershipStatus = "expired"
	MembershipCancelled MembershipStatus = "cancelled"
)

type Membership struct {
	ID        uint
	MemberID  uint
	BranchID  uint
	StartDate time.Time
	EndDate   time.Time
	Status    MembershipStatus
}

// IsActiveAt reports an active-status membership whose dates cover at.
func (m *Membership) IsActiveAt(at time.Time) bool {
	if m.Status != MembershipActive {
		return false
	}
	return !at.Before(m.StartDate) && !at.After(m.EndDate)
}

// VendorPerson links a member to the person record the vendor created for
// them in one branch.
type VendorPerson struct {
	MemberID  uint
	BranchID  uint
	PersonID  string
	UpdatedAt time.Time
}
