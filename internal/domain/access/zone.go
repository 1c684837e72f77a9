package access

import "time"

type Zone struct {
	ID       uint
	BranchID uint
	Name     string
}

// Door is a physical door registered with the vendor. VendorDoorID is the
// identifier the vendor expects in privilege configuration.
type Door struct {
	ID           uint
	VendorDoorID string
	ZoneID       uint
	BranchID     uint
	DeviceID     string
	Name         string
	IsActive     bool
}

// MembershipPermission grants or denies a zone to every holder of a membership.
type MembershipPermission struct {
	ID           uint
	MembershipID uint
	ZoneID       uint
	AccessType   AccessType
	Schedule     *Schedule
}

// MemberOverride is a per-member rule that takes precedence over the
// membership's permission for the same zone.
type MemberOverride struct {
	ID         uint
	MemberID   uint
	ZoneID     uint
	AccessType AccessType
	ValidFrom  time.Time
	ValidUntil *time.Time
	Schedule   *Schedule
	Reason     string
}

// ActiveAt reports whether at lies in [ValidFrom, ValidUntil].
func (o *MemberOverride) ActiveAt(at time.Time) bool {
	if at.Before(o.ValidFrom) {
		return false
	}
	return o.ValidUntil == nil || !at.After(*o.ValidUntil)
}
