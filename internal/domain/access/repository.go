package access

import (
	"context"
	"time"
)

type ZoneRepository interface {
	ListByBranch(ctx context.Context, branchID uint) ([]*Zone, error)
}

type DoorRepository interface {
	ListActiveByZones(ctx context.Context, zoneIDs []uint) ([]*Door, error)
	ListActiveByBranch(ctx context.Context, branchID uint) ([]*Door, error)
	// GetByVendorDoorID returns nil, nil when the vendor door is unknown.
	GetByVendorDoorID(ctx context.Context, branchID uint, vendorDoorID string) (*Door, error)
}

type PermissionRepository interface {
	// Find returns nil, nil when the membership has no rule for the zone.
	Find(ctx context.Context, membershipID, zoneID uint) (*MembershipPermission, error)
}

type OverrideRepository interface {
	// FindActive returns the most recently started override valid at at, or
	// nil, nil when there is none.
	FindActive(ctx context.Context, memberID, zoneID uint, at time.Time) (*MemberOverride, error)
}
