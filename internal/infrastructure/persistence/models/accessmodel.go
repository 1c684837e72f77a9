package models

import (
	"time"

	"gorm.io/datatypes"
)

type AccessZoneModel struct {
	ID        uint   `gorm:"primaryKey"`
	BranchID  uint   `gorm:"index;not null"`
	Name      string `gorm:"size:100;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (AccessZoneModel) TableName() string {
	return "access_zones"
}

type AccessDoorModel struct {
	ID           uint   `gorm:"primaryKey"`
	VendorDoorID string `gorm:"size:64;not null;uniqueIndex:idx_door_branch_vendor"`
	BranchID     uint   `gorm:"not null;uniqueIndex:idx_door_branch_vendor"`
	ZoneID       uint   `gorm:"index;not null"`
	DeviceID     string `gorm:"size:64;index"`
	Name         string `gorm:"size:100"`
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (AccessDoorModel) TableName() string {
	return "access_doors"
}

// Schedule columns are shared by permissions and overrides. Weekdays is a
// JSON array of time.Weekday numbers (0 = Sunday).
type ScheduleColumns struct {
	ScheduleStart *string        `gorm:"size:5"`
	ScheduleEnd   *string        `gorm:"size:5"`
	Weekdays      datatypes.JSON `gorm:"type:json"`
}

type MembershipAccessPermissionModel struct {
	ID           uint   `gorm:"primaryKey"`
	MembershipID uint   `gorm:"not null;uniqueIndex:idx_perm_membership_zone"`
	ZoneID       uint   `gorm:"not null;uniqueIndex:idx_perm_membership_zone"`
	AccessType   string `gorm:"size:20;not null"`
	ScheduleColumns
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (MembershipAccessPermissionModel) TableName() string {
	return "membership_access_permissions"
}

type MemberAccessOverrideModel struct {
	ID         uint      `gorm:"primaryKey"`
	MemberID   uint      `gorm:"not null;index:idx_override_member_zone"`
	ZoneID     uint      `gorm:"not null;index:idx_override_member_zone"`
	AccessType string    `gorm:"size:20;not null"`
	ValidFrom  time.Time `gorm:"not null"`
	ValidUntil *time.Time
	Reason     string `gorm:"size:255"`
	ScheduleColumns
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (MemberAccessOverrideModel) TableName() string {
	return "member_access_overrides"
}
