package models

import "time"

type AccessEventModel struct {
	ID            uint   `gorm:"primaryKey"`
	VendorEventID string `gorm:"size:64;not null;uniqueIndex"`
	BranchID      uint   `gorm:"not null;index:idx_event_branch_pending"`
	MemberID      *uint  `gorm:"index"`
	DoorID        *uint
	DeviceID      string    `gorm:"size:64"`
	EventTime     time.Time `gorm:"not null;index:idx_event_branch_pending"`
	EventType     string    `gorm:"size:20;not null"`
	Processed     bool      `gorm:"not null;default:false;index:idx_event_branch_pending"`
	ProcessedAt   *time.Time
	Anomaly       string `gorm:"size:64"`
	CreatedAt     time.Time
}

func (AccessEventModel) TableName() string {
	return "access_events"
}

type AttendanceSessionModel struct {
	ID              uint      `gorm:"primaryKey"`
	MemberID        uint      `gorm:"not null;index:idx_session_member_branch"`
	BranchID        uint      `gorm:"not null;index:idx_session_member_branch"`
	CheckIn         time.Time `gorm:"not null"`
	CheckOut        *time.Time
	DurationMinutes *int
	Source          string `gorm:"size:32;not null"`
	DoorRef         string `gorm:"size:64"`
	MemberRole      string `gorm:"size:20"`
	Notes           string `gorm:"size:255"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (AttendanceSessionModel) TableName() string {
	return "attendance_sessions"
}
