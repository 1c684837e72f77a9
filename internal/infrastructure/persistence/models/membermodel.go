package models

import "time"

// MemberModel and MembershipModel map platform-owned tables. This service
// only reads them; migrate creates them for local sqlite setups only.
type MemberModel struct {
	ID        uint   `gorm:"primaryKey"`
	BranchID  uint   `gorm:"index;not null"`
	FirstName string `gorm:"size:100;not null"`
	LastName  string `gorm:"size:100"`
	Phone     string `gorm:"size:32"`
	Role      string `gorm:"size:20;not null;default:'member'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (MemberModel) TableName() string {
	return "members"
}

type MembershipModel struct {
	ID        uint      `gorm:"primaryKey"`
	MemberID  uint      `gorm:"index;not null"`
	BranchID  uint      `gorm:"index;not null"`
	StartDate time.Time `gorm:"not null"`
	EndDate   time.Time `gorm:"not null"`
	Status    string    `gorm:"size:20;not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (MembershipModel) TableName() string {
	return "memberships"
}

type MemberAccessCredentialModel struct {
	ID        uint   `gorm:"primaryKey"`
	MemberID  uint   `gorm:"not null;uniqueIndex:idx_cred_member_type_value"`
	Type      string `gorm:"size:20;not null;uniqueIndex:idx_cred_member_type_value"`
	Value     string `gorm:"size:255;not null;uniqueIndex:idx_cred_member_type_value"`
	IsActive  bool   `gorm:"not null;default:true;index"`
	IssuedAt  time.Time
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (MemberAccessCredentialModel) TableName() string {
	return "member_access_credentials"
}

type VendorPersonModel struct {
	ID        uint   `gorm:"primaryKey"`
	MemberID  uint   `gorm:"not null;uniqueIndex:idx_vendor_person_member_branch"`
	BranchID  uint   `gorm:"not null;uniqueIndex:idx_vendor_person_member_branch;index:idx_vendor_person_branch_person"`
	PersonID  string `gorm:"size:64;not null;index:idx_vendor_person_branch_person"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (VendorPersonModel) TableName() string {
	return "vendor_persons"
}
