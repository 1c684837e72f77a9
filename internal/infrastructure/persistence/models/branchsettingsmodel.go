package models

import "time"

// BranchVendorSettingsModel holds one branch's vendor API credentials.
type BranchVendorSettingsModel struct {
	BranchID  uint   `gorm:"primaryKey;autoIncrement:false"`
	BaseURL   string `gorm:"size:255;not null"`
	AppKey    string `gorm:"size:128;not null"`
	AppSecret string `gorm:"size:255;not null"`
	OrgCode   string `gorm:"size:64"`
	IsActive  bool   `gorm:"not null;default:true;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (BranchVendorSettingsModel) TableName() string {
	return "branch_vendor_settings"
}

// VendorTokenModel mirrors the in-memory token cache so a restart does not
// force every branch to re-authenticate.
type VendorTokenModel struct {
	BranchID  uint      `gorm:"primaryKey;autoIncrement:false"`
	Token     string    `gorm:"type:text;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	UpdatedAt time.Time
}

func (VendorTokenModel) TableName() string {
	return "vendor_tokens"
}
