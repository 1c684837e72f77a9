package models

import (
	"time"

	"gorm.io/datatypes"
)

type SyncLogModel struct {
	ID         string         `gorm:"primaryKey;size:36"`
	BranchID   uint           `gorm:"not null;index:idx_sync_log_branch_created"`
	Category   string         `gorm:"size:20;not null;index"`
	Status     string         `gorm:"size:20;not null"`
	Message    string         `gorm:"size:500;not null"`
	Details    datatypes.JSON `gorm:"type:json"`
	EntityType *string        `gorm:"size:32"`
	EntityID   *string        `gorm:"size:64"`
	CreatedAt  time.Time      `gorm:"index:idx_sync_log_branch_created"`
	UpdatedAt  time.Time
}

func (SyncLogModel) TableName() string {
	return "sync_logs"
}
