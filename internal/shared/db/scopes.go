package db

import (
	"time"

	"gorm.io/gorm"
)

// ForBranch restricts a query to one gym branch.
func ForBranch(branchID uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("branch_id = ?", branchID)
	}
}

// ActiveOnly keeps rows whose is_active flag is set.
func ActiveOnly() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("is_active = ?", true)
	}
}

// ValidAt keeps rows whose [valid_from, valid_until] window contains at.
// A NULL valid_until is open-ended.
func ValidAt(at time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("valid_from <= ?", at).
			Where("valid_until IS NULL OR valid_until >= ?", at)
	}
}
