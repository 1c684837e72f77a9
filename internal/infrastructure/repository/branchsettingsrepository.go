package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gymdesk/accessbridge/internal/domain/branch"
	"github.com/gymdesk/accessbridge/internal/infrastructure/persistence/mappers"
	"github.com/gymdesk/accessbridge/internal/infrastructure/persistence/models"
	"github.com/gymdesk/accessbridge/internal/shared/db"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

// BranchSettingsRepository implements branch.SettingsRepository.
type BranchSettingsRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewBranchSettingsRepository(gdb *gorm.DB, log logger.Interface) branch.SettingsRepository {
	return &BranchSettingsRepository{db: gdb, logger: log}
}

func (r *BranchSettingsRepository) GetByBranchID(ctx context.Context, branchID uint) (*branch.Settings, error) {
	var model models.BranchVendorSettingsModel
	err := db.GetTxFromContext(ctx, r.db).Where("branch_id = ?", branchID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, branch.ErrSettingsNotFound
		}
		r.logger.Errorw("failed to get branch settings", "branch_id", branchID, "error", err)
		return nil, fmt.Errorf("failed to get branch settings: %w", err)
	}
	return mappers.BranchSettingsToDomain(&model), nil
}

func (r *BranchSettingsRepository) ListActive(ctx context.Context) ([]*branch.Settings, error) {
	var list []*models.BranchVendorSettingsModel
	if err := db.GetTxFromContext(ctx, r.db).
		Scopes(db.ActiveOnly()).
		Order("branch_id ASC").
		Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list active branches", "error", err)
		return nil, fmt.Errorf("failed to list active branches: %w", err)
	}

	out := make([]*branch.Settings, 0, len(list))
	for _, m := range list {
		out = append(out, mappers.BranchSettingsToDomain(m))
	}
	return out, nil
}

func (r *BranchSettingsRepository) Save(ctx context.Context, s *branch.Settings) error {
	model := mappers.BranchSettingsToModel(s)
	err := db.GetTxFromContext(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "branch_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"base_url", "app_key", "app_secret", "org_code", "is_active", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to save branch settings", "branch_id", s.BranchID, "error", err)
		return fmt.Errorf("failed to save branch settings: %w", err)
	}
	return nil
}

// VendorTokenRepository implements branch.TokenRepository on the
// vendor_tokens table.
type VendorTokenRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewVendorTokenRepository(gdb *gorm.DB, log logger.Interface) branch.TokenRepository {
	return &VendorTokenRepository{db: gdb, logger: log}
}

func (r *VendorTokenRepository) Get(ctx context.Context, branchID uint) (*branch.Token, error) {
	var model models.VendorTokenModel
	err := db.GetTxFromContext(ctx, r.db).Where("branch_id = ?", branchID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, branch.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get vendor token: %w", err)
	}
	return mappers.TokenToDomain(&model), nil
}

func (r *VendorTokenRepository) Save(ctx context.Context, token *branch.Token) error {
	model := &models.VendorTokenModel{
		BranchID:  token.BranchID,
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt.UTC(),
	}
	err := db.GetTxFromContext(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "branch_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "expires_at", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to persist vendor token", "branch_id", token.BranchID, "error", err)
		return fmt.Errorf("failed to persist vendor token: %w", err)
	}
	return nil
}

func (r *VendorTokenRepository) Delete(ctx context.Context, branchID uint) error {
	if err := db.GetTxFromContext(ctx, r.db).
		Where("branch_id = ?", branchID).
		Delete(&models.VendorTokenModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete vendor token: %w", err)
	}
	return nil
}
