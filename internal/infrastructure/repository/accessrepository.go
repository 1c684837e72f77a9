package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gymdesk/accessbridge/internal/domain/access"
	"github.com/gymdesk/accessbridge/internal/infrastructure/persistence/mappers"
	"github.com/gymdesk/accessbridge/internal/infrastructure/persistence/models"
	"github.com/gymdesk/accessbridge/internal/shared/db"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

// AccessRepository serves zones, doors, membership permissions and member
// overrides. It implements the four access repository interfaces.
type AccessRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewAccessRepository(gdb *gorm.DB, log logger.Interface) *AccessRepository {
	return &AccessRepository{db: gdb, logger: log}
}

var (
	_ access.ZoneRepository       = (*AccessRepository)(nil)
	_ access.DoorRepository       = (*AccessRepository)(nil)
	_ access.PermissionRepository = (*AccessRepository)(nil)
	_ access.OverrideRepository   = (*AccessRepository)(nil)
)

func (r *AccessRepository) ListByBranch(ctx context.Context, branchID uint) ([]*access.Zone, error) {
	var list []*models.AccessZoneModel
	if err := db.GetTxFromContext(ctx, r.db).
		Scopes(db.ForBranch(branchID)).
		Order("id ASC").
		Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list zones", "branch_id", branchID, "error", err)
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}

	zones := make([]*access.Zone, 0, len(list))
	for _, m := range list {
		zones = append(zones, mappers.ZoneToDomain(m))
	}
	return zones, nil
}

func (r *AccessRepository) ListActiveByZones(ctx context.Context, zoneIDs []uint) ([]*access.Door, error) {
	if len(zoneIDs) == 0 {
		return []*access.Door{}, nil
	}
	var list []*models.AccessDoorModel
	if err := db.GetTxFromContext(ctx, r.db).
		Scopes(db.ActiveOnly()).
		Where("zone_id IN ?", zoneIDs).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list doors by zones: %w", err)
	}
	return doorsToDomain(list), nil
}

func (r *AccessRepository) ListActiveByBranch(ctx context.Context, branchID uint) ([]*access.Door, error) {
	var list []*models.AccessDoorModel
	if err := db.GetTxFromContext(ctx, r.db).
		Scopes(db.ForBranch(branchID), db.ActiveOnly()).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list doors by branch: %w", err)
	}
	return doorsToDomain(list), nil
}

func (r *AccessRepository) GetByVendorDoorID(ctx context.Context, branchID uint, vendorDoorID string) (*access.Door, error) {
	var model models.AccessDoorModel
	err := db.GetTxFromContext(ctx, r.db).
		Scopes(db.ForBranch(branchID)).
		Where("vendor_door_id = ?", vendorDoorID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get door by vendor id: %w", err)
	}
	return mappers.DoorToDomain(&model), nil
}

func (r *AccessRepository) Find(ctx context.Context, membershipID, zoneID uint) (*access.MembershipPermission, error) {
	var model models.MembershipAccessPermissionModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("membership_id = ? AND zone_id = ?", membershipID, zoneID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get membership permission: %w", err)
	}
	return mappers.PermissionToDomain(&model)
}

func (r *AccessRepository) FindActive(ctx context.Context, memberID, zoneID uint, at time.Time) (*access.MemberOverride, error) {
	var model models.MemberAccessOverrideModel
	err := db.GetTxFromContext(ctx, r.db).
		Scopes(db.ValidAt(at.UTC())).
		Where("member_id = ? AND zone_id = ?", memberID, zoneID).
		Order("valid_from DESC, id DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member override: %w", err)
	}
	return mappers.OverrideToDomain(&model)
}

func doorsToDomain(list []*models.AccessDoorModel) []*access.Door {
	doors := make([]*access.Door, 0, len(list))
	for _, m := range list {
		doors = append(doors, mappers.DoorToDomain(m))
	}
	return doors
}
