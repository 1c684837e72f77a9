package mappers

import (
	"fmt"

	"github.com/gymdesk/accessbridge/internal/domain/access"
	"github.com/gymdesk/accessbridge/internal/infrastructure/persistence/models"
)

func ZoneToDomain(m *models.AccessZoneModel) *access.Zone {
	return &access.Zone{ID: m.ID, BranchID: m.BranchID, Name: m.Name}
}

func DoorToDomain(m *models.AccessDoorModel) *access.Door {
	return &access.Door{
		ID:           m.ID,
		VendorDoorID: m.VendorDoorID,
		ZoneID:       m.ZoneID,
		BranchID:     m.BranchID,
		DeviceID:     m.DeviceID,
		Name:         m.Name,
		IsActive:     m.IsActive,
	}
}

func PermissionToDomain(m *models.MembershipAccessPermissionModel) (*access.MembershipPermission, error) {
	accessType, err := access.ParseAccessType(m.AccessType)
	if err != nil {
		return nil, err
	}
	schedule, err := ScheduleFromColumns(m.ScheduleColumns)
	if err != nil {
		return nil, fmt.Errorf("permission %d: %w", m.ID, err)
	}
	return &access.MembershipPermission{
		ID:           m.ID,
		MembershipID: m.MembershipID,
		ZoneID:       m.ZoneID,
		AccessType:   accessType,
		Schedule:     schedule,
	}, nil
}

func OverrideToDomain(m *models.MemberAccessOverrideModel) (*access.MemberOverride, error) {
	accessType, err := access.ParseAccessType(m.AccessType)
	if err != nil {
		return nil, err
	}
	schedule, err := ScheduleFromColumns(m.ScheduleColumns)
	if err != nil {
		return nil, fmt.Errorf("override %d: %w", m.ID, err)
	}
	return &access.MemberOverride{
		ID:         m.ID,
		MemberID:   m.MemberID,
		ZoneID:     m.ZoneID,
		AccessType: accessType,
		ValidFrom:  m.ValidFrom,
		ValidUntil: m.ValidUntil,
		Schedule:   schedule,
		Reason:     m.Reason,
	}, nil
}
