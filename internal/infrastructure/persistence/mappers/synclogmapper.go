package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/gymdesk/accessbridge/internal/domain/synclog"
	"github.com/gymdesk/accessbridge/internal/infrastructure/persistence/models"
)

type SyncLogMapper interface {
	ToDomain(model *models.SyncLogModel) (*synclog.Entry, error)
	ToModel(entry *synclog.Entry) (*models.SyncLogModel, error)
}

type SyncLogMapperImpl struct{}

func NewSyncLogMapper() SyncLogMapper {
	return &SyncLogMapperImpl{}
}

func (m *SyncLogMapperImpl) ToDomain(model *models.SyncLogModel) (*synclog.Entry, error) {
	if model == nil {
		return nil, nil
	}

	var details map[string]any
	if len(model.Details) > 0 {
		if err := json.Unmarshal(model.Details, &details); err != nil {
			return nil, fmt.Errorf("failed to decode sync log details: %w", err)
		}
	}

	var entity *synclog.EntityRef
	if model.EntityType != nil && model.EntityID != nil {
		entity = &synclog.EntityRef{Type: *model.EntityType, ID: *model.EntityID}
	}

	return synclog.ReconstructEntry(
		model.ID,
		model.BranchID,
		synclog.Category(model.Category),
		synclog.Status(model.Status),
		model.Message,
		details,
		entity,
		model.CreatedAt,
		model.UpdatedAt,
	), nil
}

func (m *SyncLogMapperImpl) ToModel(entry *synclog.Entry) (*models.SyncLogModel, error) {
	if entry == nil {
		return nil, nil
	}

	raw, err := json.Marshal(entry.Details())
	if err != nil {
		return nil, fmt.Errorf("failed to encode sync log details: %w", err)
	}

	model := &models.SyncLogModel{
		ID:        entry.ID(),
		BranchID:  entry.BranchID(),
		Category:  string(entry.Category()),
		Status:    string(entry.Status()),
		Message:   entry.Message(),
		Details:   datatypes.JSON(raw),
		CreatedAt: entry.CreatedAt(),
		UpdatedAt: entry.UpdatedAt(),
	}
	if ref := entry.Entity(); ref != nil {
		model.EntityType = &ref.Type
		model.EntityID = &ref.ID
	}
	return model, nil
}
