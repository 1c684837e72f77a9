package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/gymdesk/accessbridge/internal/domain/synclog"
	"github.com/gymdesk/accessbridge/internal/infrastructure/persistence/mappers"
	"github.com/gymdesk/accessbridge/internal/infrastructure/persistence/models"
	"github.com/gymdesk/accessbridge/internal/shared/db"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
	"github.com/gymdesk/accessbridge/internal/shared/utils"
)

// SyncLogRepository implements synclog.Repository.
type SyncLogRepository struct {
	db     *gorm.DB
	logger logger.Interface
	mapper mappers.SyncLogMapper
}

func NewSyncLogRepository(gdb *gorm.DB, log logger.Interface) synclog.Repository {
	return &SyncLogRepository{db: gdb, logger: log, mapper: mappers.NewSyncLogMapper()}
}

func (r *SyncLogRepository) Create(ctx context.Context, entry *synclog.Entry) error {
	model, err := r.mapper.ToModel(entry)
	if err != nil {
		return err
	}
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create sync log entry: %w", err)
	}
	return nil
}

func (r *SyncLogRepository) CompletePending(ctx context.Context, entry *synclog.Entry) error {
	model, err := r.mapper.ToModel(entry)
	if err != nil {
		return err
	}
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.SyncLogModel{}).
		Where("id = ? AND status = ?", entry.ID(), string(synclog.StatusPending)).
		Updates(map[string]any{
			"status":     model.Status,
			"category":   model.Category,
			"message":    model.Message,
			"details":    model.Details,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to complete sync log entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return synclog.ErrNotPending
	}
	return nil
}

func (r *SyncLogRepository) GetByID(ctx context.Context, id string) (*synclog.Entry, error) {
	var model models.SyncLogModel
	err := db.GetTxFromContext(ctx, r.db).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, synclog.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get sync log entry: %w", err)
	}
	return r.mapper.ToDomain(&model)
}

func (r *SyncLogRepository) List(ctx context.Context, filter synclog.Filter) ([]*synclog.Entry, int64, error) {
	query := db.GetTxFromContext(ctx, r.db).Model(&models.SyncLogModel{}).Scopes(db.ForBranch(filter.BranchID))

	if filter.Category != nil {
		query = query.Where("category = ?", string(*filter.Category))
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", filter.To.UTC())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sync log entries: %w", err)
	}

	page := utils.ValidatePagination(filter.Page, filter.PageSize)
	var list []*models.SyncLogModel
	if err := query.
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list sync log entries", "branch_id", filter.BranchID, "error", err)
		return nil, 0, fmt.Errorf("failed to list sync log entries: %w", err)
	}

	entries := make([]*synclog.Entry, 0, len(list))
	for _, m := range list {
		e, err := r.mapper.ToDomain(m)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, nil
}
