package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gymdesk/accessbridge/internal/domain/attendance"
	"github.com/gymdesk/accessbridge/internal/infrastructure/persistence/mappers"
	"github.com/gymdesk/accessbridge/internal/infrastructure/persistence/models"
	"github.com/gymdesk/accessbridge/internal/shared/db"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

// AccessEventRepository implements attendance.EventRepository.
type AccessEventRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewAccessEventRepository(gdb *gorm.DB, log logger.Interface) attendance.EventRepository {
	return &AccessEventRepository{db: gdb, logger: log}
}

func (r *AccessEventRepository) ListUnprocessed(ctx context.Context, branchID uint, limit int) ([]*attendance.AccessEvent, error) {
	var list []*models.AccessEventModel
	if err := db.GetTxFromContext(ctx, r.db).
		Scopes(db.ForBranch(branchID)).
		Where("processed = ?", false).
		Order("event_time ASC, id ASC").
		Limit(limit).
		Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list unprocessed events", "branch_id", branchID, "error", err)
		return nil, fmt.Errorf("failed to list unprocessed events: %w", err)
	}

	events := make([]*attendance.AccessEvent, 0, len(list))
	for _, m := range list {
		events = append(events, mappers.AccessEventToDomain(m))
	}
	return events, nil
}

func (r *AccessEventRepository) MarkProcessed(ctx context.Context, ids []uint, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.AccessEventModel{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"processed": true, "processed_at": at.UTC()}).Error; err != nil {
		return fmt.Errorf("failed to mark events processed: %w", err)
	}
	return nil
}

func (r *AccessEventRepository) SetAnomaly(ctx context.Context, id uint, anomaly string) error {
	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.AccessEventModel{}).
		Where("id = ?", id).
		Update("anomaly", anomaly).Error; err != nil {
		return fmt.Errorf("failed to set event anomaly: %w", err)
	}
	return nil
}

func (r *AccessEventRepository) InsertIgnoreDuplicates(ctx context.Context, events []*attendance.AccessEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	rows := make([]*models.AccessEventModel, 0, len(events))
	for _, e := range events {
		rows = append(rows, mappers.AccessEventToModel(e))
	}

	result := db.GetTxFromContext(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "vendor_event_id"}}, DoNothing: true}).
		Create(&rows)
	if result.Error != nil {
		r.logger.Errorw("failed to insert access events", "count", len(rows), "error", result.Error)
		return 0, fmt.Errorf("failed to insert access events: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

// AttendanceSessionRepository implements attendance.SessionRepository.
type AttendanceSessionRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewAttendanceSessionRepository(gdb *gorm.DB, log logger.Interface) attendance.SessionRepository {
	return &AttendanceSessionRepository{db: gdb, logger: log}
}

func (r *AttendanceSessionRepository) FindOpen(ctx context.Context, memberID, branchID uint) (*attendance.Session, error) {
	var model models.AttendanceSessionModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("member_id = ? AND branch_id = ? AND check_out IS NULL", memberID, branchID).
		Order("check_in DESC, id DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open session: %w", err)
	}
	return mappers.SessionToDomain(&model), nil
}

func (r *AttendanceSessionRepository) FindClosedAt(ctx context.Context, memberID, branchID uint, at time.Time) (*attendance.Session, error) {
	var model models.AttendanceSessionModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("member_id = ? AND branch_id = ? AND check_out = ?", memberID, branchID, at.UTC()).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find closed session: %w", err)
	}
	return mappers.SessionToDomain(&model), nil
}

func (r *AttendanceSessionRepository) FindByCheckIn(ctx context.Context, memberID, branchID uint, at time.Time) (*attendance.Session, error) {
	var model models.AttendanceSessionModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("member_id = ? AND branch_id = ? AND check_in = ?", memberID, branchID, at.UTC()).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session by check-in: %w", err)
	}
	return mappers.SessionToDomain(&model), nil
}

func (r *AttendanceSessionRepository) Create(ctx context.Context, s *attendance.Session) error {
	model := mappers.SessionToModel(s)
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create attendance session", "member_id", s.MemberID(), "error", err)
		return fmt.Errorf("failed to create attendance session: %w", err)
	}
	s.SetID(model.ID)
	return nil
}

func (r *AttendanceSessionRepository) Update(ctx context.Context, s *attendance.Session) error {
	checkOut := s.CheckOut()
	if checkOut != nil {
		utc := checkOut.UTC()
		checkOut = &utc
	}
	// check_out IS NULL guard: a closed session is never overwritten.
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.AttendanceSessionModel{}).
		Where("id = ? AND check_out IS NULL", s.ID()).
		Updates(map[string]any{
			"check_out":        checkOut,
			"duration_minutes": s.DurationMinutes(),
			"notes":            s.Notes(),
			"updated_at":       s.UpdatedAt(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update attendance session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return attendance.ErrSessionClosed
	}
	return nil
}
