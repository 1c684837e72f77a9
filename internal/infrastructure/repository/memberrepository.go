package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gymdesk/accessbridge/internal/domain/member"
	"github.com/gymdesk/accessbridge/internal/infrastructure/persistence/mappers"
	"github.com/gymdesk/accessbridge/internal/infrastructure/persistence/models"
	"github.com/gymdesk/accessbridge/internal/shared/db"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

// MemberRepository reads the platform's members and memberships tables.
type MemberRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewMemberRepository(gdb *gorm.DB, log logger.Interface) *MemberRepository {
	return &MemberRepository{db: gdb, logger: log}
}

var (
	_ member.Repository           = (*MemberRepository)(nil)
	_ member.MembershipRepository = (*MemberRepository)(nil)
)

func (r *MemberRepository) GetByID(ctx context.Context, memberID uint) (*member.Member, error) {
	var model models.MemberModel
	err := db.GetTxFromContext(ctx, r.db).First(&model, memberID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, member.ErrMemberNotFound
		}
		r.logger.Errorw("failed to get member", "member_id", memberID, "error", err)
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return mappers.MemberToDomain(&model), nil
}

func (r *MemberRepository) GetByIDs(ctx context.Context, memberIDs []uint) (map[uint]*member.Member, error) {
	out := make(map[uint]*member.Member, len(memberIDs))
	if len(memberIDs) == 0 {
		return out, nil
	}
	var list []*models.MemberModel
	if err := db.GetTxFromContext(ctx, r.db).Where("id IN ?", memberIDs).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	for _, m := range list {
		out[m.ID] = mappers.MemberToDomain(m)
	}
	return out, nil
}

func (r *MemberRepository) FindActive(ctx context.Context, memberID uint, at time.Time) (*member.Membership, error) {
	var model models.MembershipModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("member_id = ? AND status = ?", memberID, string(member.MembershipActive)).
		Where("start_date <= ? AND end_date >= ?", at.UTC(), at.UTC()).
		Order("end_date DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, member.ErrNoActiveMembership
		}
		return nil, fmt.Errorf("failed to get active membership: %w", err)
	}
	return mappers.MembershipToDomain(&model), nil
}

// CredentialRepository implements member.CredentialRepository.
type CredentialRepository struct {
	db     *gorm.DB
	logger logger.Interface
	mapper mappers.CredentialMapper
}

func NewCredentialRepository(gdb *gorm.DB, log logger.Interface) member.CredentialRepository {
	return &CredentialRepository{db: gdb, logger: log, mapper: mappers.NewCredentialMapper()}
}

func (r *CredentialRepository) ListActiveByMember(ctx context.Context, memberID uint) ([]*member.Credential, error) {
	var list []*models.MemberAccessCredentialModel
	if err := db.GetTxFromContext(ctx, r.db).
		Scopes(db.ActiveOnly()).
		Where("member_id = ?", memberID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list credentials", "member_id", memberID, "error", err)
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	return r.mapper.ToDomainList(list), nil
}

func (r *CredentialRepository) FindByValue(ctx context.Context, memberID uint, credType member.CredentialType, value string) (*member.Credential, error) {
	var model models.MemberAccessCredentialModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("member_id = ? AND type = ? AND value = ?", memberID, string(credType), value).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

// Save inserts a new credential or updates the existing row for the same
// member, type and value.
func (r *CredentialRepository) Save(ctx context.Context, cred *member.Credential) error {
	model := r.mapper.ToModel(cred)
	err := db.GetTxFromContext(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "member_id"}, {Name: "type"}, {Name: "value"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_active", "expires_at", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to save credential", "member_id", cred.MemberID(), "type", cred.Type(), "error", err)
		return fmt.Errorf("failed to save credential: %w", err)
	}
	if cred.ID() == 0 {
		cred.SetID(model.ID)
	}
	return nil
}

func (r *CredentialRepository) DeactivateAll(ctx context.Context, memberID uint, at time.Time) (int64, error) {
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.MemberAccessCredentialModel{}).
		Where("member_id = ? AND is_active = ?", memberID, true).
		Updates(map[string]any{"is_active": false, "updated_at": at.UTC()})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to deactivate credentials: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// VendorPersonRepository implements member.VendorPersonRepository.
type VendorPersonRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewVendorPersonRepository(gdb *gorm.DB, log logger.Interface) member.VendorPersonRepository {
	return &VendorPersonRepository{db: gdb, logger: log}
}

func (r *VendorPersonRepository) GetByMember(ctx context.Context, memberID, branchID uint) (*member.VendorPerson, error) {
	var model models.VendorPersonModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("member_id = ? AND branch_id = ?", memberID, branchID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, member.ErrVendorPersonNotFound
		}
		return nil, fmt.Errorf("failed to get vendor person: %w", err)
	}
	return mappers.VendorPersonToDomain(&model), nil
}

func (r *VendorPersonRepository) GetByPersonID(ctx context.Context, branchID uint, personID string) (*member.VendorPerson, error) {
	var model models.VendorPersonModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("branch_id = ? AND person_id = ?", branchID, personID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, member.ErrVendorPersonNotFound
		}
		return nil, fmt.Errorf("failed to get vendor person by person id: %w", err)
	}
	return mappers.VendorPersonToDomain(&model), nil
}

func (r *VendorPersonRepository) Save(ctx context.Context, p *member.VendorPerson) error {
	model := &models.VendorPersonModel{MemberID: p.MemberID, BranchID: p.BranchID, PersonID: p.PersonID}
	err := db.GetTxFromContext(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "member_id"}, {Name: "branch_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"person_id", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to save vendor person", "member_id", p.MemberID, "branch_id", p.BranchID, "error", err)
		return fmt.Errorf("failed to save vendor person: %w", err)
	}
	return nil
}
