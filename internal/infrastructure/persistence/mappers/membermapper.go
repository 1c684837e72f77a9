package mappers

import (
	"github.com/gymdesk/accessbridge/internal/domain/member"
	"github.com/gymdesk/accessbridge/internal/infrastructure/persistence/models"
)

func MemberToDomain(m *models.MemberModel) *member.Member {
	return &member.Member{
		ID:        m.ID,
		BranchID:  m.BranchID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Phone:     m.Phone,
		Role:      member.Role(m.Role),
	}
}

func MembershipToDomain(m *models.MembershipModel) *member.Membership {
	return &member.Membership{
		ID:        m.ID,
		MemberID:  m.MemberID,
		BranchID:  m.BranchID,
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
		Status:    member.MembershipStatus(m.Status),
	}
}

func VendorPersonToDomain(m *models.VendorPersonModel) *member.VendorPerson {
	return &member.VendorPerson{
		MemberID:  m.MemberID,
		BranchID:  m.BranchID,
		PersonID:  m.PersonID,
		UpdatedAt: m.UpdatedAt,
	}
}

type CredentialMapper interface {
	ToDomain(model *models.MemberAccessCredentialModel) *member.Credential
	ToModel(entity *member.Credential) *models.MemberAccessCredentialModel
	ToDomainList(models []*models.MemberAccessCredentialModel) []*member.Credential
}

type CredentialMapperImpl struct{}

func NewCredentialMapper() CredentialMapper {
	return &CredentialMapperImpl{}
}

func (m *CredentialMapperImpl) ToDomain(model *models.MemberAccessCredentialModel) *member.Credential {
	if model == nil {
		return nil
	}
	return member.ReconstructCredential(
		model.ID,
		model.MemberID,
		member.CredentialType(model.Type),
		model.Value,
		model.IsActive,
		model.IssuedAt,
		model.ExpiresAt,
		model.UpdatedAt,
	)
}

func (m *CredentialMapperImpl) ToModel(entity *member.Credential) *models.MemberAccessCredentialModel {
	if entity == nil {
		return nil
	}
	return &models.MemberAccessCredentialModel{
		ID:        entity.ID(),
		MemberID:  entity.MemberID(),
		Type:      string(entity.Type()),
		Value:     entity.Value(),
		IsActive:  entity.IsActive(),
		IssuedAt:  entity.IssuedAt(),
		ExpiresAt: entity.ExpiresAt(),
		UpdatedAt: entity.UpdatedAt(),
	}
}

func (m *CredentialMapperImpl) ToDomainList(list []*models.MemberAccessCredentialModel) []*member.Credential {
	out := make([]*member.Credential, 0, len(list))
	for _, model := range list {
		out = append(out, m.ToDomain(model))
	}
	return out
}
