package mappers

import (
	"github.com/gymdesk/accessbridge/internal/domain/branch"
	"github.com/gymdesk/accessbridge/internal/infrastructure/persistence/models"
)

func BranchSettingsToDomain(m *models.BranchVendorSettingsModel) *branch.Settings {
	return &branch.Settings{
		BranchID:  m.BranchID,
		BaseURL:   m.BaseURL,
		AppKey:    m.AppKey,
		AppSecret: m.AppSecret,
		OrgCode:   m.OrgCode,
		IsActive:  m.IsActive,
		UpdatedAt: m.UpdatedAt,
	}
}

func BranchSettingsToModel(s *branch.Settings) *models.BranchVendorSettingsModel {
	return &models.BranchVendorSettingsModel{
		BranchID:  s.BranchID,
		BaseURL:   s.BaseURL,
		AppKey:    s.AppKey,
		AppSecret: s.AppSecret,
		OrgCode:   s.OrgCode,
		IsActive:  s.IsActive,
	}
}

func TokenToDomain(m *models.VendorTokenModel) *branch.Token {
	return &branch.Token{BranchID: m.BranchID, Value: m.Token, ExpiresAt: m.ExpiresAt}
}
