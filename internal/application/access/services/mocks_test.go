package services

import (
	"context"
	"time"

	"github.com/gymdesk/accessbridge/internal/domain/access"
	"github.com/gymdesk/accessbridge/internal/domain/member"
)

type mockOverrideRepo struct {
	FindActiveFunc func(ctx context.Context, memberID, zoneID uint, at time.Time) (*access.MemberOverride, error)
}

func (m *mockOverrideRepo) FindActive(ctx context.Context, memberID, zoneID uint, at time.Time) (*access.MemberOverride, error) {
	if m.FindActiveFunc != nil {
		return m.FindActiveFunc(ctx, memberID, zoneID, at)
	}
	return nil, nil
}

type mockMembershipRepo struct {
	FindActiveFunc func(ctx context.Context, memberID uint, at time.Time) (*member.Membership, error)
}

func (m *mockMembershipRepo) FindActive(ctx context.Context, memberID uint, at time.Time) (*member.Membership, error) {
	if m.FindActiveFunc != nil {
		return m.FindActiveFunc(ctx, memberID, at)
	}
	return nil, member.ErrNoActiveMembership
}

type mockPermissionRepo struct {
	FindFunc func(ctx context.Context, membershipID, zoneID uint) (*access.MembershipPermission, error)
}

func (m *mockPermissionRepo) Find(ctx context.Context, membershipID, zoneID uint) (*access.MembershipPermission, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, membershipID, zoneID)
	}
	return nil, nil
}
