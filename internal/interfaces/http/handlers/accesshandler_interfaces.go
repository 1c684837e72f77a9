package handlers

import (
	"context"

	"github.com/gymdesk/accessbridge/internal/application/access/usecases"
)

// Use case interfaces for AccessHandler

type syncMemberUseCase interface {
	Execute(ctx context.Context, memberID, branchID uint) (*usecases.SyncMemberResult, error)
}

type registerCardUseCase interface {
	Execute(ctx context.Context, cmd usecases.RegisterCardCommand) (*usecases.RegisterCardResult, error)
}

type revokeCredentialsUseCase interface {
	Execute(ctx context.Context, branchID, memberID uint) (int64, error)
}

type zoneAccessChecker interface {
	HasZoneAccess(ctx context.Context, memberID, zoneID uint) (bool, error)
}
