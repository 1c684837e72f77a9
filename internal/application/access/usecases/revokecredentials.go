package usecases

import (
	"context"
	"fmt"

	"github.com/gymdesk/accessbridge/internal/domain/member"
	"github.com/gymdesk/accessbridge/internal/domain/synclog"
	"github.com/gymdesk/accessbridge/internal/shared/biztime"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

// RevokeCredentialsUseCase deactivates a member's credentials locally. Rows
// are kept for audit; the next member sync pushes the reduced set.
type RevokeCredentialsUseCase struct {
	credentials member.CredentialRepository
	syncLog     SyncLogRecorder
	clock       biztime.Clock
	logger      logger.Interface
}

func NewRevokeCredentialsUseCase(
	credentials member.CredentialRepository,
	syncLog SyncLogRecorder,
	clock biztime.Clock,
	log logger.Interface,
) *RevokeCredentialsUseCase {
	if clock == nil {
		clock = biztime.NowUTC
	}
	return &RevokeCredentialsUseCase{
		credentials: credentials,
		syncLog:     syncLog,
		clock:       clock,
		logger:      log.Named("revoke-credentials"),
	}
}

// Execute returns the number of credentials deactivated.
func (uc *RevokeCredentialsUseCase) Execute(ctx context.Context, branchID, memberID uint) (int64, error) {
	n, err := uc.credentials.DeactivateAll(ctx, memberID, uc.clock.Now().UTC())
	if err != nil {
		uc.logger.Errorw("failed to revoke credentials", "member_id", memberID, "error", err)
		return 0, fmt.Errorf("failed to revoke credentials: %w", err)
	}

	uc.logger.Infow("credentials revoked", "member_id", memberID, "branch_id", branchID, "count", n)
	uc.syncLog.Log(ctx, synclog.Record{
		BranchID: branchID,
		Category: synclog.CategoryInfo,
		Status:   synclog.StatusSuccess,
		Message:  fmt.Sprintf("revoked %d credentials", n),
		Details:  map[string]any{"member_id": memberID, "count": n},
		Entity:   synclog.Ref(entityMember, memberID),
	})
	return n, nil
}
