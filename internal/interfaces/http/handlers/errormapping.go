package handlers

import (
	stderrors "errors"

	"github.com/gymdesk/accessbridge/internal/domain/member"
	"github.com/gymdesk/accessbridge/internal/infrastructure/accessvendor"
	"github.com/gymdesk/accessbridge/internal/infrastructure/cache"
	"github.com/gymdesk/accessbridge/internal/shared/errors"
)

// toAppError turns vendor and domain failures into the AppError envelope.
// Unknown errors pass through and render as internal errors.
func toAppError(err error) error {
	if errors.IsAppError(err) {
		return err
	}

	var (
		cfgErr    *accessvendor.ConfigError
		authErr   *accessvendor.AuthError
		vendorErr *accessvendor.VendorError
		callErr   *accessvendor.CallError
	)
	switch {
	case stderrors.As(err, &cfgErr):
		return errors.NewConfigurationError("Branch vendor integration is not configured", cfgErr.Reason)
	case stderrors.As(err, &authErr):
		return errors.NewUpstreamError("Vendor authentication failed")
	case stderrors.As(err, &vendorErr):
		return errors.NewUpstreamError("Vendor rejected the request", vendorErr.Code)
	case stderrors.As(err, &callErr):
		return errors.NewUpstreamError("Vendor API unavailable", callErr.Code)
	case stderrors.Is(err, member.ErrMemberNotFound):
		return errors.NewNotFoundError("Member not found")
	case stderrors.Is(err, cache.ErrLockHeld):
		return errors.NewConflictError("Branch reconciliation already in progress")
	}
	return err
}
