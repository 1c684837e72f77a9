package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gymdesk/accessbridge/internal/application/access/usecases"
	"github.com/gymdesk/accessbridge/internal/shared/biztime"
	"github.com/gymdesk/accessbridge/internal/shared/errors"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
	"github.com/gymdesk/accessbridge/internal/shared/utils"
)

// AccessHandler exposes credential sync and access checks to the platform.
type AccessHandler struct {
	syncMemberUC        syncMemberUseCase
	registerCardUC      registerCardUseCase
	revokeCredentialsUC revokeCredentialsUseCase
	checker             zoneAccessChecker
	logger              logger.Interface
}

func NewAccessHandler(
	syncMemberUC syncMemberUseCase,
	registerCardUC registerCardUseCase,
	revokeCredentialsUC revokeCredentialsUseCase,
	checker zoneAccessChecker,
	log logger.Interface,
) *AccessHandler {
	return &AccessHandler{
		syncMemberUC:        syncMemberUC,
		registerCardUC:      registerCardUC,
		revokeCredentialsUC: revokeCredentialsUC,
		checker:             checker,
		logger:              log.Named("http.access"),
	}
}

type RegisterCardRequest struct {
	CardNumber string `json:"card_number" binding:"required,max=64"`
}

// SyncMember handles POST /branches/:branch_id/members/:member_id/sync
func (h *AccessHandler) SyncMember(c *gin.Context) {
	branchID, err := utils.ParseUintParam(c, "branch_id", "branch")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	memberID, err := utils.ParseUintParam(c, "member_id", "member")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.syncMemberUC.Execute(c.Request.Context(), memberID, branchID)
	if err != nil {
		h.logger.Warnw("member sync failed", "branch_id", branchID, "member_id", memberID, "error", err)
		utils.ErrorResponseWithError(c, toAppError(err))
		return
	}

	message := "Member synced to access devices"
	if !result.Synced {
		message = "Member sync skipped"
	}
	utils.SuccessResponse(c, http.StatusOK, message, toSyncMemberResponse(result))
}

// RegisterCard handles POST /branches/:branch_id/members/:member_id/cards
func (h *AccessHandler) RegisterCard(c *gin.Context) {
	branchID, err := utils.ParseUintParam(c, "branch_id", "branch")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	memberID, err := utils.ParseUintParam(c, "member_id", "member")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req RegisterCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for register card", "error", err)
		utils.ErrorResponseWithError(c, errors.NewValidationError("Invalid request body", err.Error()))
		return
	}

	result, err := h.registerCardUC.Execute(c.Request.Context(), usecases.RegisterCardCommand{
		BranchID:   branchID,
		MemberID:   memberID,
		CardNumber: req.CardNumber,
	})
	if err != nil {
		h.logger.Warnw("card registration failed", "branch_id", branchID, "member_id", memberID, "error", err)
		utils.ErrorResponseWithError(c, toAppError(err))
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Card registered", RegisterCardResponse{
		PersonID:      result.PersonID,
		CredentialID:  result.CredentialID,
		PersonCreated: result.PersonCreated,
		DevicesSynced: result.DevicesSynced,
	})
}

// RevokeCredentials handles DELETE /branches/:branch_id/members/:member_id/credentials
func (h *AccessHandler) RevokeCredentials(c *gin.Context) {
	branchID, err := utils.ParseUintParam(c, "branch_id", "branch")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	memberID, err := utils.ParseUintParam(c, "member_id", "member")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	n, err := h.revokeCredentialsUC.Execute(c.Request.Context(), branchID, memberID)
	if err != nil {
		utils.ErrorResponseWithError(c, toAppError(err))
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Credentials revoked", RevokeCredentialsResponse{Deactivated: n})
}

// CheckZoneAccess handles GET /members/:member_id/zones/:zone_id/access.
// Resolution failures answer "not allowed" and set degraded.
func (h *AccessHandler) CheckZoneAccess(c *gin.Context) {
	memberID, err := utils.ParseUintParam(c, "member_id", "member")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	zoneID, err := utils.ParseUintParam(c, "zone_id", "zone")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	allowed, err := h.checker.HasZoneAccess(c.Request.Context(), memberID, zoneID)
	resp := ZoneAccessResponse{
		MemberID:  memberID,
		ZoneID:    zoneID,
		Allowed:   allowed,
		CheckedAt: biztime.NowUTC(),
	}
	if err != nil {
		h.logger.Errorw("zone access resolution failed", "member_id", memberID, "zone_id", zoneID, "error", err)
		resp.Allowed = false
		resp.Degraded = true
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}
