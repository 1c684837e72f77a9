package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gymdesk/accessbridge/internal/application/attendance/usecases"
	"github.com/gymdesk/accessbridge/internal/shared/errors"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
	"github.com/gymdesk/accessbridge/internal/shared/utils"
)

type ingestEventsUseCase interface {
	Execute(ctx context.Context, cmd usecases.IngestEventsCommand) (*usecases.IngestEventsResult, error)
}

type processEventsUseCase interface {
	Execute(ctx context.Context, branchID uint) (int, error)
}

// AttendanceHandler receives vendor event webhooks and triggers
// reconciliation on demand.
type AttendanceHandler struct {
	ingestUC  ingestEventsUseCase
	processUC processEventsUseCase
	logger    logger.Interface
}

func NewAttendanceHandler(ingestUC ingestEventsUseCase, processUC processEventsUseCase, log logger.Interface) *AttendanceHandler {
	return &AttendanceHandler{
		ingestUC:  ingestUC,
		processUC: processUC,
		logger:    log.Named("http.attendance"),
	}
}

type ProcessEventsResponse struct {
	Processed int `json:"processed"`
}

// IngestEvents handles POST /vendor/branches/:branch_id/events
func (h *AttendanceHandler) IngestEvents(c *gin.Context) {
	branchID, err := utils.ParseUintParam(c, "branch_id", "branch")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var cmd usecases.IngestEventsCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		h.logger.Warnw("invalid webhook payload", "branch_id", branchID, "error", err)
		utils.ErrorResponseWithError(c, errors.NewValidationError("Invalid request body", err.Error()))
		return
	}
	cmd.BranchID = branchID

	result, err := h.ingestUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Errorw("event ingestion failed", "branch_id", branchID, "error", err)
		utils.ErrorResponseWithError(c, toAppError(err))
		return
	}

	utils.AcceptedResponse(c, result, "Events accepted")
}

// ProcessEvents handles POST /branches/:branch_id/events/process
func (h *AttendanceHandler) ProcessEvents(c *gin.Context) {
	branchID, err := utils.ParseUintParam(c, "branch_id", "branch")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	n, err := h.processUC.Execute(c.Request.Context(), branchID)
	if err != nil {
		h.logger.Warnw("event reconciliation stopped early", "branch_id", branchID, "processed", n, "error", err)
		utils.ErrorResponseWithError(c, toAppError(err))
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Events reconciled", ProcessEventsResponse{Processed: n})
}
