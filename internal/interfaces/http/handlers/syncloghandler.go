package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gymdesk/accessbridge/internal/domain/synclog"
	"github.com/gymdesk/accessbridge/internal/shared/errors"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
	"github.com/gymdesk/accessbridge/internal/shared/utils"
)

type syncLogLister interface {
	List(ctx context.Context, filter synclog.Filter) ([]*synclog.Entry, int64, error)
}

// SyncLogHandler serves the operator log viewer.
type SyncLogHandler struct {
	logs   syncLogLister
	logger logger.Interface
}

func NewSyncLogHandler(logs syncLogLister, log logger.Interface) *SyncLogHandler {
	return &SyncLogHandler{logs: logs, logger: log.Named("http.synclog")}
}

type SyncLogEntryResponse struct {
	ID         string         `json:"id"`
	BranchID   uint           `json:"branch_id"`
	Category   string         `json:"category"`
	Status     string         `json:"status"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	EntityType string         `json:"entity_type,omitempty"`
	EntityID   string         `json:"entity_id,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func toSyncLogEntryResponse(e *synclog.Entry) SyncLogEntryResponse {
	resp := SyncLogEntryResponse{
		ID:        e.ID(),
		BranchID:  e.BranchID(),
		Category:  string(e.Category()),
		Status:    string(e.Status()),
		Message:   e.Message(),
		Details:   e.Details(),
		CreatedAt: e.CreatedAt(),
		UpdatedAt: e.UpdatedAt(),
	}
	if ref := e.Entity(); ref != nil {
		resp.EntityType = ref.Type
		resp.EntityID = ref.ID
	}
	return resp
}

// List handles GET /branches/:branch_id/sync-logs
// Query: category, status, from, to (RFC3339), page, page_size.
func (h *SyncLogHandler) List(c *gin.Context) {
	branchID, err := utils.ParseUintParam(c, "branch_id", "branch")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	filter, err := parseSyncLogFilter(c, branchID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	entries, total, err := h.logs.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Errorw("failed to list sync logs", "branch_id", branchID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	items := make([]SyncLogEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, toSyncLogEntryResponse(e))
	}
	utils.ListSuccessResponse(c, items, total, filter.Page, filter.PageSize)
}

func parseSyncLogFilter(c *gin.Context, branchID uint) (synclog.Filter, error) {
	p := utils.ParsePagination(c)
	filter := synclog.Filter{BranchID: branchID, Page: p.Page, PageSize: p.PageSize}

	if v := c.Query("category"); v != "" {
		category := synclog.Category(v)
		if !category.IsValid() {
			return filter, errors.NewValidationError("invalid category", v)
		}
		filter.Category = &category
	}
	if v := c.Query("status"); v != "" {
		status := synclog.Status(v)
		if !status.IsValid() {
			return filter, errors.NewValidationError("invalid status", v)
		}
		filter.Status = &status
	}
	for _, q := range []struct {
		key string
		dst **time.Time
	}{{"from", &filter.From}, {"to", &filter.To}} {
		v := c.Query(q.key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.NewValidationError("invalid "+q.key+" time, expected RFC3339", v)
		}
		t = t.UTC()
		*q.dst = &t
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return filter, errors.NewValidationError("to must not be before from")
	}
	return filter, nil
}
