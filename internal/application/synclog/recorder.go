// Package synclog appends audit entries for branch operators. Recording is
// best effort: a failed write is logged and never fails the caller.
package synclog

import (
	"context"

	"github.com/gymdesk/accessbridge/internal/domain/synclog"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

type Recorder struct {
	repo   synclog.Repository
	logger logger.Interface
}

func NewRecorder(repo synclog.Repository, log logger.Interface) *Recorder {
	return &Recorder{repo: repo, logger: log.Named("synclog")}
}

// Log appends a final entry.
func (r *Recorder) Log(ctx context.Context, rec synclog.Record) {
	entry, err := synclog.NewEntryFromRecord(rec)
	if err != nil {
		r.logger.Errorw("invalid sync log record", "message", rec.Message, "error", err)
		return
	}
	if err := r.repo.Create(ctx, entry); err != nil {
		r.logger.Errorw("failed to append sync log entry",
			"branch_id", rec.BranchID,
			"category", rec.Category,
			"message", rec.Message,
			"error", err,
		)
	}
}

// Begin appends a pending entry that the caller finalises with Complete.
func (r *Recorder) Begin(ctx context.Context, rec synclog.Record) *Pending {
	rec.Status = synclog.StatusPending
	entry, err := synclog.NewEntryFromRecord(rec)
	if err != nil {
		r.logger.Errorw("invalid sync log record", "message", rec.Message, "error", err)
		return &Pending{recorder: r, rec: rec}
	}
	p := &Pending{recorder: r, rec: rec, entry: entry}
	if err := r.repo.Create(ctx, entry); err != nil {
		r.logger.Errorw("failed to append pending sync log entry", "branch_id", rec.BranchID, "error", err)
		return p
	}
	p.persisted = true
	return p
}

// List returns entries for the operator log viewer.
func (r *Recorder) List(ctx context.Context, filter synclog.Filter) ([]*synclog.Entry, int64, error) {
	return r.repo.List(ctx, filter)
}

// Pending is a started operation awaiting its outcome.
type Pending struct {
	recorder  *Recorder
	rec       synclog.Record
	entry     *synclog.Entry
	persisted bool
	done      bool
}

// Complete performs the single pending to final transition. Later calls are
// ignored. If the pending row never reached storage the final entry is
// appended instead.
func (p *Pending) Complete(ctx context.Context, status synclog.Status, message string, details map[string]any) {
	if p == nil || p.done {
		return
	}
	p.done = true

	if !p.persisted || p.entry == nil {
		rec := p.rec
		rec.Status = status
		if message != "" {
			rec.Message = message
		}
		if status == synclog.StatusError {
			rec.Category = synclog.CategoryError
		}
		merged := make(map[string]any, len(rec.Details)+len(details))
		for k, v := range rec.Details {
			merged[k] = v
		}
		for k, v := range details {
			merged[k] = v
		}
		rec.Details = merged
		p.recorder.Log(ctx, rec)
		return
	}

	if err := p.entry.Complete(status, message, details); err != nil {
		p.recorder.logger.Warnw("sync log entry not completed", "id", p.entry.ID(), "error", err)
		return
	}
	if err := p.recorder.repo.CompletePending(ctx, p.entry); err != nil {
		p.recorder.logger.Errorw("failed to complete sync log entry", "id", p.entry.ID(), "error", err)
	}
}

// ID is empty when the pending entry could not be built.
func (p *Pending) ID() string {
	if p == nil || p.entry == nil {
		return ""
	}
	return p.entry.ID()
}
