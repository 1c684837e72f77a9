package synclog

import (
	"context"
	"errors"
	"time"
)

var ErrEntryNotFound = errors.New("sync log entry not found")

type Filter struct {
	BranchID uint
	Category *Category
	Status   *Status
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	// CompletePending persists the final status only if the stored row is
	// still pending, returning ErrNotPending otherwise.
	CompletePending(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, filter Filter) ([]*Entry, int64, error)
}
