package attendance

import (
	"context"
	"time"
)

type EventRepository interface {
	// ListUnprocessed returns at most limit unprocessed events ordered by
	// event time, oldest first.
	ListUnprocessed(ctx context.Context, branchID uint, limit int) ([]*AccessEvent, error)
	// MarkProcessed flags all ids as processed in a single update.
	MarkProcessed(ctx context.Context, ids []uint, at time.Time) error
	SetAnomaly(ctx context.Context, id uint, anomaly string) error
	// InsertIgnoreDuplicates stores events, skipping vendor event ids already
	// present, and returns how many rows were inserted.
	InsertIgnoreDuplicates(ctx context.Context, events []*AccessEvent) (int, error)
}

type SessionRepository interface {
	// FindOpen returns the most recent open session, or nil, nil.
	FindOpen(ctx context.Context, memberID, branchID uint) (*Session, error)
	// FindClosedAt returns a closed session whose check-out equals at, or nil, nil.
	FindClosedAt(ctx context.Context, memberID, branchID uint, at time.Time) (*Session, error)
	// FindByCheckIn returns the session, open or closed, that started at at,
	// or nil, nil.
	FindByCheckIn(ctx context.Context, memberID, branchID uint, at time.Time) (*Session, error)
	Create(ctx context.Context, session *Session) error
	Update(ctx context.Context, session *Session) error
}
