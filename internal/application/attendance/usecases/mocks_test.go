package usecases

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/gymdesk/accessbridge/internal/domain/access"
	"github.com/gymdesk/accessbridge/internal/domain/attendance"
	"github.com/gymdesk/accessbridge/internal/domain/member"
	"github.com/gymdesk/accessbridge/internal/domain/synclog"
)

type memEventRepo struct {
	events       []*attendance.AccessEvent
	markBatches  [][]uint
	nextID       uint
	ListErr      error
	InsertFunc   func(events []*attendance.AccessEvent) (int, error)
	seenVendorID map[string]bool
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{seenVendorID: make(map[string]bool)}
}

func (r *memEventRepo) add(ev *attendance.AccessEvent) *attendance.AccessEvent {
	r.nextID++
	ev.ID = r.nextID
	r.events = append(r.events, ev)
	r.seenVendorID[ev.VendorEventID] = true
	return ev
}

func (r *memEventRepo) ListUnprocessed(_ context.Context, branchID uint, limit int) ([]*attendance.AccessEvent, error) {
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	var out []*attendance.AccessEvent
	for _, ev := range r.events {
		if ev.BranchID == branchID && !ev.Processed {
			out = append(out, ev)
		}
	}
	slices.SortStableFunc(out, func(a, b *attendance.AccessEvent) int { return a.EventTime.Compare(b.EventTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memEventRepo) MarkProcessed(_ context.Context, ids []uint, at time.Time) error {
	r.markBatches = append(r.markBatches, slices.Clone(ids))
	for _, ev := range r.events {
		if slices.Contains(ids, ev.ID) {
			ev.Processed = true
			ev.ProcessedAt = &at
		}
	}
	return nil
}

func (r *memEventRepo) SetAnomaly(_ context.Context, id uint, anomaly string) error {
	for _, ev := range r.events {
		if ev.ID == id {
			ev.Anomaly = anomaly
		}
	}
	return nil
}

func (r *memEventRepo) InsertIgnoreDuplicates(_ context.Context, events []*attendance.AccessEvent) (int, error) {
	if r.InsertFunc != nil {
		return r.InsertFunc(events)
	}
	n := 0
	for _, ev := range events {
		if r.seenVendorID[ev.VendorEventID] {
			continue
		}
		r.add(ev)
		n++
	}
	return n, nil
}

func (r *memEventRepo) byVendorID(id string) *attendance.AccessEvent {
	for _, ev := range r.events {
		if ev.VendorEventID == id {
			return ev
		}
	}
	return nil
}

// memSessionRepo tracks the persisted open/closed state separately from
// the in-memory session so the closed-row guard behaves like the database.
type memSessionRepo struct {
	rows []*sessionRow
}

type sessionRow struct {
	session  *attendance.Session
	open     bool
	checkOut *time.Time
}

func (r *memSessionRepo) FindOpen(_ context.Context, memberID, branchID uint) (*attendance.Session, error) {
	var found *attendance.Session
	for _, row := range r.rows {
		s := row.session
		if row.open && s.MemberID() == memberID && s.BranchID() == branchID {
			if found == nil || s.CheckIn().After(found.CheckIn()) {
				found = s
			}
		}
	}
	return found, nil
}

func (r *memSessionRepo) FindClosedAt(_ context.Context, memberID, branchID uint, at time.Time) (*attendance.Session, error) {
	for _, row := range r.rows {
		s := row.session
		if !row.open && s.MemberID() == memberID && s.BranchID() == branchID && row.checkOut.Equal(at) {
			return s, nil
		}
	}
	return nil, nil
}

func (r *memSessionRepo) FindByCheckIn(_ context.Context, memberID, branchID uint, at time.Time) (*attendance.Session, error) {
	for _, row := range r.rows {
		s := row.session
		if s.MemberID() == memberID && s.BranchID() == branchID && s.CheckIn().Equal(at) {
			return s, nil
		}
	}
	return nil, nil
}

func (r *memSessionRepo) Create(_ context.Context, s *attendance.Session) error {
	s.SetID(uint(len(r.rows) + 1))
	r.rows = append(r.rows, &sessionRow{session: s, open: s.IsOpen(), checkOut: s.CheckOut()})
	return nil
}

func (r *memSessionRepo) Update(_ context.Context, s *attendance.Session) error {
	for _, row := range r.rows {
		if row.session.ID() != s.ID() {
			continue
		}
		if !row.open {
			return attendance.ErrSessionClosed
		}
		row.open = s.IsOpen()
		row.checkOut = s.CheckOut()
		return nil
	}
	return errors.New("session not found")
}

func (r *memSessionRepo) sessionsOf(memberID uint) []*attendance.Session {
	var out []*attendance.Session
	for _, row := range r.rows {
		if row.session.MemberID() == memberID {
			out = append(out, row.session)
		}
	}
	return out
}

type mockMemberRepo struct {
	members map[uint]*member.Member
}

func (m *mockMemberRepo) GetByID(_ context.Context, memberID uint) (*member.Member, error) {
	if mem, ok := m.members[memberID]; ok {
		return mem, nil
	}
	return nil, member.ErrMemberNotFound
}

func (m *mockMemberRepo) GetByIDs(_ context.Context, memberIDs []uint) (map[uint]*member.Member, error) {
	out := make(map[uint]*member.Member)
	for _, id := range memberIDs {
		if mem, ok := m.members[id]; ok {
			out[id] = mem
		}
	}
	return out, nil
}

type mockVendorPersonRepo struct {
	byPersonID map[string]uint
}

func (m *mockVendorPersonRepo) GetByMember(context.Context, uint, uint) (*member.VendorPerson, error) {
	return nil, member.ErrVendorPersonNotFound
}

func (m *mockVendorPersonRepo) GetByPersonID(_ context.Context, branchID uint, personID string) (*member.VendorPerson, error) {
	if id, ok := m.byPersonID[personID]; ok {
		return &member.VendorPerson{MemberID: id, BranchID: branchID, PersonID: personID}, nil
	}
	return nil, member.ErrVendorPersonNotFound
}

func (m *mockVendorPersonRepo) Save(context.Context, *member.VendorPerson) error { return nil }

type mockDoorRepo struct {
	byVendorID map[string]*access.Door
}

func (m *mockDoorRepo) ListActiveByZones(context.Context, []uint) ([]*access.Door, error) {
	return nil, nil
}

func (m *mockDoorRepo) ListActiveByBranch(context.Context, uint) ([]*access.Door, error) {
	return nil, nil
}

func (m *mockDoorRepo) GetByVendorDoorID(_ context.Context, _ uint, vendorDoorID string) (*access.Door, error) {
	return m.byVendorID[vendorDoorID], nil
}

type passthroughTx struct {
	calls int
}

func (t *passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type mockLocker struct {
	AcquireFunc func(ctx context.Context, branchID uint) (func(), error)
	released    int
}

func (m *mockLocker) Acquire(ctx context.Context, branchID uint) (func(), error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, branchID)
	}
	return func() { m.released++ }, nil
}

type recordingSyncLog struct {
	mu      sync.Mutex
	records []synclog.Record
}

func (l *recordingSyncLog) Log(_ context.Context, rec synclog.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
}

func (l *recordingSyncLog) categories() []synclog.Category {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]synclog.Category, 0, len(l.records))
	for _, r := range l.records {
		out = append(out, r.Category)
	}
	return out
}
