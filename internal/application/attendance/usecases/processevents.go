// Package usecases reconciles raw door events into attendance sessions.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gymdesk/accessbridge/internal/domain/attendance"
	"github.com/gymdesk/accessbridge/internal/domain/member"
	"github.com/gymdesk/accessbridge/internal/domain/synclog"
	"github.com/gymdesk/accessbridge/internal/infrastructure/metrics"
	"github.com/gymdesk/accessbridge/internal/shared/biztime"
	"github.com/gymdesk/accessbridge/internal/shared/db"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

const (
	DefaultFetchLimit      = 100
	DefaultBatchSize       = 20
	DefaultDuplicateWindow = 5 * time.Minute

	entitySession = "attendance_session"
	entityEvent   = "access_event"
)

// Reconciliation actions, also used as metric labels.
const (
	actionOpened     = "opened"
	actionAutoClosed = "auto_closed"
	actionClosed     = "closed"
	actionDuplicate  = "duplicate"
	actionOrphanExit = "orphan_exit"
	actionReplayed   = "replayed_exit"
	actionUnmapped   = "unmapped"
	actionDenied     = "denied"
)

// BranchLocker serialises reconciliation of one branch across workers.
type BranchLocker interface {
	Acquire(ctx context.Context, branchID uint) (func(), error)
}

// SyncLogger is the audit sink.
type SyncLogger interface {
	Log(ctx context.Context, rec synclog.Record)
}

type ProcessEventsConfig struct {
	FetchLimit      int
	BatchSize       int
	DuplicateWindow time.Duration
}

type ProcessEventsUseCase struct {
	events   attendance.EventRepository
	sessions attendance.SessionRepository
	members  member.Repository
	txMgr    db.Transactor
	locker   BranchLocker
	syncLog  SyncLogger
	clock    biztime.Clock
	cfg      ProcessEventsConfig
	logger   logger.Interface
}

// NewProcessEventsUseCase builds the reconciler. locker may be nil when a
// single worker is guaranteed by deployment.
func NewProcessEventsUseCase(
	events attendance.EventRepository,
	sessions attendance.SessionRepository,
	members member.Repository,
	txMgr db.Transactor,
	locker BranchLocker,
	syncLog SyncLogger,
	clock biztime.Clock,
	cfg ProcessEventsConfig,
	log logger.Interface,
) *ProcessEventsUseCase {
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = DefaultFetchLimit
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.DuplicateWindow <= 0 {
		cfg.DuplicateWindow = DefaultDuplicateWindow
	}
	if clock == nil {
		clock = biztime.NowUTC
	}
	return &ProcessEventsUseCase{
		events:   events,
		sessions: sessions,
		members:  members,
		txMgr:    txMgr,
		locker:   locker,
		syncLog:  syncLog,
		clock:    clock,
		cfg:      cfg,
		logger:   log.Named("process-events"),
	}
}

// outcome is what handling one event produced. rec is logged after the
// event's transaction commits.
type outcome struct {
	action string
	rec    *synclog.Record
}

// Execute consumes up to FetchLimit unprocessed events of the branch in
// event-time order and returns how many were marked processed. Each batch
// is marked in a single update once all of its events were handled.
func (uc *ProcessEventsUseCase) Execute(ctx context.Context, branchID uint) (int, error) {
	if uc.locker != nil {
		release, err := uc.locker.Acquire(ctx, branchID)
		if err != nil {
			return 0, err
		}
		defer release()
	}

	events, err := uc.events.ListUnprocessed(ctx, branchID, uc.cfg.FetchLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to list unprocessed events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	members, err := uc.loadMembers(ctx, events)
	if err != nil {
		return 0, err
	}

	processed := 0
	for start := 0; start < len(events); start += uc.cfg.BatchSize {
		end := min(start+uc.cfg.BatchSize, len(events))
		batch := events[start:end]

		done := make([]uint, 0, len(batch))
		var handleErr error
		for _, ev := range batch {
			out, err := uc.handleInTx(ctx, ev, members)
			if err != nil {
				handleErr = fmt.Errorf("failed to process event %s: %w", ev.VendorEventID, err)
				break
			}
			done = append(done, ev.ID)
			metrics.EventsProcessedTotal.WithLabelValues(out.action).Inc()
			if out.rec != nil {
				uc.syncLog.Log(ctx, *out.rec)
			}
		}

		if len(done) > 0 {
			if err := uc.events.MarkProcessed(ctx, done, uc.clock.Now().UTC()); err != nil {
				return processed, fmt.Errorf("failed to mark events processed: %w", err)
			}
			processed += len(done)
		}
		if handleErr != nil {
			uc.logger.Errorw("event reconciliation stopped", "branch_id", branchID, "processed", processed, "error", handleErr)
			return processed, handleErr
		}
	}

	uc.logger.Infow("events reconciled", "branch_id", branchID, "processed", processed)
	return processed, nil
}

func (uc *ProcessEventsUseCase) loadMembers(ctx context.Context, events []*attendance.AccessEvent) (map[uint]*member.Member, error) {
	seen := make(map[uint]struct{})
	var ids []uint
	for _, ev := range events {
		if ev.MemberID == nil {
			continue
		}
		if _, ok := seen[*ev.MemberID]; !ok {
			seen[*ev.MemberID] = struct{}{}
			ids = append(ids, *ev.MemberID)
		}
	}
	if len(ids) == 0 {
		return map[uint]*member.Member{}, nil
	}
	members, err := uc.members.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}
	return members, nil
}

func (uc *ProcessEventsUseCase) handleInTx(ctx context.Context, ev *attendance.AccessEvent, members map[uint]*member.Member) (outcome, error) {
	var out outcome
	err := uc.txMgr.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		out, err = uc.handle(ctx, ev, members)
		return err
	})
	return out, err
}

func (uc *ProcessEventsUseCase) handle(ctx context.Context, ev *attendance.AccessEvent, members map[uint]*member.Member) (outcome, error) {
	if ev.EventType == attendance.EventDenied {
		return uc.anomaly(ctx, ev, attendance.AnomalyAccessDenied, actionDenied, synclog.CategoryInfo, synclog.StatusSuccess,
			"access denied at door", members)
	}
	if ev.MemberID == nil {
		return uc.anomaly(ctx, ev, attendance.AnomalyUnmappedMember, actionUnmapped, synclog.CategoryWarning, synclog.StatusWarning,
			"door event for unknown person", members)
	}

	switch ev.EventType {
	case attendance.EventEntry:
		return uc.handleEntry(ctx, ev, members)
	case attendance.EventExit:
		return uc.handleExit(ctx, ev, members)
	}
	return outcome{}, fmt.Errorf("unsupported event type %q", ev.EventType)
}

func (uc *ProcessEventsUseCase) handleEntry(ctx context.Context, ev *attendance.AccessEvent, members map[uint]*member.Member) (outcome, error) {
	memberID := *ev.MemberID
	name, role := describe(members, memberID)

	// an entry re-read after a crash already has its session, possibly closed
	started, err := uc.sessions.FindByCheckIn(ctx, memberID, ev.BranchID, ev.EventTime)
	if err != nil {
		return outcome{}, fmt.Errorf("failed to check existing sessions: %w", err)
	}
	if started != nil {
		return uc.anomaly(ctx, ev, attendance.AnomalyDuplicateEntry, actionDuplicate, synclog.CategoryInfo, synclog.StatusSuccess,
			fmt.Sprintf("replayed entry ignored for %s", name), members)
	}

	open, err := uc.sessions.FindOpen(ctx, memberID, ev.BranchID)
	if err != nil {
		return outcome{}, fmt.Errorf("failed to find open session: %w", err)
	}

	if open != nil && open.IsDuplicateEntry(ev.EventTime, uc.cfg.DuplicateWindow) {
		return uc.anomaly(ctx, ev, attendance.AnomalyDuplicateEntry, actionDuplicate, synclog.CategoryInfo, synclog.StatusSuccess,
			fmt.Sprintf("duplicate entry ignored for %s", name), members)
	}

	action := actionOpened
	details := map[string]any{
		"member_id":   memberID,
		"member_name": name,
		"door":        ev.DoorRef(),
		"check_in":    biztime.FormatMetadataTime(ev.EventTime),
	}

	if open != nil {
		if err := open.AutoClose(ev.EventTime); err != nil {
			return outcome{}, fmt.Errorf("failed to auto-close session %d: %w", open.ID(), err)
		}
		if err := uc.sessions.Update(ctx, open); err != nil {
			return outcome{}, fmt.Errorf("failed to store auto-closed session: %w", err)
		}
		action = actionAutoClosed
		details["auto_closed_session_id"] = open.ID()
		details["auto_closed_check_in"] = biztime.FormatMetadataTime(open.CheckIn())
		details["auto_closed_check_out"] = biztime.FormatMetadataTime(*open.CheckOut())
		details["auto_closed_duration_minutes"] = *open.DurationMinutes()
	}

	session, err := attendance.NewSession(memberID, ev.BranchID, ev.EventTime, ev.DoorRef(), role)
	if err != nil {
		return outcome{}, err
	}
	if err := uc.sessions.Create(ctx, session); err != nil {
		return outcome{}, fmt.Errorf("failed to create session: %w", err)
	}
	details["session_id"] = session.ID()

	message := fmt.Sprintf("%s checked in", name)
	if action == actionAutoClosed {
		message = fmt.Sprintf("%s checked in; previous session auto-closed without exit", name)
	}
	return outcome{action: action, rec: &synclog.Record{
		BranchID: ev.BranchID,
		Category: synclog.CategorySync,
		Status:   synclog.StatusSuccess,
		Message:  message,
		Details:  details,
		Entity:   synclog.Ref(entitySession, session.ID()),
	}}, nil
}

func (uc *ProcessEventsUseCase) handleExit(ctx context.Context, ev *attendance.AccessEvent, members map[uint]*member.Member) (outcome, error) {
	memberID := *ev.MemberID
	name, _ := describe(members, memberID)

	replayed, err := uc.sessions.FindClosedAt(ctx, memberID, ev.BranchID, ev.EventTime)
	if err != nil {
		return outcome{}, fmt.Errorf("failed to check closed sessions: %w", err)
	}
	if replayed != nil {
		return uc.anomaly(ctx, ev, attendance.AnomalyReplayedExit, actionReplayed, synclog.CategoryInfo, synclog.StatusSuccess,
			fmt.Sprintf("replayed exit ignored for %s", name), members)
	}

	open, err := uc.sessions.FindOpen(ctx, memberID, ev.BranchID)
	if err != nil {
		return outcome{}, fmt.Errorf("failed to find open session: %w", err)
	}
	if open == nil {
		return uc.anomaly(ctx, ev, attendance.AnomalyOrphanExit, actionOrphanExit, synclog.CategoryWarning, synclog.StatusWarning,
			fmt.Sprintf("exit without open session for %s", name), members)
	}

	if err := open.Close(ev.EventTime); err != nil {
		if errors.Is(err, attendance.ErrCheckOutTooEarly) {
			return uc.anomaly(ctx, ev, attendance.AnomalyOrphanExit, actionOrphanExit, synclog.CategoryWarning, synclog.StatusWarning,
				fmt.Sprintf("exit before check-in for %s", name), members)
		}
		return outcome{}, err
	}
	if err := uc.sessions.Update(ctx, open); err != nil {
		if errors.Is(err, attendance.ErrSessionClosed) {
			return uc.anomaly(ctx, ev, attendance.AnomalyReplayedExit, actionReplayed, synclog.CategoryInfo, synclog.StatusSuccess,
				fmt.Sprintf("session already closed for %s", name), members)
		}
		return outcome{}, fmt.Errorf("failed to close session: %w", err)
	}

	return outcome{action: actionClosed, rec: &synclog.Record{
		BranchID: ev.BranchID,
		Category: synclog.CategorySync,
		Status:   synclog.StatusSuccess,
		Message:  fmt.Sprintf("%s checked out after %d min", name, *open.DurationMinutes()),
		Details: map[string]any{
			"member_id":        memberID,
			"member_name":      name,
			"door":             ev.DoorRef(),
			"session_id":       open.ID(),
			"check_in":         biztime.FormatMetadataTime(open.CheckIn()),
			"check_out":        biztime.FormatMetadataTime(*open.CheckOut()),
			"duration_minutes": *open.DurationMinutes(),
		},
		Entity: synclog.Ref(entitySession, open.ID()),
	}}, nil
}

// anomaly flags the event and describes it for the sync log. The event is
// still marked processed with its batch.
func (uc *ProcessEventsUseCase) anomaly(
	ctx context.Context,
	ev *attendance.AccessEvent,
	kind, action string,
	category synclog.Category,
	status synclog.Status,
	message string,
	members map[uint]*member.Member,
) (outcome, error) {
	if err := uc.events.SetAnomaly(ctx, ev.ID, kind); err != nil {
		return outcome{}, fmt.Errorf("failed to flag event: %w", err)
	}
	ev.Anomaly = kind

	details := map[string]any{
		"vendor_event_id": ev.VendorEventID,
		"event_type":      string(ev.EventType),
		"event_time":      biztime.FormatMetadataTime(ev.EventTime),
		"door":            ev.DoorRef(),
		"anomaly":         kind,
	}
	if ev.MemberID != nil {
		name, _ := describe(members, *ev.MemberID)
		details["member_id"] = *ev.MemberID
		details["member_name"] = name
	}
	if kind != attendance.AnomalyAccessDenied {
		uc.logger.Warnw("event anomaly", "branch_id", ev.BranchID, "event_id", ev.VendorEventID, "anomaly", kind)
	}

	return outcome{action: action, rec: &synclog.Record{
		BranchID: ev.BranchID,
		Category: category,
		Status:   status,
		Message:  message,
		Details:  details,
		Entity:   synclog.Ref(entityEvent, ev.ID),
	}}, nil
}

func describe(members map[uint]*member.Member, memberID uint) (name, role string) {
	m, ok := members[memberID]
	if !ok {
		return fmt.Sprintf("member #%d", memberID), string(member.RoleMember)
	}
	name = m.FullName()
	if name == "" {
		name = fmt.Sprintf("member #%d", memberID)
	}
	return name, string(m.Role)
}
