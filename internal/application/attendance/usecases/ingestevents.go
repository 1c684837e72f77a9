package usecases

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gymdesk/accessbridge/internal/domain/access"
	"github.com/gymdesk/accessbridge/internal/domain/attendance"
	"github.com/gymdesk/accessbridge/internal/domain/member"
	"github.com/gymdesk/accessbridge/internal/infrastructure/metrics"
	apperrors "github.com/gymdesk/accessbridge/internal/shared/errors"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
	"github.com/gymdesk/accessbridge/internal/shared/utils"
)

// VendorEvent is one door event as the vendor webhook reports it.
type VendorEvent struct {
	EventID    string    `json:"eventId" validate:"required,max=128"`
	PersonCode string    `json:"personCode" validate:"max=64"`
	DoorID     string    `json:"doorId" validate:"max=64"`
	DeviceID   string    `json:"deviceId" validate:"max=64"`
	EventType  string    `json:"eventType" validate:"required"`
	EventTime  time.Time `json:"eventTime" validate:"required"`
}

type IngestEventsCommand struct {
	BranchID uint          `json:"-"`
	Events   []VendorEvent `json:"events" validate:"required,min=1,max=500,dive"`
}

type IngestEventsResult struct {
	Received int `json:"received"`
	Accepted int `json:"accepted"`
	Unmapped int `json:"unmapped"`
}

// IngestEventsUseCase stores webhook events for later reconciliation.
// Redelivered events are skipped by vendor event id.
type IngestEventsUseCase struct {
	events        attendance.EventRepository
	vendorPersons member.VendorPersonRepository
	members       member.Repository
	doors         access.DoorRepository
	logger        logger.Interface
}

func NewIngestEventsUseCase(
	events attendance.EventRepository,
	vendorPersons member.VendorPersonRepository,
	members member.Repository,
	doors access.DoorRepository,
	log logger.Interface,
) *IngestEventsUseCase {
	return &IngestEventsUseCase{
		events:        events,
		vendorPersons: vendorPersons,
		members:       members,
		doors:         doors,
		logger:        log.Named("ingest-events"),
	}
}

func (uc *IngestEventsUseCase) Execute(ctx context.Context, cmd IngestEventsCommand) (*IngestEventsResult, error) {
	if err := utils.ValidateStruct(cmd); err != nil {
		return nil, err
	}

	rows := make([]*attendance.AccessEvent, 0, len(cmd.Events))
	for i, ve := range cmd.Events {
		eventType, err := attendance.ParseEventType(ve.EventType)
		if err != nil {
			return nil, apperrors.NewValidationError("Validation failed", fmt.Sprintf("events[%d].eventType: %v", i, err))
		}
		rows = append(rows, &attendance.AccessEvent{
			VendorEventID: strings.TrimSpace(ve.EventID),
			BranchID:      cmd.BranchID,
			DeviceID:      ve.DeviceID,
			EventTime:     ve.EventTime.UTC(),
			EventType:     eventType,
		})
	}

	if err := uc.mapMembers(ctx, cmd.BranchID, cmd.Events, rows); err != nil {
		return nil, err
	}
	if err := uc.mapDoors(ctx, cmd.BranchID, cmd.Events, rows); err != nil {
		return nil, err
	}

	unmapped := 0
	for _, r := range rows {
		if r.MemberID == nil {
			unmapped++
		}
	}

	accepted, err := uc.events.InsertIgnoreDuplicates(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to store access events: %w", err)
	}
	metrics.EventsIngestedTotal.Add(float64(accepted))

	uc.logger.Infow("access events ingested",
		"branch_id", cmd.BranchID,
		"received", len(rows),
		"accepted", accepted,
		"unmapped", unmapped,
	)
	return &IngestEventsResult{Received: len(rows), Accepted: accepted, Unmapped: unmapped}, nil
}

// mapMembers resolves person codes through the vendor person mapping and
// falls back to numeric codes that are member ids.
func (uc *IngestEventsUseCase) mapMembers(ctx context.Context, branchID uint, in []VendorEvent, rows []*attendance.AccessEvent) error {
	resolved := make(map[string]*uint)
	var candidates []uint

	for _, ve := range in {
		code := strings.TrimSpace(ve.PersonCode)
		if code == "" {
			continue
		}
		if _, done := resolved[code]; done {
			continue
		}
		vp, err := uc.vendorPersons.GetByPersonID(ctx, branchID, code)
		switch {
		case err == nil:
			id := vp.MemberID
			resolved[code] = &id
		case errors.Is(err, member.ErrVendorPersonNotFound):
			resolved[code] = nil
			if n, perr := strconv.ParseUint(code, 10, 64); perr == nil && n > 0 {
				candidates = append(candidates, uint(n))
			}
		default:
			return fmt.Errorf("failed to resolve vendor person %s: %w", code, err)
		}
	}

	if len(candidates) > 0 {
		found, err := uc.members.GetByIDs(ctx, candidates)
		if err != nil {
			return fmt.Errorf("failed to load members: %w", err)
		}
		for code, id := range resolved {
			if id != nil {
				continue
			}
			n, err := strconv.ParseUint(code, 10, 64)
			if err != nil {
				continue
			}
			if m, ok := found[uint(n)]; ok {
				memberID := m.ID
				resolved[code] = &memberID
			}
		}
	}

	for i, ve := range in {
		rows[i].MemberID = resolved[strings.TrimSpace(ve.PersonCode)]
	}
	return nil
}

func (uc *IngestEventsUseCase) mapDoors(ctx context.Context, branchID uint, in []VendorEvent, rows []*attendance.AccessEvent) error {
	doors := make(map[string]*access.Door)
	for i, ve := range in {
		if ve.DoorID == "" {
			continue
		}
		d, cached := doors[ve.DoorID]
		if !cached {
			var err error
			d, err = uc.doors.GetByVendorDoorID(ctx, branchID, ve.DoorID)
			if err != nil {
				return fmt.Errorf("failed to resolve door %s: %w", ve.DoorID, err)
			}
			doors[ve.DoorID] = d
		}
		if d == nil {
			continue
		}
		id := d.ID
		rows[i].DoorID = &id
		if rows[i].DeviceID == "" {
			rows[i].DeviceID = d.DeviceID
		}
	}
	return nil
}
