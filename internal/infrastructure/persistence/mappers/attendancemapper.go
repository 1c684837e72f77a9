package mappers

import (
	"github.com/gymdesk/accessbridge/internal/domain/attendance"
	"github.com/gymdesk/accessbridge/internal/infrastructure/persistence/models"
)

func AccessEventToDomain(m *models.AccessEventModel) *attendance.AccessEvent {
	return &attendance.AccessEvent{
		ID:            m.ID,
		VendorEventID: m.VendorEventID,
		BranchID:      m.BranchID,
		MemberID:      m.MemberID,
		DoorID:        m.DoorID,
		DeviceID:      m.DeviceID,
		EventTime:     m.EventTime,
		EventType:     attendance.EventType(m.EventType),
		Processed:     m.Processed,
		ProcessedAt:   m.ProcessedAt,
		Anomaly:       m.Anomaly,
	}
}

func AccessEventToModel(e *attendance.AccessEvent) *models.AccessEventModel {
	return &models.AccessEventModel{
		ID:            e.ID,
		VendorEventID: e.VendorEventID,
		BranchID:      e.BranchID,
		MemberID:      e.MemberID,
		DoorID:        e.DoorID,
		DeviceID:      e.DeviceID,
		EventTime:     e.EventTime.UTC(),
		EventType:     string(e.EventType),
		Processed:     e.Processed,
		ProcessedAt:   e.ProcessedAt,
		Anomaly:       e.Anomaly,
	}
}

func SessionToDomain(m *models.AttendanceSessionModel) *attendance.Session {
	return attendance.ReconstructSession(
		m.ID,
		m.MemberID,
		m.BranchID,
		m.CheckIn,
		m.CheckOut,
		m.DurationMinutes,
		m.Source,
		m.DoorRef,
		m.MemberRole,
		m.Notes,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

func SessionToModel(s *attendance.Session) *models.AttendanceSessionModel {
	return &models.AttendanceSessionModel{
		ID:              s.ID(),
		MemberID:        s.MemberID(),
		BranchID:        s.BranchID(),
		CheckIn:         s.CheckIn().UTC(),
		CheckOut:        s.CheckOut(),
		DurationMinutes: s.DurationMinutes(),
		Source:          s.Source(),
		DoorRef:         s.DoorRef(),
		MemberRole:      s.MemberRole(),
		Notes:           s.Notes(),
		CreatedAt:       s.CreatedAt(),
		UpdatedAt:       s.UpdatedAt(),
	}
}
