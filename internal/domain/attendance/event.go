// Package attendance turns raw door events into check-in/check-out sessions.
package attendance

import (
	"fmt"
	"strings"
	"time"
)

type EventType string

const (
	EventEntry  EventType = "entry"
	EventExit   EventType = "exit"
	EventDenied EventType = "denied"
)

// ParseEventType normalises the vendor's direction labels.
func ParseEventType(s string) (EventType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entry", "in", "enter", "check_in":
		return EventEntry, nil
	case "exit", "out", "leave", "check_out":
		return EventExit, nil
	case "denied", "reject", "rejected", "refused":
		return EventDenied, nil
	}
	return "", fmt.Errorf("unknown event type %q", s)
}

const (
	AnomalyUnmappedMember = "unmapped_member"
	AnomalyDuplicateEntry = "duplicate_entry"
	AnomalyOrphanExit     = "orphan_exit"
	AnomalyReplayedExit   = "replayed_exit"
	AnomalyAccessDenied   = "access_denied"
)

// AccessEvent is one door event reported by the vendor. MemberID is nil
// when the vendor person could not be mapped to a member.
type AccessEvent struct {
	ID            uint
	VendorEventID string
	BranchID      uint
	MemberID      *uint
	DoorID        *uint
	DeviceID      string
	EventTime     time.Time
	EventType     EventType
	Processed     bool
	ProcessedAt   *time.Time
	Anomaly       string
}

// DoorRef is the device/door reference copied onto sessions.
func (e *AccessEvent) DoorRef() string {
	if e.DoorID != nil {
		return fmt.Sprintf("door:%d", *e.DoorID)
	}
	if e.DeviceID != "" {
		return "device:" + e.DeviceID
	}
	return ""
}
