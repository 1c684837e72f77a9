package attendance

import (
	"errors"
	"fmt"
	"time"
)

const SourceDoorController = "door_controller"

var (
	ErrSessionClosed    = errors.New("attendance session already closed")
	ErrCheckOutTooEarly = errors.New("check-out precedes check-in")
)

// Session is a member's stay at a branch. It is open until a check-out is set.
type Session struct {
	id              uint
	memberID        uint
	branchID        uint
	checkIn         time.Time
	checkOut        *time.Time
	durationMinutes *int
	source          string
	doorRef         string
	memberRole      string
	notes           string
	createdAt       time.Time
	updatedAt       time.Time
}

func NewSession(memberID, branchID uint, checkIn time.Time, doorRef, memberRole string) (*Session, error) {
	if memberID == 0 {
		return nil, fmt.Errorf("member ID is required")
	}
	if branchID == 0 {
		return nil, fmt.Errorf("branch ID is required")
	}
	if checkIn.IsZero() {
		return nil, fmt.Errorf("check-in time is required")
	}
	now := time.Now().UTC()
	return &Session{
		memberID:   memberID,
		branchID:   branchID,
		checkIn:    checkIn,
		source:     SourceDoorController,
		doorRef:    doorRef,
		memberRole: memberRole,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

func ReconstructSession(
	id, memberID, branchID uint,
	checkIn time.Time,
	checkOut *time.Time,
	durationMinutes *int,
	source, doorRef, memberRole, notes string,
	createdAt, updatedAt time.Time,
) *Session {
	return &Session{
		id:              id,
		memberID:        memberID,
		branchID:        branchID,
		checkIn:         checkIn,
		checkOut:        checkOut,
		durationMinutes: durationMinutes,
		source:          source,
		doorRef:         doorRef,
		memberRole:      memberRole,
		notes:           notes,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

func (s *Session) ID() uint               { return s.id }
func (s *Session) MemberID() uint         { return s.memberID }
func (s *Session) BranchID() uint         { return s.branchID }
func (s *Session) CheckIn() time.Time     { return s.checkIn }
func (s *Session) CheckOut() *time.Time   { return s.checkOut }
func (s *Session) DurationMinutes() *int  { return s.durationMinutes }
func (s *Session) Source() string         { return s.source }
func (s *Session) DoorRef() string        { return s.doorRef }
func (s *Session) MemberRole() string     { return s.memberRole }
func (s *Session) Notes() string          { return s.notes }
func (s *Session) CreatedAt() time.Time   { return s.createdAt }
func (s *Session) UpdatedAt() time.Time   { return s.updatedAt }
func (s *Session) SetID(id uint)          { s.id = id }
func (s *Session) IsOpen() bool           { return s.checkOut == nil }

// Close sets the check-out and the whole-minute duration. A closed session
// is never overwritten.
func (s *Session) Close(at time.Time) error {
	if !s.IsOpen() {
		return ErrSessionClosed
	}
	if at.Before(s.checkIn) {
		return ErrCheckOutTooEarly
	}
	minutes := int(at.Sub(s.checkIn) / time.Minute)
	s.checkOut = &at
	s.durationMinutes = &minutes
	s.updatedAt = time.Now().UTC()
	return nil
}

// AutoClose closes an abandoned session one minute before the entry that
// superseded it and records why.
func (s *Session) AutoClose(nextEntry time.Time) error {
	at := nextEntry.Add(-time.Minute)
	if at.Before(s.checkIn) {
		at = s.checkIn
	}
	if err := s.Close(at); err != nil {
		return err
	}
	s.notes = fmt.Sprintf("auto-closed: new entry at %s without exit", nextEntry.UTC().Format(time.RFC3339))
	return nil
}

// IsDuplicateEntry reports whether an entry at t repeats this open session's
// check-in within window.
func (s *Session) IsDuplicateEntry(t time.Time, window time.Duration) bool {
	return s.IsOpen() && t.Sub(s.checkIn) <= window
}
