// Package synclog is the append-only audit trail of vendor interactions and
// reconciliation outcomes, shown to branch operators.
package synclog

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategorySync    Category = "sync"
	CategoryError   Category = "error"
	CategoryInfo    Category = "info"
	CategoryWarning Category = "warning"
)

func (c Category) IsValid() bool {
	switch c {
	case CategorySync, CategoryError, CategoryInfo, CategoryWarning:
		return true
	}
	return false
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusPending Status = "pending"
	StatusWarning Status = "warning"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusSuccess, StatusError, StatusPending, StatusWarning:
		return true
	}
	return false
}

var ErrNotPending = errors.New("sync log entry is not pending")

// EntityRef points at the record an entry is about, e.g. ("member", "42").
type EntityRef struct {
	Type string
	ID   string
}

// Entry is immutable once written except for one pending to final status
// transition.
type Entry struct {
	id        string
	branchID  uint
	category  Category
	status    Status
	message   string
	details   map[string]any
	entity    *EntityRef
	createdAt time.Time
	updatedAt time.Time
}

func NewEntry(branchID uint, category Category, status Status, message string) (*Entry, error) {
	if !category.IsValid() {
		return nil, fmt.Errorf("invalid sync log category %q", category)
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid sync log status %q", status)
	}
	if message == "" {
		return nil, fmt.Errorf("sync log message is required")
	}
	now := time.Now().UTC()
	return &Entry{
		id:        uuid.NewString(),
		branchID:  branchID,
		category:  category,
		status:    status,
		message:   message,
		details:   map[string]any{},
		createdAt: now,
		updatedAt: now,
	}, nil
}

func ReconstructEntry(
	id string,
	branchID uint,
	category Category,
	status Status,
	message string,
	details map[string]any,
	entity *EntityRef,
	createdAt, updatedAt time.Time,
) *Entry {
	if details == nil {
		details = map[string]any{}
	}
	return &Entry{
		id:        id,
		branchID:  branchID,
		category:  category,
		status:    status,
		message:   message,
		details:   details,
		entity:    entity,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (e *Entry) ID() string              { return e.id }
func (e *Entry) BranchID() uint          { return e.branchID }
func (e *Entry) Category() Category      { return e.category }
func (e *Entry) Status() Status          { return e.status }
func (e *Entry) Message() string         { return e.message }
func (e *Entry) Details() map[string]any { return e.details }
func (e *Entry) Entity() *EntityRef      { return e.entity }
func (e *Entry) CreatedAt() time.Time    { return e.createdAt }
func (e *Entry) UpdatedAt() time.Time    { return e.updatedAt }

// WithDetail adds a key to the structured details. Only valid before the
// entry is persisted.
func (e *Entry) WithDetail(key string, value any) *Entry {
	e.details[key] = value
	return e
}

func (e *Entry) WithEntity(entityType, id string) *Entry {
	e.entity = &EntityRef{Type: entityType, ID: id}
	return e
}

// Complete moves a pending entry to its final status. Any other transition
// is rejected.
func (e *Entry) Complete(status Status, message string, details map[string]any) error {
	if e.status != StatusPending {
		return ErrNotPending
	}
	if !status.IsValid() || status == StatusPending {
		return fmt.Errorf("invalid final status %q", status)
	}
	e.status = status
	if message != "" {
		e.message = message
	}
	for k, v := range details {
		e.details[k] = v
	}
	if status == StatusError {
		e.category = CategoryError
	}
	e.updatedAt = time.Now().UTC()
	return nil
}

// Record describes an entry to append. Recorders turn it into an Entry.
type Record struct {
	BranchID uint
	Category Category
	Status   Status
	Message  string
	Details  map[string]any
	Entity   *EntityRef
}

func NewEntryFromRecord(r Record) (*Entry, error) {
	e, err := NewEntry(r.BranchID, r.Category, r.Status, r.Message)
	if err != nil {
		return nil, err
	}
	for k, v := range r.Details {
		e.details[k] = v
	}
	e.entity = r.Entity
	return e, nil
}

// Ref is shorthand for an entity reference with a numeric id.
func Ref(entityType string, id uint) *EntityRef {
	return &EntityRef{Type: entityType, ID: fmt.Sprintf("%d", id)}
}
