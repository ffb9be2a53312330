// Package models defines the GORM persistence structs for Linebid.
package models

import (
	"fmt"
	"time"
)

// LineStatus is the persisted status of a bid line.
type LineStatus string

const (
	StatusAvailable  LineStatus = "AVAILABLE"
	StatusTaken      LineStatus = "TAKEN"
	StatusBlackedOut LineStatus = "BLACKED_OUT"
)

// BidLine is an assignable schedule slot identified by a line number
// within an operation.
type BidLine struct {
	ID          uint       `gorm:"primaryKey;autoIncrement"`
	LineNumber  int        `gorm:"not null;index"`
	OperationID uint       `gorm:"not null;index"`
	Status      LineStatus `gorm:"size:16;default:AVAILABLE;index"`
	TakenBy     *string    `gorm:"size:64"`
	TakenAt     *time.Time
	ScheduleID  *uint
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Operation Operation `gorm:"foreignKey:OperationID"`
	Schedule  *Schedule `gorm:"foreignKey:ScheduleID"`
}

// LineState is the tagged in-memory view of a bid line's status. The DB
// stores status plus nullable taken_by/taken_at; every write goes through
// a LineState so the columns cannot drift apart.
type LineState struct {
	status  LineStatus
	actor   string
	touched time.Time
}

// Available returns the open state.
func Available() LineState {
	return LineState{status: StatusAvailable}
}

// Taken returns the claimed state for an actor.
func Taken(by string, at time.Time) LineState {
	return LineState{status: StatusTaken, actor: by, touched: at}
}

// BlackedOut returns the administratively withheld state.
func BlackedOut(by string, at time.Time) LineState {
	return LineState{status: StatusBlackedOut, actor: by, touched: at}
}

// Status returns the persisted status tag.
func (s LineState) Status() LineStatus { return s.status }

// Actor returns the actor and timestamp for TAKEN/BLACKED_OUT states.
// The bool is false for AVAILABLE.
func (s LineState) Actor() (string, time.Time, bool) {
	if s.status == StatusAvailable {
		return "", time.Time{}, false
	}
	return s.actor, s.touched, true
}

// Columns returns the column map for a conditional update. AVAILABLE
// clears taken_by/taken_at; the other states set both.
func (s LineState) Columns() map[string]interface{} {
	if s.status == StatusAvailable {
		return map[string]interface{}{
			"status":   StatusAvailable,
			"taken_by": nil,
			"taken_at": nil,
		}
	}
	return map[string]interface{}{
		"status":   s.status,
		"taken_by": s.actor,
		"taken_at": s.touched,
	}
}

// State derives the tagged state from the persisted columns. An error
// means the row violates the status/actor consistency invariant.
func (l *BidLine) State() (LineState, error) {
	switch l.Status {
	case StatusAvailable:
		if l.TakenBy != nil || l.TakenAt != nil {
			return LineState{}, fmt.Errorf("models: line %d is AVAILABLE but has actor fields set", l.ID)
		}
		return Available(), nil
	case StatusTaken, StatusBlackedOut:
		if l.TakenBy == nil || l.TakenAt == nil {
			return LineState{}, fmt.Errorf("models: line %d is %s but missing actor fields", l.ID, l.Status)
		}
		if l.Status == StatusTaken {
			return Taken(*l.TakenBy, *l.TakenAt), nil
		}
		return BlackedOut(*l.TakenBy, *l.TakenAt), nil
	default:
		return LineState{}, fmt.Errorf("models: line %d has unknown status %q", l.ID, l.Status)
	}
}

// ApplyState writes a tagged state back onto the struct fields.
func (l *BidLine) ApplyState(s LineState) {
	l.Status = s.status
	if s.status == StatusAvailable {
		l.TakenBy = nil
		l.TakenAt = nil
		return
	}
	actor, at := s.actor, s.touched
	l.TakenBy = &actor
	l.TakenAt = &at
}
