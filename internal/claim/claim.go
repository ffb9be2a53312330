// Package claim owns bid-line status transitions. A claim is a single
// conditional update guarded on status=AVAILABLE; zero rows affected
// means the race was lost and the caller gets the line's current
// authoritative state. No read-then-write window exists, so no external
// lock is needed — per line, the database serializes claims.
package claim

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/linebid/linebid/internal/broadcast"
	"github.com/linebid/linebid/internal/errs"
	"github.com/linebid/linebid/internal/models"
	"gorm.io/gorm"
)

// Action is an administrative transition.
type Action string

const (
	ActionAssign   Action = "assign"
	ActionRelease  Action = "release"
	ActionBlackout Action = "blackout"

	// actionClaim is the self-service claim, logged alongside the
	// administrative actions.
	actionClaim = "claim"
)

// allowedFrom maps each administrative action to the statuses it may
// start from.
var allowedFrom = map[Action][]models.LineStatus{
	ActionAssign:   {models.StatusAvailable},
	ActionRelease:  {models.StatusTaken, models.StatusBlackedOut},
	ActionBlackout: {models.StatusAvailable, models.StatusTaken},
}

// Payload carries the parameters of an administrative transition.
type Payload struct {
	// ActorID is the administrator performing the action.
	ActorID string `json:"actorId"`
	// AssignTo is the user receiving the line; assign only.
	AssignTo string `json:"assignTo,omitempty"`
	// Details is free-form text for the activity log.
	Details string `json:"details,omitempty"`
}

// StateMachine applies transitions against the store and reports them
// to the broadcaster.
type StateMachine struct {
	db     *gorm.DB
	events broadcast.Broadcaster
	// canClaimLines is the organization-wide policy switch for direct
	// self-claiming. When off, only administrative transitions run.
	canClaimLines bool
}

// New builds a state machine. events may be nil.
func New(db *gorm.DB, events broadcast.Broadcaster, canClaimLines bool) *StateMachine {
	return &StateMachine{db: db, events: events, canClaimLines: canClaimLines}
}

// Claim takes an AVAILABLE line for actorID. On a lost race it returns
// ConflictError carrying the current state so the caller can show
// "already taken by X" without another round-trip.
func (m *StateMachine) Claim(bidLineID uint, actorID string) (*models.BidLine, error) {
	if !m.canClaimLines {
		return nil, &errs.PolicyError{Msg: "self-claiming is disabled; ask an administrator to assign the line"}
	}
	if actorID == "" {
		return nil, errs.Validationf("actorID is required")
	}

	state := models.Taken(actorID, time.Now())
	line, err := m.transition(bidLineID, actorID, actionClaim, state,
		[]models.LineStatus{models.StatusAvailable}, "")
	if err != nil {
		return nil, err
	}
	return line, nil
}

// AdminTransition applies assign, release, or blackout on behalf of an
// administrator.
func (m *StateMachine) AdminTransition(bidLineID uint, action Action, payload Payload) (*models.BidLine, error) {
	if payload.ActorID == "" {
		return nil, errs.Validationf("actorID is required")
	}

	from, ok := allowedFrom[action]
	if !ok {
		return nil, errs.Validationf("unknown action %q", action)
	}

	now := time.Now()
	var state models.LineState
	switch action {
	case ActionAssign:
		if payload.AssignTo == "" {
			return nil, errs.Validationf("assign requires a user")
		}
		state = models.Taken(payload.AssignTo, now)
	case ActionRelease:
		state = models.Available()
	case ActionBlackout:
		state = models.BlackedOut(payload.ActorID, now)
	}

	return m.transition(bidLineID, payload.ActorID, string(action), state, from, payload.Details)
}

// transition performs the conditional update, appends the activity-log
// row in the same transaction, and publishes the event after commit.
func (m *StateMachine) transition(bidLineID uint, actorID, action string,
	state models.LineState, from []models.LineStatus, details string) (*models.BidLine, error) {

	var line models.BidLine

	err := m.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.BidLine{}).
			Where("id = ? AND status IN ?", bidLineID, from).
			Updates(state.Columns())
		if result.Error != nil {
			return fmt.Errorf("claim: update line %d: %w", bidLineID, result.Error)
		}
		if result.RowsAffected == 0 {
			return m.conflictOrNotFound(tx, bidLineID)
		}

		if err := tx.Where("id = ?", bidLineID).First(&line).Error; err != nil {
			return fmt.Errorf("claim: reload line %d: %w", bidLineID, err)
		}

		entry := models.ActivityLog{
			ActorID:   actorID,
			Action:    action,
			BidLineID: bidLineID,
			Details:   details,
			CreatedAt: time.Now(),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("claim: log %s on line %d: %w", action, bidLineID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.publish(&line, action, actorID)
	return &line, nil
}

// conflictOrNotFound explains a zero-row conditional update: either the
// line does not exist, or it is in a state the action cannot start
// from.
func (m *StateMachine) conflictOrNotFound(tx *gorm.DB, bidLineID uint) error {
	var current models.BidLine
	if err := tx.Where("id = ?", bidLineID).First(&current).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &errs.NotFoundError{Kind: "bid line", ID: fmt.Sprint(bidLineID)}
		}
		return fmt.Errorf("claim: read line %d: %w", bidLineID, err)
	}

	conflict := &errs.ConflictError{
		BidLineID: bidLineID,
		Status:    current.Status,
	}
	if current.TakenBy != nil {
		conflict.TakenBy = *current.TakenBy
	}
	if current.TakenAt != nil {
		conflict.TakenAt = *current.TakenAt
	}
	return conflict
}

// eventTypes maps logged actions to broadcast event types.
var eventTypes = map[string]string{
	actionClaim:            "claimed",
	string(ActionAssign):   "assigned",
	string(ActionRelease):  "released",
	string(ActionBlackout): "blacked_out",
}

// publish reports a committed transition. Best-effort: the state change
// is already durable, so a broadcaster failure is logged and swallowed.
func (m *StateMachine) publish(line *models.BidLine, action, actorID string) {
	if m.events == nil {
		return
	}

	eventType, ok := eventTypes[action]
	if !ok {
		eventType = action
	}

	// TakenBy names the holder for claimed/assigned/blacked-out lines;
	// a release has no holder, so the acting administrator is recorded.
	actor := actorID
	if line.TakenBy != nil {
		actor = *line.TakenBy
	}
	event := broadcast.Event{
		Type:       eventType,
		BidLineID:  line.ID,
		LineNumber: line.LineNumber,
		Status:     line.Status,
		Actor:      actor,
		OccurredAt: time.Now(),
	}
	if err := m.events.Publish(event); err != nil {
		log.Printf("claim: publish %s for line %d: %v", eventType, line.ID, err)
	}
}
