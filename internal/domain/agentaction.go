package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ActionType discriminates the payload of an agent action.
type ActionType string

const (
	ActionNudge      ActionType = "nudge"
	ActionGoalAdjust ActionType = "goal_adjust"
)

// TriggerType records what caused the system to act.
type TriggerType string

const (
	TriggerScheduled   TriggerType = "scheduled"
	TriggerThreshold   TriggerType = "threshold"
	TriggerAchievement TriggerType = "achievement"
	TriggerManual      TriggerType = "manual"
)

func (t TriggerType) Valid() bool {
	switch t {
	case TriggerScheduled, TriggerThreshold, TriggerAchievement, TriggerManual:
		return true
	}
	return false
}

// ActionStatus is the lifecycle state of a ledger entry. Reverted is terminal.
type ActionStatus string

const (
	StatusCompleted     ActionStatus = "completed"
	StatusPendingReview ActionStatus = "pending_review"
	StatusReverted      ActionStatus = "reverted"
	StatusFailed        ActionStatus = "failed"
)

// Valid reports whether s is a status an entry may be created with.
func (s ActionStatus) Valid() bool {
	switch s {
	case StatusCompleted, StatusPendingReview, StatusFailed:
		return true
	}
	return false
}

// ActionPayload is one variant of the agent action union.
type ActionPayload interface {
	ActionType() ActionType
	// Reversal describes how to undo the action.
	Reversal() Reversal
	Validate() error
}

// Reversal is the typed undo instruction for an ActionPayload.
type Reversal interface {
	ActionType() ActionType
}

// NudgePayload is a message sent to the user.
type NudgePayload struct {
	Channel string `json:"channel"`
	Message string `json:"message"`
	// Ref links the nudge to what caused it, e.g. a badge type.
	Ref string `json:"ref,omitempty"`
}

func (NudgePayload) ActionType() ActionType { return ActionNudge }

func (p NudgePayload) Reversal() Reversal {
	return NudgeReversal{Channel: p.Channel, Ref: p.Ref}
}

func (p NudgePayload) Validate() error {
	if p.Channel == "" {
		return &ValidationError{Field: "channel", Value: p.Channel, Reason: "required"}
	}
	if p.Message == "" {
		return &ValidationError{Field: "message", Value: p.Message, Reason: "required"}
	}
	return nil
}

// NudgeReversal withdraws a nudge from its channel.
type NudgeReversal struct {
	Channel string `json:"channel"`
	Ref     string `json:"ref,omitempty"`
}

func (NudgeReversal) ActionType() ActionType { return ActionNudge }

// GoalAdjustPayload records an automatic change to a user goal.
type GoalAdjustPayload struct {
	Goal           string  `json:"goal"`
	PreviousTarget float64 `json:"previousTarget"`
	NewTarget      float64 `json:"newTarget"`
}

func (GoalAdjustPayload) ActionType() ActionType { return ActionGoalAdjust }

func (p GoalAdjustPayload) Reversal() Reversal {
	return GoalAdjustReversal{Goal: p.Goal, RestoreTarget: p.PreviousTarget}
}

func (p GoalAdjustPayload) Validate() error {
	if p.Goal == "" {
		return &ValidationError{Field: "goal", Value: p.Goal, Reason: "required"}
	}
	if p.NewTarget < 0 || p.PreviousTarget < 0 {
		return &ValidationError{Field: "target", Value: p.NewTarget, Reason: "must not be negative"}
	}
	return nil
}

// GoalAdjustReversal restores the goal target that was in place before.
type GoalAdjustReversal struct {
	Goal          string  `json:"goal"`
	RestoreTarget float64 `json:"restoreTarget"`
}

func (GoalAdjustReversal) ActionType() ActionType { return ActionGoalAdjust }

// DecodeActionPayload decodes raw JSON into the variant named by t.
func DecodeActionPayload(t ActionType, raw []byte) (ActionPayload, error) {
	var (
		p   ActionPayload
		err error
	)
	switch t {
	case ActionNudge:
		var n NudgePayload
		err = json.Unmarshal(raw, &n)
		p = n
	case ActionGoalAdjust:
		var g GoalAdjustPayload
		err = json.Unmarshal(raw, &g)
		p = g
	default:
		return nil, &ValidationError{Field: "actionType", Value: t, Reason: "unknown action type"}
	}
	if err != nil {
		return nil, &ValidationError{Field: "actionPayload", Value: string(raw), Reason: err.Error()}
	}
	return p, nil
}

// AgentActionLogEntry is one automated action in the audit ledger.
type AgentActionLogEntry struct {
	ID            string        `json:"id"`
	UserID        int64         `json:"userId"`
	ActionType    ActionType    `json:"actionType"`
	ActionPayload ActionPayload `json:"actionPayload"`
	TriggerReason string        `json:"triggerReason"`
	TriggerType   TriggerType   `json:"triggerType"`
	Status        ActionStatus  `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
	RevertedAt    *time.Time    `json:"revertedAt,omitempty"`
	RevertReason  *string       `json:"revertReason,omitempty"`
}

// Validate checks the entry is consistent before it is appended.
func (e AgentActionLogEntry) Validate() error {
	if e.ActionPayload == nil {
		return &ValidationError{Field: "actionPayload", Value: nil, Reason: "required"}
	}
	if e.ActionPayload.ActionType() != e.ActionType {
		return &ValidationError{Field: "actionType", Value: e.ActionType,
			Reason: fmt.Sprintf("payload is %s", e.ActionPayload.ActionType())}
	}
	if !e.TriggerType.Valid() {
		return &ValidationError{Field: "triggerType", Value: e.TriggerType, Reason: "unknown trigger type"}
	}
	if !e.Status.Valid() {
		return &ValidationError{Field: "status", Value: e.Status, Reason: "must be completed, pending_review or failed"}
	}
	return e.ActionPayload.Validate()
}

// AgentActionRepository defines the port for the action ledger.
type AgentActionRepository interface {
	AppendAgentAction(ctx context.Context, e AgentActionLogEntry) error
	// GetAgentAction returns (nil, nil) when no entry matches.
	GetAgentAction(ctx context.Context, userID int64, id string) (*AgentActionLogEntry, error)
	ListAgentActions(ctx context.Context, userID int64, limit int) ([]AgentActionLogEntry, error)
	// MarkAgentActionReverted sets status to reverted only when it is not
	// already reverted. It returns ErrNotFound or ErrAlreadyReverted otherwise.
	MarkAgentActionReverted(ctx context.Context, userID int64, id, reason string, at time.Time) error
}

// Store is the full persistence surface implemented by every adapter.
type Store interface {
	UserRepository
	ReadingStore
	HeartScoreRepository
	StreakRepository
	AchievementRepository
	AgentActionRepository
}
