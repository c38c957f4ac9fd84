package app

import (
	"context"
	"log/slog"
	"strings"

	"heartscore/internal/clock"
	"heartscore/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultLedgerLimit = 50
	maxLedgerLimit     = 500
)

// LedgerService records automated actions so they can be audited and undone.
type LedgerService struct {
	actions domain.AgentActionRepository
	clock   clock.Clock
	logger  *slog.Logger
}

// NewLedgerService creates a LedgerService.
func NewLedgerService(actions domain.AgentActionRepository, c clock.Clock, logger *slog.Logger) *LedgerService {
	return &LedgerService{actions: actions, clock: c, logger: logger}
}

// RecordInput describes a new ledger entry.
type RecordInput struct {
	UserID        int64
	Payload       domain.ActionPayload
	TriggerReason string
	TriggerType   domain.TriggerType
	// Status defaults to completed.
	Status domain.ActionStatus
}

// Record appends an entry to the ledger.
func (s *LedgerService) Record(ctx context.Context, in RecordInput) (*domain.AgentActionLogEntry, error) {
	if in.Status == "" {
		in.Status = domain.StatusCompleted
	}
	e := domain.AgentActionLogEntry{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		ActionPayload: in.Payload,
		TriggerReason: strings.TrimSpace(in.TriggerReason),
		TriggerType:   in.TriggerType,
		Status:        in.Status,
		CreatedAt:     s.clock.Now().UTC(),
	}
	if in.Payload != nil {
		e.ActionType = in.Payload.ActionType()
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.actions.AppendAgentAction(ctx, e); err != nil {
		s.logger.Error("append agent action", "user_id", in.UserID, "action_type", e.ActionType, "error", err)
		return nil, err
	}
	count(ctx, "heartscore.ledger.recorded", attribute.String("action_type", string(e.ActionType)))
	return &e, nil
}

// List returns the user's most recent entries, newest first.
func (s *LedgerService) List(ctx context.Context, userID int64, limit int) ([]domain.AgentActionLogEntry, error) {
	switch {
	case limit <= 0:
		limit = defaultLedgerLimit
	case limit > maxLedgerLimit:
		limit = maxLedgerLimit
	}
	list, err := s.actions.ListAgentActions(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.AgentActionLogEntry{}
	}
	return list, nil
}

// Get returns one entry, or domain.ErrNotFound.
func (s *LedgerService) Get(ctx context.Context, userID int64, id string) (*domain.AgentActionLogEntry, error) {
	e, err := s.actions.GetAgentAction(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

// Revert marks an entry reverted and returns the typed instruction for
// undoing it. A second revert fails with domain.ErrAlreadyReverted.
func (s *LedgerService) Revert(ctx context.Context, userID int64, id, reason string) (domain.Reversal, error) {
	e, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if e.Status == domain.StatusReverted {
		return nil, domain.ErrAlreadyReverted
	}
	if err := s.actions.MarkAgentActionReverted(ctx, userID, id, strings.TrimSpace(reason), s.clock.Now().UTC()); err != nil {
		return nil, err
	}
	s.logger.Info("agent action reverted", "user_id", userID, "action_id", id, "action_type", e.ActionType)
	count(ctx, "heartscore.ledger.reverted", attribute.String("action_type", string(e.ActionType)))
	return e.ActionPayload.Reversal(), nil
}
