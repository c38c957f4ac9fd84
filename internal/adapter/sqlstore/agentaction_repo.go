package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"heartscore/internal/domain"
)

// AppendAgentAction appends a ledger entry.
func (d *DB) AppendAgentAction(ctx context.Context, e domain.AgentActionLogEntry) error {
	payload, err := json.Marshal(e.ActionPayload)
	if err != nil {
		return storageErr("encode action payload", err)
	}
	_, err = d.sql.ExecContext(ctx,
		`INSERT INTO agent_actions (id, user_id, action_type, action_payload, trigger_reason, trigger_type, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.UserID, string(e.ActionType), string(payload), e.TriggerReason,
		string(e.TriggerType), string(e.Status), e.CreatedAt.UTC(),
	)
	if err != nil && d.isUnique(err) {
		return domain.ErrConflict
	}
	if err != nil {
		return storageErr("append agent action", err)
	}
	return nil
}

const agentActionColumns = `id, user_id, action_type, action_payload, trigger_reason, trigger_type, status,
	created_at, reverted_at, revert_reason`

func scanAgentAction(row interface{ Scan(...any) error }) (domain.AgentActionLogEntry, error) {
	var (
		e            domain.AgentActionLogEntry
		actionType   string
		payload      []byte
		triggerType  string
		status       string
		revertReason sql.NullString
	)
	err := row.Scan(&e.ID, &e.UserID, &actionType, &payload, &e.TriggerReason, &triggerType, &status,
		timeCol{&e.CreatedAt}, nullTimeCol{&e.RevertedAt}, &revertReason)
	if err != nil {
		return e, err
	}
	e.ActionType = domain.ActionType(actionType)
	e.TriggerType = domain.TriggerType(triggerType)
	e.Status = domain.ActionStatus(status)
	if revertReason.Valid {
		e.RevertReason = &revertReason.String
	}
	e.ActionPayload, err = domain.DecodeActionPayload(e.ActionType, payload)
	return e, err
}

// GetAgentAction returns one ledger entry.
func (d *DB) GetAgentAction(ctx context.Context, userID int64, id string) (*domain.AgentActionLogEntry, error) {
	e, err := scanAgentAction(d.sql.QueryRowContext(ctx,
		"SELECT "+agentActionColumns+" FROM agent_actions WHERE id = $1 AND user_id = $2",
		id, userID,
	))
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get agent action", err)
	}
	return &e, nil
}

// ListAgentActions lists the newest entries first.
func (d *DB) ListAgentActions(ctx context.Context, userID int64, limit int) ([]domain.AgentActionLogEntry, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+agentActionColumns+" FROM agent_actions WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2",
		userID, limit,
	)
	if err != nil {
		return nil, storageErr("list agent actions", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.AgentActionLogEntry
	for rows.Next() {
		e, err := scanAgentAction(rows)
		if err != nil {
			return nil, storageErr("scan agent action", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list agent actions", err)
	}
	return out, nil
}

// MarkAgentActionReverted flips an entry to reverted with a single guarded
// update. When no row changes it tells a missing entry from a reverted one.
func (d *DB) MarkAgentActionReverted(ctx context.Context, userID int64, id, reason string, at time.Time) error {
	res, err := d.sql.ExecContext(ctx,
		`UPDATE agent_actions SET status = 'reverted', reverted_at = $3, revert_reason = $4
		 WHERE id = $1 AND user_id = $2 AND status <> 'reverted'`,
		id, userID, at.UTC(), reason,
	)
	if err != nil {
		return storageErr("revert agent action", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("revert agent action", err)
	}
	if n == 1 {
		return nil
	}

	var status string
	err = d.sql.QueryRowContext(ctx,
		"SELECT status FROM agent_actions WHERE id = $1 AND user_id = $2", id, userID,
	).Scan(&status)
	if noRows(err) {
		return domain.ErrNotFound
	}
	if err != nil {
		return storageErr("revert agent action", err)
	}
	return domain.ErrAlreadyReverted
}
