package adapthttp

import (
	"encoding/json"
	"net/http"

	"heartscore/internal/app"
	"heartscore/internal/domain"
)

func (s *Server) handleAgentActionList(w http.ResponseWriter, r *http.Request) {
	requested, err := userQuery(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	userID, err := target(r, requested)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	entries, err := s.svc.Ledger.List(r.Context(), userID, intQuery(r, "limit", 50))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleAgentActionCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID        int64               `json:"userId"`
		ActionType    domain.ActionType   `json:"actionType"`
		ActionPayload json.RawMessage     `json:"actionPayload"`
		TriggerReason string              `json:"triggerReason"`
		TriggerType   domain.TriggerType  `json:"triggerType"`
		Status        domain.ActionStatus `json:"status"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	userID, err := target(r, req.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	payload, err := domain.DecodeActionPayload(req.ActionType, req.ActionPayload)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	e, err := s.svc.Ledger.Record(r.Context(), app.RecordInput{
		UserID:        userID,
		Payload:       payload,
		TriggerReason: req.TriggerReason,
		TriggerType:   req.TriggerType,
		Status:        req.Status,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleAgentActionGet(w http.ResponseWriter, r *http.Request) {
	requested, err := userQuery(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	userID, err := target(r, requested)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	e, err := s.svc.Ledger.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleAgentActionRevert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64  `json:"userId"`
		Reason string `json:"reason"`
	}
	if err := parseOptionalJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	userID, err := target(r, req.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	rev, err := s.svc.Ledger.Revert(r.Context(), userID, r.PathValue("id"), req.Reason)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         r.PathValue("id"),
		"actionType": rev.ActionType(),
		"reversal":   rev,
	})
}
