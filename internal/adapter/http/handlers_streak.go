package adapthttp

import (
	"net/http"

	"heartscore/internal/domain"
)

func (s *Server) handleStreakRecord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID     int64  `json:"userId"`
		StreakType string `json:"streakType"`
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
	if req.StreakType == "" {
		req.StreakType = domain.StreakDailyCheckin
	}

	st, err := s.svc.Streaks.RecordActivity(r.Context(), userID, req.StreakType, s.clock.Now())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleStreakList(w http.ResponseWriter, r *http.Request) {
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

	streaks, err := s.svc.Streaks.List(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, streaks)
}
