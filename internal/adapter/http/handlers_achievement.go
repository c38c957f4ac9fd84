package adapthttp

import (
	"net/http"
)

func (s *Server) handleAchievementsEvaluate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64 `json:"userId"`
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

	badges, err := s.svc.Achievements.EvaluateAndAward(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"newBadges": badges})
}

func (s *Server) handleAchievementsList(w http.ResponseWriter, r *http.Request) {
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

	list, err := s.svc.Achievements.List(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
