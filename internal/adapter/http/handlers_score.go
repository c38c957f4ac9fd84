package adapthttp

import (
	"net/http"

	"heartscore/internal/domain"
)

func (s *Server) handleCalculateScore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64  `json:"userId"`
		Date   string `json:"date"`
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

	if req.Date == "" {
		req.Date = s.svc.Scores.Today()
	}
	rec, err := s.svc.Scores.ComputeDailyScore(r.Context(), userID, req.Date)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"heartScore": rec.HeartScore,
		"breakdown":  rec.Breakdown,
		"scoreDate":  rec.ScoreDate,
	})
}

func (s *Server) handleScoreForDay(w http.ResponseWriter, r *http.Request) {
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

	rec, err := s.svc.Scores.GetScore(r.Context(), userID, r.PathValue("date"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleScoresDaily(w http.ResponseWriter, r *http.Request) {
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

	points, err := s.svc.History.GetDaily(r.Context(), userID, intQuery(r, "days", 30))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleRituals(w http.ResponseWriter, r *http.Request) {
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

	day := r.PathValue("date")
	out := make(map[domain.RitualType]bool, 2)
	for _, rt := range []domain.RitualType{domain.RitualMorning, domain.RitualEvening} {
		done, err := s.svc.Scores.IsRitualComplete(r.Context(), userID, day, rt)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		out[rt] = done
	}
	writeJSON(w, http.StatusOK, out)
}
