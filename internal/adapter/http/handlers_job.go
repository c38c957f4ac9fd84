package adapthttp

import (
	"net/http"

	"heartscore/internal/domain"
)

// handleDailyJob runs the scoring job for every user. Scheduler only.
func (s *Server) handleDailyJob(w http.ResponseWriter, r *http.Request) {
	if s.svc.Job == nil {
		http.NotFound(w, r)
		return
	}
	if p, _ := PrincipalFromContext(r.Context()); p.Role != domain.RoleScheduler {
		s.writeServiceError(w, r, domain.ErrForbidden)
		return
	}

	var req struct {
		Date string `json:"date"`
	}
	if err := parseOptionalJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	summary, err := s.svc.Job.Run(r.Context(), req.Date)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
