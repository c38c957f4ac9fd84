package adapthttp

import (
	"net/http"
	"time"

	"heartscore/internal/domain"
)

func (s *Server) handleRecordBP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID     int64     `json:"userId"`
		Systolic   int       `json:"systolic"`
		Diastolic  int       `json:"diastolic"`
		MeasuredAt time.Time `json:"measuredAt"`
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

	res, err := s.svc.Readings.RecordBP(r.Context(), userID, req.Systolic, req.Diastolic, req.MeasuredAt)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleRecordGlucose(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID          int64                  `json:"userId"`
		GlucoseMgDl     int                    `json:"glucoseMgDl"`
		MeasurementType domain.MeasurementType `json:"measurementType"`
		MeasuredAt      time.Time              `json:"measuredAt"`
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

	res, err := s.svc.Readings.RecordGlucose(r.Context(), userID, req.GlucoseMgDl, req.MeasurementType, req.MeasuredAt)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleRecordBehavior(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      int64               `json:"userId"`
		LogDate     string              `json:"logDate"`
		RitualType  domain.RitualType   `json:"ritualType"`
		SleepHours  *float64            `json:"sleepHours"`
		StressLevel *domain.StressLevel `json:"stressLevel"`
		Mood        *domain.Mood        `json:"mood"`
		Steps       *int                `json:"steps"`
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

	res, err := s.svc.Readings.RecordBehavior(r.Context(), domain.BehaviorLog{
		UserID:      userID,
		LogDate:     req.LogDate,
		RitualType:  req.RitualType,
		SleepHours:  req.SleepHours,
		StressLevel: req.StressLevel,
		Mood:        req.Mood,
		Steps:       req.Steps,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
