package app

import (
	"context"
	"time"

	"heartscore/internal/clock"
	"heartscore/internal/domain"
)

const maxHistoryDays = 366

// HistoryService serves score trends for charts.
type HistoryService struct {
	scores domain.HeartScoreRepository
	clock  clock.Clock
	loc    *time.Location
}

// NewHistoryService creates a HistoryService backed by the given repository.
func NewHistoryService(scores domain.HeartScoreRepository, c clock.Clock, loc *time.Location) *HistoryService {
	if loc == nil {
		loc = time.Local
	}
	return &HistoryService{scores: scores, clock: c, loc: loc}
}

// DayPoint is a single data point returned by GetDaily.
type DayPoint struct {
	Day        string                  `json:"day"`
	HeartScore *int                    `json:"heartScore"`
	Breakdown  map[domain.Category]int `json:"breakdown,omitempty"`
}

// GetDaily returns one point per day for the last days days, oldest first.
// Days without a stored score have a nil HeartScore.
func (s *HistoryService) GetDaily(ctx context.Context, userID int64, days int) ([]DayPoint, error) {
	if days <= 0 {
		return nil, &domain.ValidationError{Field: "days", Value: days, Reason: "must be positive"}
	}
	if days > maxHistoryDays {
		days = maxHistoryDays
	}

	from, to := domain.TrailingWindow(domain.LocalDay(s.clock.Now(), s.loc), days)
	recs, err := s.scores.ListHeartScores(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]domain.HeartScoreRecord, len(recs))
	for _, r := range recs {
		byDay[r.ScoreDate] = r
	}

	points := make([]DayPoint, 0, days)
	for i := 0; i < days; i++ {
		day := domain.AddDays(from, i)
		p := DayPoint{Day: day}
		if r, ok := byDay[day]; ok {
			score := r.HeartScore
			p.HeartScore = &score
			p.Breakdown = r.Breakdown
		}
		points = append(points, p)
	}
	return points, nil
}
