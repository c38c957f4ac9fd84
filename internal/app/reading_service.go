package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"heartscore/internal/clock"
	"heartscore/internal/domain"
	"heartscore/internal/scoring"
)

// ReadingService records raw health logs and runs the check-in hooks that
// follow every write.
type ReadingService struct {
	readings     domain.ReadingStore
	streaks      *StreakService
	achievements *AchievementService
	scores       *ScoreService
	clock        clock.Clock
	loc          *time.Location
	logger       *slog.Logger
}

// NewReadingService creates a ReadingService.
func NewReadingService(readings domain.ReadingStore, streaks *StreakService, achievements *AchievementService, scores *ScoreService, c clock.Clock, loc *time.Location, logger *slog.Logger) *ReadingService {
	if loc == nil {
		loc = time.Local
	}
	return &ReadingService{
		readings:     readings,
		streaks:      streaks,
		achievements: achievements,
		scores:       scores,
		clock:        c,
		loc:          loc,
		logger:       logger,
	}
}

// IntakeResult reports a stored log and the outcome of its follow-up hooks.
// Hook failures are logged and leave the matching field empty.
type IntakeResult struct {
	ID         int64                    `json:"id"`
	Day        string                   `json:"day"`
	Streak     *domain.Streak           `json:"streak,omitempty"`
	NewBadges  []domain.BadgeType       `json:"newBadges"`
	HeartScore *domain.HeartScoreRecord `json:"heartScore,omitempty"`
}

// RecordBP validates and stores a blood pressure reading. A zero measuredAt
// means now.
func (s *ReadingService) RecordBP(ctx context.Context, userID int64, systolic, diastolic int, measuredAt time.Time) (*IntakeResult, error) {
	if err := scoring.ValidateBP(systolic, diastolic); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if measuredAt.IsZero() {
		measuredAt = now
	}
	r := domain.BPReading{
		UserID:     userID,
		Day:        domain.LocalDay(measuredAt, s.loc),
		Systolic:   systolic,
		Diastolic:  diastolic,
		MeasuredAt: measuredAt.UTC(),
		CreatedAt:  now.UTC(),
	}
	id, err := s.readings.AddBPReading(ctx, r)
	if err != nil {
		s.logger.Error("add bp reading", "user_id", userID, "error", err)
		return nil, err
	}
	return s.afterWrite(ctx, userID, id, r.Day, now), nil
}

// RecordGlucose validates and stores a glucose reading.
func (s *ReadingService) RecordGlucose(ctx context.Context, userID int64, mgdl int, mt domain.MeasurementType, measuredAt time.Time) (*IntakeResult, error) {
	if err := scoring.ValidateGlucose(mgdl, mt); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if measuredAt.IsZero() {
		measuredAt = now
	}
	r := domain.GlucoseReading{
		UserID:          userID,
		Day:             domain.LocalDay(measuredAt, s.loc),
		GlucoseMgDl:     mgdl,
		MeasurementType: mt,
		MeasuredAt:      measuredAt.UTC(),
		CreatedAt:       now.UTC(),
	}
	id, err := s.readings.AddGlucoseReading(ctx, r)
	if err != nil {
		s.logger.Error("add glucose reading", "user_id", userID, "error", err)
		return nil, err
	}
	return s.afterWrite(ctx, userID, id, r.Day, now), nil
}

// RecordBehavior validates and stores a ritual check-in. An empty LogDate
// means today.
func (s *ReadingService) RecordBehavior(ctx context.Context, l domain.BehaviorLog) (*IntakeResult, error) {
	now := s.clock.Now()
	if l.LogDate == "" {
		l.LogDate = domain.LocalDay(now, s.loc)
	}
	if _, err := domain.ParseDay(l.LogDate); err != nil {
		return nil, err
	}
	if err := scoring.ValidateBehavior(l); err != nil {
		return nil, err
	}
	l.CreatedAt = now.UTC()
	id, err := s.readings.AddBehaviorLog(ctx, l)
	if err != nil {
		s.logger.Error("add behavior log", "user_id", l.UserID, "error", err)
		return nil, err
	}
	return s.afterWrite(ctx, l.UserID, id, l.LogDate, now), nil
}

// afterWrite advances the check-in streak, evaluates badges and refreshes
// the score for the log's day. The log is already stored, so failures here
// are logged rather than returned.
func (s *ReadingService) afterWrite(ctx context.Context, userID, id int64, day string, now time.Time) *IntakeResult {
	res := &IntakeResult{ID: id, Day: day, NewBadges: []domain.BadgeType{}}

	st, err := s.streaks.RecordActivity(ctx, userID, domain.StreakDailyCheckin, now)
	if err != nil {
		s.logger.Warn("check-in streak not updated", "user_id", userID, "error", err)
	} else {
		res.Streak = st
	}

	if s.achievements != nil {
		badges, err := s.achievements.EvaluateAndAward(ctx, userID)
		if err != nil {
			s.logger.Warn("badges not evaluated", "user_id", userID, "error", err)
		} else {
			res.NewBadges = badges
		}
	}

	if s.scores != nil {
		rec, err := s.scores.ComputeDailyScore(ctx, userID, day)
		if err != nil && !errors.Is(err, domain.ErrInsufficientData) {
			s.logger.Warn("score not refreshed", "user_id", userID, "date", day, "error", err)
		}
		res.HeartScore = rec
	}
	return res
}
