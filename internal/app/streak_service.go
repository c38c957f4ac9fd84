package app

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"heartscore/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

var streakTypePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// StreakService tracks consecutive-day activity.
type StreakService struct {
	streaks domain.StreakRepository
	loc     *time.Location
	logger  *slog.Logger
}

// NewStreakService creates a StreakService that buckets days in loc.
func NewStreakService(streaks domain.StreakRepository, loc *time.Location, logger *slog.Logger) *StreakService {
	if loc == nil {
		loc = time.Local
	}
	return &StreakService{streaks: streaks, loc: loc, logger: logger}
}

// RecordActivity advances the (userID, streakType) streak for the local day
// of now. Repeated calls on the same day return the streak unchanged.
func (s *StreakService) RecordActivity(ctx context.Context, userID int64, streakType string, now time.Time) (*domain.Streak, error) {
	if !streakTypePattern.MatchString(streakType) {
		return nil, &domain.ValidationError{Field: "streakType", Value: streakType, Reason: "must be lowercase letters, digits or underscores"}
	}
	day := domain.LocalDay(now, s.loc)
	st, err := s.streaks.AdvanceStreak(ctx, userID, streakType, day, now.UTC())
	if err != nil {
		s.logger.Error("advance streak", "user_id", userID, "streak_type", streakType, "date", day, "error", err)
		return nil, err
	}
	count(ctx, "heartscore.streak.recorded", attribute.String("streak_type", streakType))
	return st, nil
}

// Get returns one streak, or domain.ErrNotFound when the user never logged.
func (s *StreakService) Get(ctx context.Context, userID int64, streakType string) (*domain.Streak, error) {
	st, err := s.streaks.GetStreak(ctx, userID, streakType)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, domain.ErrNotFound
	}
	return st, nil
}

// List returns all of the user's streaks.
func (s *StreakService) List(ctx context.Context, userID int64) ([]domain.Streak, error) {
	list, err := s.streaks.ListStreaks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Streak{}
	}
	return list, nil
}
