package app_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"heartscore/internal/adapter/memory"
	"heartscore/internal/app"
	"heartscore/internal/clock"
	"heartscore/internal/domain"

	"github.com/stretchr/testify/require"
)

// now is the fixed "current time" for service tests: 2026-06-15 in UTC.
var now = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

const today = "2026-06-15"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// services is the app layer wired over one in-memory store.
type services struct {
	store        *memory.DB
	scores       *app.ScoreService
	streaks      *app.StreakService
	ledger       *app.LedgerService
	achievements *app.AchievementService
	readings     *app.ReadingService
	history      *app.HistoryService
}

func newServices(t *testing.T, source domain.HealthDataSource) *services {
	t.Helper()
	store := memory.New()
	c := clock.Fixed{T: now}
	logger := discardLogger()

	s := &services{store: store}
	s.scores = app.NewScoreService(store, store, source, c, time.UTC, logger)
	s.streaks = app.NewStreakService(store, time.UTC, logger)
	s.ledger = app.NewLedgerService(store, c, logger)
	s.achievements = app.NewAchievementService(store, store, store, s.ledger, c, time.UTC, logger)
	s.readings = app.NewReadingService(store, s.streaks, s.achievements, s.scores, c, time.UTC, logger)
	s.history = app.NewHistoryService(store, c, time.UTC)
	return s
}

func (s *services) user(t *testing.T, name string) int64 {
	t.Helper()
	u, err := s.store.Create(context.Background(), name, "")
	require.NoError(t, err)
	return u.ID
}

// sourceFunc adapts a function to domain.HealthDataSource.
type sourceFunc func(ctx context.Context, userID int64, day string) (*domain.DailySignals, error)

func (f sourceFunc) DailySignals(ctx context.Context, userID int64, day string) (*domain.DailySignals, error) {
	return f(ctx, userID, day)
}

func intPtr(v int) *int                                  { return &v }
func floatPtr(v float64) *float64                        { return &v }
func moodPtr(m domain.Mood) *domain.Mood                 { return &m }
func stressPtr(s domain.StressLevel) *domain.StressLevel { return &s }

func newStreakServiceIn(s *services, loc *time.Location) *app.StreakService {
	return app.NewStreakService(s.store, loc, discardLogger())
}

func newAchievementServiceWith(s *services, repo domain.AchievementRepository) *app.AchievementService {
	return app.NewAchievementService(repo, s.store, s.store, nil, clock.Fixed{T: now}, time.UTC, discardLogger())
}
