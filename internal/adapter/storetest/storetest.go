// Package storetest is a conformance suite every domain.Store adapter runs.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"heartscore/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) domain.Store

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Readings", func(t *testing.T) { testReadings(t, newStore(t)) })
	t.Run("HeartScores", func(t *testing.T) { testHeartScores(t, newStore(t)) })
	t.Run("StreakSequence", func(t *testing.T) { testStreakSequence(t, newStore(t)) })
	t.Run("StreakConcurrent", func(t *testing.T) { testStreakConcurrent(t, newStore(t)) })
	t.Run("Achievements", func(t *testing.T) { testAchievements(t, newStore(t)) })
	t.Run("AgentActions", func(t *testing.T) { testAgentActions(t, newStore(t)) })
}

var base = time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC)

func mustUser(t *testing.T, s domain.Store, name string) int64 {
	t.Helper()
	u, err := s.Create(context.Background(), name, "")
	require.NoError(t, err)
	return u.ID
}

func testUsers(t *testing.T, s domain.Store) {
	ctx := context.Background()

	u, err := s.Create(ctx, "asha", "hash")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)

	_, err = s.Create(ctx, "asha", "other")
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := s.GetByUsername(ctx, "asha")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	missing, err := s.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	byID, err := s.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "asha", byID.Username)

	second := mustUser(t, s, "ravi")
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ids, err := s.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{u.ID, second}, ids)
}

func testReadings(t *testing.T, s domain.Store) {
	ctx := context.Background()
	user := mustUser(t, s, "asha")
	other := mustUser(t, s, "ravi")

	for i, sys := range []int{118, 142, 125} {
		_, err := s.AddBPReading(ctx, domain.BPReading{
			UserID: user, Day: "2026-06-01", Systolic: sys, Diastolic: 76,
			MeasuredAt: base.Add(time.Duration(i) * time.Hour), CreatedAt: base,
		})
		require.NoError(t, err)
	}
	_, err := s.AddBPReading(ctx, domain.BPReading{
		UserID: user, Day: "2026-05-20", Systolic: 110, Diastolic: 70, MeasuredAt: base.AddDate(0, 0, -12), CreatedAt: base,
	})
	require.NoError(t, err)

	latest, err := s.LatestBPForDay(ctx, user, "2026-06-01")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 125, latest.Systolic)
	assert.True(t, latest.MeasuredAt.Equal(base.Add(2*time.Hour)), "measuredAt = %v", latest.MeasuredAt)

	none, err := s.LatestBPForDay(ctx, other, "2026-06-01")
	require.NoError(t, err)
	assert.Nil(t, none)

	window, err := s.ListBPBetween(ctx, user, "2026-05-21", "2026-06-01")
	require.NoError(t, err)
	require.Len(t, window, 3)
	assert.Equal(t, 118, window[0].Systolic)

	_, err = s.AddGlucoseReading(ctx, domain.GlucoseReading{
		UserID: user, Day: "2026-06-01", GlucoseMgDl: 92, MeasurementType: domain.MeasurementFasting,
		MeasuredAt: base, CreatedAt: base,
	})
	require.NoError(t, err)
	_, err = s.AddGlucoseReading(ctx, domain.GlucoseReading{
		UserID: user, Day: "2026-06-01", GlucoseMgDl: 150, MeasurementType: domain.MeasurementPostMeal,
		MeasuredAt: base.Add(4 * time.Hour), CreatedAt: base,
	})
	require.NoError(t, err)

	g, err := s.LatestGlucoseForDay(ctx, user, "2026-06-01")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, 150, g.GlucoseMgDl)
	assert.Equal(t, domain.MeasurementPostMeal, g.MeasurementType)

	gl, err := s.ListGlucoseBetween(ctx, user, "2026-06-01", "2026-06-01")
	require.NoError(t, err)
	assert.Len(t, gl, 2)

	sleep := 7.5
	mood := domain.MoodGood
	_, err = s.AddBehaviorLog(ctx, domain.BehaviorLog{
		UserID: user, LogDate: "2026-06-01", RitualType: domain.RitualMorning, SleepHours: &sleep, Mood: &mood, CreatedAt: base,
	})
	require.NoError(t, err)
	steps := 9000
	_, err = s.AddBehaviorLog(ctx, domain.BehaviorLog{
		UserID: user, LogDate: "2026-06-01", RitualType: domain.RitualEvening, Steps: &steps, CreatedAt: base.Add(12 * time.Hour),
	})
	require.NoError(t, err)

	logs, err := s.ListBehaviorForDay(ctx, user, "2026-06-01")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, domain.RitualMorning, logs[0].RitualType)
	require.NotNil(t, logs[0].SleepHours)
	assert.InDelta(t, 7.5, *logs[0].SleepHours, 0.0001)
	require.NotNil(t, logs[0].Mood)
	assert.Equal(t, domain.MoodGood, *logs[0].Mood)
	assert.Nil(t, logs[0].Steps)
	assert.Nil(t, logs[0].StressLevel)
	require.NotNil(t, logs[1].Steps)
	assert.Equal(t, 9000, *logs[1].Steps)
}

func testHeartScores(t *testing.T, s domain.Store) {
	ctx := context.Background()
	user := mustUser(t, s, "asha")

	rec := domain.HeartScoreRecord{
		UserID: user, ScoreDate: "2026-06-01", HeartScore: 71,
		Breakdown: map[domain.Category]int{domain.CategoryBP: 60, domain.CategoryGlucose: 100},
	}
	require.NoError(t, s.UpsertHeartScore(ctx, rec, base))
	require.NoError(t, s.UpsertHeartScore(ctx, rec, base.Add(time.Minute)))

	got, err := s.GetHeartScore(ctx, user, "2026-06-01")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec, *got)

	rec.HeartScore = 88
	rec.Breakdown = map[domain.Category]int{domain.CategoryRituals: 88}
	require.NoError(t, s.UpsertHeartScore(ctx, rec, base.Add(time.Hour)))
	got, err = s.GetHeartScore(ctx, user, "2026-06-01")
	require.NoError(t, err)
	assert.Equal(t, rec, *got)

	require.NoError(t, s.UpsertHeartScore(ctx, domain.HeartScoreRecord{
		UserID: user, ScoreDate: "2026-05-30", HeartScore: 50, Breakdown: map[domain.Category]int{domain.CategoryBP: 50},
	}, base))

	list, err := s.ListHeartScores(ctx, user, "2026-05-01", "2026-06-30")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2026-05-30", list[0].ScoreDate)
	assert.Equal(t, "2026-06-01", list[1].ScoreDate)

	missing, err := s.GetHeartScore(ctx, user, "2026-01-01")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testStreakSequence(t *testing.T, s domain.Store) {
	ctx := context.Background()
	user := mustUser(t, s, "asha")
	day := func(i int) string { return domain.AddDays("2026-06-01", i) }

	for i := range 8 {
		st, err := s.AdvanceStreak(ctx, user, domain.StreakDailyCheckin, day(i), base.AddDate(0, 0, i))
		require.NoError(t, err)
		assert.Equal(t, i+1, st.Count, "day %d", i+1)

		again, err := s.AdvanceStreak(ctx, user, domain.StreakDailyCheckin, day(i), base.AddDate(0, 0, i).Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, i+1, again.Count, "repeat on day %d", i+1)
		assert.True(t, again.LastLoggedAt.Equal(base.AddDate(0, 0, i)), "same-day call must not move lastLoggedAt")
	}

	// Skipping a day resets.
	st, err := s.AdvanceStreak(ctx, user, domain.StreakDailyCheckin, day(9), base.AddDate(0, 0, 9))
	require.NoError(t, err)
	assert.Equal(t, 1, st.Count)
	assert.Equal(t, day(9), st.LastLoggedDay)

	// A last day in the future is a gap.
	st, err = s.AdvanceStreak(ctx, user, domain.StreakDailyCheckin, day(3), base.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, 1, st.Count)

	_, err = s.AdvanceStreak(ctx, user, "meditation", day(0), base)
	require.NoError(t, err)

	got, err := s.GetStreak(ctx, user, domain.StreakDailyCheckin)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, day(3), got.LastLoggedDay)

	list, err := s.ListStreaks(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.StreakDailyCheckin, list[0].StreakType)

	missing, err := s.GetStreak(ctx, user, "yoga")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testStreakConcurrent(t *testing.T, s domain.Store) {
	ctx := context.Background()
	user := mustUser(t, s, "asha")

	_, err := s.AdvanceStreak(ctx, user, domain.StreakDailyCheckin, "2026-06-01", base)
	require.NoError(t, err)

	const callers = 16
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make(chan error, callers)
	)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			st, err := s.AdvanceStreak(ctx, user, domain.StreakDailyCheckin, "2026-06-02", base.AddDate(0, 0, 1).Add(time.Duration(i)*time.Millisecond))
			if err == nil && st.Count != 2 {
				err = fmt.Errorf("caller %d saw count %d", i, st.Count)
			}
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	got, err := s.GetStreak(ctx, user, domain.StreakDailyCheckin)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count, "concurrent same-day calls must increment exactly once")
}

func testAchievements(t *testing.T, s domain.Store) {
	ctx := context.Background()
	user := mustUser(t, s, "asha")

	id, err := s.InsertAchievement(ctx, domain.Achievement{UserID: user, BadgeType: domain.Badge7DayStreak, EarnedAt: base})
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = s.InsertAchievement(ctx, domain.Achievement{UserID: user, BadgeType: domain.Badge7DayStreak, EarnedAt: base})
	assert.ErrorIs(t, err, domain.ErrConflict)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.InsertAchievement(ctx, domain.Achievement{UserID: user, BadgeType: domain.Badge30DayStreak, EarnedAt: base})
			if err == nil {
				mu.Lock()
				inserted++
				mu.Unlock()
			} else if !errors.Is(err, domain.ErrConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, inserted)

	list, err := s.ListAchievements(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.Badge7DayStreak, list[0].BadgeType)
	assert.True(t, list[0].EarnedAt.Equal(base))
	assert.False(t, list[0].Shared)
}

func testAgentActions(t *testing.T, s domain.Store) {
	ctx := context.Background()
	user := mustUser(t, s, "asha")
	other := mustUser(t, s, "ravi")

	first := domain.AgentActionLogEntry{
		ID: uuid.NewString(), UserID: user, ActionType: domain.ActionGoalAdjust,
		ActionPayload: domain.GoalAdjustPayload{Goal: "daily_steps", PreviousTarget: 8000, NewTarget: 6000},
		TriggerReason: "three low days", TriggerType: domain.TriggerThreshold, Status: domain.StatusCompleted,
		CreatedAt: base,
	}
	second := domain.AgentActionLogEntry{
		ID: uuid.NewString(), UserID: user, ActionType: domain.ActionNudge,
		ActionPayload: domain.NudgePayload{Channel: "push", Message: "time for your evening ritual"},
		TriggerReason: "evening", TriggerType: domain.TriggerScheduled, Status: domain.StatusPendingReview,
		CreatedAt: base.Add(time.Minute),
	}
	require.NoError(t, s.AppendAgentAction(ctx, first))
	require.NoError(t, s.AppendAgentAction(ctx, second))

	list, err := s.ListAgentActions(ctx, user, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, second.ActionPayload, list[0].ActionPayload)
	assert.Equal(t, first.ActionPayload, list[1].ActionPayload)

	limited, err := s.ListAgentActions(ctx, user, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	got, err := s.GetAgentAction(ctx, user, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Nil(t, got.RevertedAt)

	hidden, err := s.GetAgentAction(ctx, other, first.ID)
	require.NoError(t, err)
	assert.Nil(t, hidden)

	assert.ErrorIs(t, s.MarkAgentActionReverted(ctx, other, first.ID, "not yours", base), domain.ErrNotFound)
	assert.ErrorIs(t, s.MarkAgentActionReverted(ctx, user, uuid.NewString(), "missing", base), domain.ErrNotFound)

	revertedAt := base.Add(time.Hour)
	require.NoError(t, s.MarkAgentActionReverted(ctx, user, first.ID, "user asked", revertedAt))
	assert.ErrorIs(t, s.MarkAgentActionReverted(ctx, user, first.ID, "again", revertedAt), domain.ErrAlreadyReverted)

	got, err = s.GetAgentAction(ctx, user, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReverted, got.Status)
	require.NotNil(t, got.RevertedAt)
	assert.True(t, got.RevertedAt.Equal(revertedAt))
	require.NotNil(t, got.RevertReason)
	assert.Equal(t, "user asked", *got.RevertReason)
}
