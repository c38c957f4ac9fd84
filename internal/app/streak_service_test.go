package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"heartscore/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordActivityConsecutiveDays(t *testing.T) {
	s := newServices(t, nil)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := range 8 {
		st, err := s.streaks.RecordActivity(ctx, 1, domain.StreakDailyCheckin, start.AddDate(0, 0, i))
		require.NoError(t, err)
		assert.Equal(t, i+1, st.Count, "day %d", i+1)
	}
}

func TestRecordActivitySameDayIsUnchanged(t *testing.T) {
	s := newServices(t, nil)
	ctx := context.Background()
	morning := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

	first, err := s.streaks.RecordActivity(ctx, 1, domain.StreakDailyCheckin, morning)
	require.NoError(t, err)
	second, err := s.streaks.RecordActivity(ctx, 1, domain.StreakDailyCheckin, morning.Add(12*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, first.Count)
	assert.Equal(t, 1, second.Count)
	assert.Equal(t, first.LastLoggedAt, second.LastLoggedAt)
}

func TestRecordActivityGapResets(t *testing.T) {
	s := newServices(t, nil)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := range 4 {
		_, err := s.streaks.RecordActivity(ctx, 1, domain.StreakDailyCheckin, start.AddDate(0, 0, i))
		require.NoError(t, err)
	}
	// Day 5 skipped.
	st, err := s.streaks.RecordActivity(ctx, 1, domain.StreakDailyCheckin, start.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Equal(t, 1, st.Count)
	assert.Equal(t, "2026-03-06", st.LastLoggedDay)
}

func TestRecordActivityUsesLocalDay(t *testing.T) {
	s := newServices(t, nil)
	ctx := context.Background()
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skip("tzdata not available")
	}
	svc := newStreakServiceIn(s, tokyo)

	// 23:30 UTC on Mar 1 is already Mar 2 in Tokyo.
	st, err := svc.RecordActivity(ctx, 1, domain.StreakDailyCheckin, time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", st.LastLoggedDay)
}

func TestRecordActivityConcurrentSameDay(t *testing.T) {
	s := newServices(t, nil)
	ctx := context.Background()
	day1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	_, err := s.streaks.RecordActivity(ctx, 1, domain.StreakDailyCheckin, day1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.streaks.RecordActivity(ctx, 1, domain.StreakDailyCheckin, day1.AddDate(0, 0, 1))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	st, err := s.streaks.Get(ctx, 1, domain.StreakDailyCheckin)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Count)
}

func TestRecordActivityRejectsBadType(t *testing.T) {
	s := newServices(t, nil)

	for _, typ := range []string{"", "Daily", "has space", "x;drop"} {
		_, err := s.streaks.RecordActivity(context.Background(), 1, typ, now)
		assert.True(t, domain.IsValidation(err), "type %q", typ)
	}
}

func TestStreakGetAndList(t *testing.T) {
	s := newServices(t, nil)
	ctx := context.Background()

	_, err := s.streaks.Get(ctx, 1, domain.StreakDailyCheckin)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := s.streaks.List(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = s.streaks.RecordActivity(ctx, 1, "walk", now)
	require.NoError(t, err)
	_, err = s.streaks.RecordActivity(ctx, 1, domain.StreakDailyCheckin, now)
	require.NoError(t, err)

	list, err = s.streaks.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.StreakDailyCheckin, list[0].StreakType)
	assert.Equal(t, "walk", list[1].StreakType)
}
