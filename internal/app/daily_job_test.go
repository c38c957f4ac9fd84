package app_test

import (
	"context"
	"testing"

	"heartscore/internal/app"
	"heartscore/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyJobRun(t *testing.T) {
	s := newServices(t, nil)
	ctx := context.Background()

	withBP := s.user(t, "a")
	withGlucose := s.user(t, "b")
	s.user(t, "idle")

	_, err := s.store.AddBPReading(ctx, domain.BPReading{UserID: withBP, Day: today, Systolic: 125, Diastolic: 70, MeasuredAt: now})
	require.NoError(t, err)
	_, err = s.store.AddGlucoseReading(ctx, domain.GlucoseReading{UserID: withGlucose, Day: today, GlucoseMgDl: 210, MeasurementType: domain.MeasurementRandom, MeasuredAt: now})
	require.NoError(t, err)

	job := app.NewDailyJob(s.store, s.scores, 2, discardLogger())
	sum, err := job.Run(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, &app.JobSummary{Day: today, Users: 3, Computed: 2, Skipped: 1}, sum)

	rec, err := s.store.GetHeartScore(ctx, withBP, today)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 80, rec.HeartScore)

	rec, err = s.store.GetHeartScore(ctx, withGlucose, today)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 20, rec.HeartScore)
}

func TestDailyJobRejectsBadDay(t *testing.T) {
	s := newServices(t, nil)

	_, err := app.NewDailyJob(s.store, s.scores, 0, discardLogger()).Run(context.Background(), "2026-13-01")
	assert.True(t, domain.IsValidation(err))
}
