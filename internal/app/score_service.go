package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"heartscore/internal/clock"
	"heartscore/internal/domain"
	"heartscore/internal/scoring"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ScoreService computes and stores the daily heart score.
type ScoreService struct {
	readings domain.ReadingStore
	scores   domain.HeartScoreRepository
	source   domain.HealthDataSource
	clock    clock.Clock
	loc      *time.Location
	logger   *slog.Logger
}

// NewScoreService creates a ScoreService. source may be nil when no
// wearable or environment connector is configured.
func NewScoreService(readings domain.ReadingStore, scores domain.HeartScoreRepository, source domain.HealthDataSource, c clock.Clock, loc *time.Location, logger *slog.Logger) *ScoreService {
	if loc == nil {
		loc = time.Local
	}
	return &ScoreService{readings: readings, scores: scores, source: source, clock: c, loc: loc, logger: logger}
}

// Today returns the current local day.
func (s *ScoreService) Today() string {
	return domain.LocalDay(s.clock.Now(), s.loc)
}

// dayInputs is everything known about one user on one day.
type dayInputs struct {
	bp       *domain.BPReading
	glucose  *domain.GlucoseReading
	behavior []domain.BehaviorLog
	signals  *domain.DailySignals
}

func (s *ScoreService) gather(ctx context.Context, userID int64, day string) (dayInputs, error) {
	var in dayInputs
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		in.bp, err = s.readings.LatestBPForDay(gctx, userID, day)
		return err
	})
	g.Go(func() (err error) {
		in.glucose, err = s.readings.LatestGlucoseForDay(gctx, userID, day)
		return err
	})
	g.Go(func() (err error) {
		in.behavior, err = s.readings.ListBehaviorForDay(gctx, userID, day)
		return err
	})
	if s.source != nil {
		g.Go(func() error {
			sig, err := s.source.DailySignals(gctx, userID, day)
			if err != nil {
				// Connector data is optional; score on what is stored.
				s.logger.Warn("health data source failed", "user_id", userID, "date", day, "error", err)
				return nil
			}
			in.signals = sig
			return nil
		})
	}
	return in, g.Wait()
}

// breakdown normalizes the inputs for one day into category sub-scores.
// Categories without data are left out.
func breakdown(userID int64, day string, in dayInputs) (map[domain.Category]int, error) {
	sub := make(map[domain.Category]int, len(domain.Categories))

	if in.bp != nil {
		v, err := scoring.BloodPressure(in.bp.Systolic, in.bp.Diastolic)
		if err != nil {
			return nil, err
		}
		sub[domain.CategoryBP] = v
	}
	if in.glucose != nil {
		v, err := scoring.Glucose(in.glucose.GlucoseMgDl, in.glucose.MeasurementType)
		if err != nil {
			return nil, err
		}
		sub[domain.CategoryGlucose] = v
	}
	if v, ok := scoring.RitualScore(in.behavior, userID, day); ok {
		sub[domain.CategoryRituals] = v
	}

	// The latest log carrying a signal wins; the connector fills gaps.
	var (
		mood   *domain.Mood
		stress *domain.StressLevel
		sleep  *float64
		steps  *int
	)
	for _, l := range in.behavior {
		if l.Mood != nil {
			mood = l.Mood
		}
		if l.StressLevel != nil {
			stress = l.StressLevel
		}
		if l.SleepHours != nil {
			sleep = l.SleepHours
		}
		if l.Steps != nil {
			steps = l.Steps
		}
	}
	var aqi *int
	if in.signals != nil {
		if sleep == nil {
			sleep = in.signals.SleepHours
		}
		if steps == nil {
			steps = in.signals.Steps
		}
		aqi = in.signals.AQI
	}

	var moodScore, stressScore, sleepScore, stepsScore *int
	if mood != nil {
		v, err := scoring.MoodScore(*mood)
		if err != nil {
			return nil, err
		}
		moodScore = &v
	}
	if stress != nil {
		v, err := scoring.StressScore(*stress)
		if err != nil {
			return nil, err
		}
		stressScore = &v
	}
	if v, ok := scoring.Mean(moodScore, stressScore); ok {
		sub[domain.CategoryWellness] = v
	}

	if sleep != nil {
		v, err := scoring.Sleep(*sleep)
		if err != nil {
			return nil, err
		}
		sleepScore = &v
	}
	if steps != nil {
		v, err := scoring.Steps(*steps)
		if err != nil {
			return nil, err
		}
		stepsScore = &v
	}
	if v, ok := scoring.Mean(sleepScore, stepsScore); ok {
		sub[domain.CategoryCognitive] = v
	}

	if aqi != nil {
		v, err := scoring.AQI(*aqi)
		if err != nil {
			return nil, err
		}
		sub[domain.CategoryEnvironment] = v
	}
	return sub, nil
}

// ComputeDailyScore scores userID on day and upserts the record. Calling it
// again with no new inputs stores and returns an identical record. When no
// category has data it returns domain.ErrInsufficientData and writes nothing.
func (s *ScoreService) ComputeDailyScore(ctx context.Context, userID int64, day string) (*domain.HeartScoreRecord, error) {
	if _, err := domain.ParseDay(day); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "ComputeDailyScore", trace.WithAttributes(
		attribute.Int64("heartscore.user_id", userID),
		attribute.String("heartscore.date", day),
	))
	defer span.End()

	in, err := s.gather(ctx, userID, day)
	if err != nil {
		s.logger.Error("gather score inputs", "user_id", userID, "date", day, "error", err)
		return nil, err
	}

	sub, err := breakdown(userID, day, in)
	if err != nil {
		return nil, fmt.Errorf("normalize stored readings: %w", err)
	}

	score, err := scoring.Combine(sub)
	if errors.Is(err, domain.ErrInsufficientData) {
		s.logger.Info("no score inputs", "user_id", userID, "date", day)
		count(ctx, "heartscore.score.insufficient_data")
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	rec := domain.HeartScoreRecord{UserID: userID, ScoreDate: day, HeartScore: score, Breakdown: sub}
	if err := s.scores.UpsertHeartScore(ctx, rec, s.clock.Now()); err != nil {
		s.logger.Error("upsert heart score", "user_id", userID, "date", day, "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("heartscore.score", score))
	count(ctx, "heartscore.score.computed")
	return &rec, nil
}

// GetScore returns the stored score for a day, or domain.ErrNotFound.
func (s *ScoreService) GetScore(ctx context.Context, userID int64, day string) (*domain.HeartScoreRecord, error) {
	if _, err := domain.ParseDay(day); err != nil {
		return nil, err
	}
	rec, err := s.scores.GetHeartScore(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

// IsRitualComplete reports whether the user logged the ritual on day.
func (s *ScoreService) IsRitualComplete(ctx context.Context, userID int64, day string, rt domain.RitualType) (bool, error) {
	if _, err := domain.ParseDay(day); err != nil {
		return false, err
	}
	if !rt.Valid() {
		return false, &domain.ValidationError{Field: "ritualType", Value: rt, Reason: "must be morning or evening"}
	}
	logs, err := s.readings.ListBehaviorForDay(ctx, userID, day)
	if err != nil {
		return false, err
	}
	return scoring.RitualComplete(logs, userID, day, rt), nil
}
