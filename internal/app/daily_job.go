package app

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"heartscore/internal/domain"

	"golang.org/x/sync/errgroup"
)

// JobSummary counts the outcome of one DailyJob run.
type JobSummary struct {
	Day      string `json:"day"`
	Users    int    `json:"users"`
	Computed int64  `json:"computed"`
	Skipped  int64  `json:"skipped"`
	Failed   int64  `json:"failed"`
}

// DailyJob recomputes one day's score for every user. It is the entry point
// for an external scheduler.
type DailyJob struct {
	users       domain.UserRepository
	scores      *ScoreService
	concurrency int
	logger      *slog.Logger
}

// NewDailyJob creates a DailyJob that scores up to concurrency users at once.
func NewDailyJob(users domain.UserRepository, scores *ScoreService, concurrency int, logger *slog.Logger) *DailyJob {
	if concurrency < 1 {
		concurrency = 1
	}
	return &DailyJob{users: users, scores: scores, concurrency: concurrency, logger: logger}
}

// Run scores every user for day; an empty day means today. Per-user failures
// are counted and logged but do not stop the run.
func (j *DailyJob) Run(ctx context.Context, day string) (*JobSummary, error) {
	if day == "" {
		day = j.scores.Today()
	}
	if _, err := domain.ParseDay(day); err != nil {
		return nil, err
	}

	ids, err := j.users.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var computed, skipped, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			_, err := j.scores.ComputeDailyScore(gctx, id, day)
			switch {
			case err == nil:
				computed.Add(1)
			case errors.Is(err, domain.ErrInsufficientData):
				skipped.Add(1)
			default:
				failed.Add(1)
				j.logger.Error("daily score failed", "user_id", id, "date", day, "error", err)
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum := &JobSummary{
		Day:      day,
		Users:    len(ids),
		Computed: computed.Load(),
		Skipped:  skipped.Load(),
		Failed:   failed.Load(),
	}
	j.logger.Info("daily job finished",
		"date", day,
		"users", sum.Users,
		"computed", sum.Computed,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return sum, nil
}
