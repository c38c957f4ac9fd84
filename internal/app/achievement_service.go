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
	"golang.org/x/sync/errgroup"
)

const (
	controlWindowDays  = 30
	controlMinReadings = 20
)

// badgeFacts is what the badge rules are evaluated against.
type badgeFacts struct {
	checkinStreak int
	bp            []domain.BPReading
	glucose       []domain.GlucoseReading
}

type badgeRule struct {
	badge     domain.BadgeType
	title     string
	qualifies func(f badgeFacts) bool
}

// badgeRules are evaluated in order. Control badges need every reading in
// the trailing window to be in range.
var badgeRules = []badgeRule{
	{
		badge:     domain.Badge7DayStreak,
		title:     "7 day check-in streak",
		qualifies: func(f badgeFacts) bool { return f.checkinStreak >= 7 },
	},
	{
		badge:     domain.Badge30DayStreak,
		title:     "30 day check-in streak",
		qualifies: func(f badgeFacts) bool { return f.checkinStreak >= 30 },
	},
	{
		badge: domain.BadgeBPControlMonth,
		title: "a month of blood pressure control",
		qualifies: func(f badgeFacts) bool {
			if len(f.bp) < controlMinReadings {
				return false
			}
			for _, r := range f.bp {
				if r.Systolic >= 130 || r.Diastolic >= 80 {
					return false
				}
			}
			return true
		},
	},
	{
		badge: domain.BadgeSugarControlMonth,
		title: "a month of blood sugar control",
		qualifies: func(f badgeFacts) bool {
			if len(f.glucose) < controlMinReadings {
				return false
			}
			for _, r := range f.glucose {
				if !scoring.GlucoseInRange(r.GlucoseMgDl, r.MeasurementType) {
					return false
				}
			}
			return true
		},
	},
}

// AchievementService awards badges.
type AchievementService struct {
	achievements domain.AchievementRepository
	streaks      domain.StreakRepository
	readings     domain.ReadingStore
	ledger       *LedgerService
	clock        clock.Clock
	loc          *time.Location
	logger       *slog.Logger
}

// NewAchievementService creates an AchievementService. ledger may be nil,
// in which case awards are not announced.
func NewAchievementService(achievements domain.AchievementRepository, streaks domain.StreakRepository, readings domain.ReadingStore, ledger *LedgerService, c clock.Clock, loc *time.Location, logger *slog.Logger) *AchievementService {
	if loc == nil {
		loc = time.Local
	}
	return &AchievementService{
		achievements: achievements,
		streaks:      streaks,
		readings:     readings,
		ledger:       ledger,
		clock:        c,
		loc:          loc,
		logger:       logger,
	}
}

// List returns the user's badges.
func (s *AchievementService) List(ctx context.Context, userID int64) ([]domain.Achievement, error) {
	list, err := s.achievements.ListAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Achievement{}
	}
	return list, nil
}

func (s *AchievementService) loadFacts(ctx context.Context, userID int64) (badgeFacts, error) {
	var f badgeFacts
	from, to := domain.TrailingWindow(domain.LocalDay(s.clock.Now(), s.loc), controlWindowDays)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st, err := s.streaks.GetStreak(gctx, userID, domain.StreakDailyCheckin)
		if err != nil {
			return err
		}
		if st != nil {
			f.checkinStreak = st.Count
		}
		return nil
	})
	g.Go(func() (err error) {
		f.bp, err = s.readings.ListBPBetween(gctx, userID, from, to)
		return err
	})
	g.Go(func() (err error) {
		f.glucose, err = s.readings.ListGlucoseBetween(gctx, userID, from, to)
		return err
	})
	return f, g.Wait()
}

// EvaluateAndAward checks every rule the user has not yet earned and awards
// the ones that now qualify. It returns only badges awarded by this call, so
// repeated calls return an empty slice.
func (s *AchievementService) EvaluateAndAward(ctx context.Context, userID int64) ([]domain.BadgeType, error) {
	awarded := []domain.BadgeType{}

	held, err := s.achievements.ListAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}
	have := make(map[domain.BadgeType]bool, len(held))
	for _, a := range held {
		have[a.BadgeType] = true
	}
	pending := make([]badgeRule, 0, len(badgeRules))
	for _, r := range badgeRules {
		if !have[r.badge] {
			pending = append(pending, r)
		}
	}
	if len(pending) == 0 {
		return awarded, nil
	}

	facts, err := s.loadFacts(ctx, userID)
	if err != nil {
		s.logger.Error("load badge facts", "user_id", userID, "error", err)
		return nil, err
	}

	now := s.clock.Now().UTC()
	for _, r := range pending {
		if !r.qualifies(facts) {
			continue
		}
		_, err := s.achievements.InsertAchievement(ctx, domain.Achievement{UserID: userID, BadgeType: r.badge, EarnedAt: now})
		if errors.Is(err, domain.ErrConflict) {
			// Another evaluation won the race.
			continue
		}
		if err != nil {
			s.logger.Error("insert achievement", "user_id", userID, "badge", r.badge, "error", err)
			return nil, err
		}
		awarded = append(awarded, r.badge)
		s.logger.Info("badge awarded", "user_id", userID, "badge", r.badge)
		count(ctx, "heartscore.badge.awarded", attribute.String("badge", string(r.badge)))
		s.announce(ctx, userID, r)
	}
	return awarded, nil
}

func (s *AchievementService) announce(ctx context.Context, userID int64, r badgeRule) {
	if s.ledger == nil {
		return
	}
	_, err := s.ledger.Record(ctx, RecordInput{
		UserID: userID,
		Payload: domain.NudgePayload{
			Channel: "in_app",
			Message: fmt.Sprintf("You earned a badge for %s!", r.title),
			Ref:     string(r.badge),
		},
		TriggerReason: "badge " + string(r.badge) + " awarded",
		TriggerType:   domain.TriggerAchievement,
	})
	if err != nil {
		s.logger.Warn("record badge nudge", "user_id", userID, "badge", r.badge, "error", err)
	}
}
