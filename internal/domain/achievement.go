package domain

import (
	"context"
	"time"
)

// BadgeType names an achievement badge.
type BadgeType string

const (
	Badge7DayStreak        BadgeType = "7_day_streak"
	Badge30DayStreak       BadgeType = "30_day_streak"
	BadgeBPControlMonth    BadgeType = "bp_control_month"
	BadgeSugarControlMonth BadgeType = "sugar_control_month"
)

// Achievement is an awarded badge. A user holds each badge at most once.
type Achievement struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	BadgeType BadgeType `json:"badgeType"`
	EarnedAt  time.Time `json:"earnedAt"`
	Shared    bool      `json:"shared"`
}

// AchievementRepository defines the port for badge persistence.
type AchievementRepository interface {
	ListAchievements(ctx context.Context, userID int64) ([]Achievement, error)
	// InsertAchievement returns ErrConflict when the user already holds the badge.
	InsertAchievement(ctx context.Context, a Achievement) (int64, error)
}
