package domain

import (
	"context"
	"time"
)

// StreakDailyCheckin is the streak advanced by every logged reading.
const StreakDailyCheckin = "daily_checkin"

// Streak counts consecutive local days with activity.
type Streak struct {
	UserID        int64     `json:"userId"`
	StreakType    string    `json:"streakType"`
	Count         int       `json:"count"`
	LastLoggedDay string    `json:"lastLoggedDay"`
	LastLoggedAt  time.Time `json:"lastLoggedAt"`
}

// Advance applies one activity on day to the current streak state (nil when
// the user never logged). The second result is false when the activity fell
// on LastLoggedDay and nothing changed.
//
// A LastLoggedDay after day is treated as a gap, so the count restarts.
func (s *Streak) Advance(userID int64, streakType, day string, at time.Time) (Streak, bool) {
	if s == nil {
		return Streak{UserID: userID, StreakType: streakType, Count: 1, LastLoggedDay: day, LastLoggedAt: at}, true
	}
	if s.LastLoggedDay == day {
		return *s, false
	}
	next := Streak{UserID: userID, StreakType: streakType, Count: 1, LastLoggedDay: day, LastLoggedAt: at}
	if s.LastLoggedDay == PrevDay(day) {
		next.Count = s.Count + 1
	}
	return next, true
}

// StreakRepository defines the port for streak persistence.
type StreakRepository interface {
	// AdvanceStreak applies Streak.Advance atomically for (userID, streakType)
	// and returns the stored state afterwards.
	AdvanceStreak(ctx context.Context, userID int64, streakType, day string, at time.Time) (*Streak, error)
	GetStreak(ctx context.Context, userID int64, streakType string) (*Streak, error)
	ListStreaks(ctx context.Context, userID int64) ([]Streak, error)
}
