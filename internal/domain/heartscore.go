package domain

import (
	"context"
	"time"
)

// Category is one weighted component of the heart score.
type Category string

const (
	CategoryBP          Category = "bp"
	CategoryGlucose     Category = "glucose"
	CategoryRituals     Category = "rituals"
	CategoryWellness    Category = "wellness"
	CategoryEnvironment Category = "environment"
	CategoryCognitive   Category = "cognitive"
)

// Categories lists every category in weighting order.
var Categories = []Category{
	CategoryBP,
	CategoryGlucose,
	CategoryRituals,
	CategoryWellness,
	CategoryEnvironment,
	CategoryCognitive,
}

// HeartScoreRecord is the persisted daily score. At most one exists per
// (UserID, ScoreDate); Breakdown holds only the categories that had data.
type HeartScoreRecord struct {
	UserID     int64            `json:"userId"`
	ScoreDate  string           `json:"scoreDate"`
	HeartScore int              `json:"heartScore"`
	Breakdown  map[Category]int `json:"breakdown"`
}

// HeartScoreRepository defines the port for score persistence.
type HeartScoreRepository interface {
	// UpsertHeartScore replaces any record for the same (user, date).
	UpsertHeartScore(ctx context.Context, rec HeartScoreRecord, at time.Time) error
	GetHeartScore(ctx context.Context, userID int64, day string) (*HeartScoreRecord, error)
	ListHeartScores(ctx context.Context, userID int64, fromDay, toDay string) ([]HeartScoreRecord, error)
}

// DailySignals are the connector-provided inputs for one user and day.
// Nil fields mean the source had no value.
type DailySignals struct {
	Steps      *int     `json:"steps,omitempty"`
	SleepHours *float64 `json:"sleepHours,omitempty"`
	AQI        *int     `json:"aqi,omitempty"`
}

// HealthDataSource supplies wearable and environment data. A nil result
// with a nil error means nothing is known for that day.
type HealthDataSource interface {
	DailySignals(ctx context.Context, userID int64, day string) (*DailySignals, error)
}
