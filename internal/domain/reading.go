package domain

import (
	"context"
	"time"
)

// BPReading is a single blood pressure measurement in mmHg.
type BPReading struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	Day        string    `json:"day"`
	Systolic   int       `json:"systolic"`
	Diastolic  int       `json:"diastolic"`
	MeasuredAt time.Time `json:"measuredAt"`
	CreatedAt  time.Time `json:"createdAt"`
}

// MeasurementType tells how a glucose reading relates to the last meal.
type MeasurementType string

const (
	MeasurementFasting  MeasurementType = "fasting"
	MeasurementPostMeal MeasurementType = "post_meal"
	MeasurementRandom   MeasurementType = "random"
)

// Valid reports whether m is a known measurement type.
func (m MeasurementType) Valid() bool {
	switch m {
	case MeasurementFasting, MeasurementPostMeal, MeasurementRandom:
		return true
	}
	return false
}

// GlucoseReading is a blood glucose measurement in mg/dL.
type GlucoseReading struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"userId"`
	Day             string          `json:"day"`
	GlucoseMgDl     int             `json:"glucoseMgDl"`
	MeasurementType MeasurementType `json:"measurementType"`
	MeasuredAt      time.Time       `json:"measuredAt"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// RitualType identifies the daily ritual a behavior log belongs to.
type RitualType string

const (
	RitualMorning RitualType = "morning"
	RitualEvening RitualType = "evening"
)

func (r RitualType) Valid() bool {
	return r == RitualMorning || r == RitualEvening
}

// Mood is a self-reported mood level.
type Mood string

const (
	MoodGreat Mood = "great"
	MoodGood  Mood = "good"
	MoodOkay  Mood = "okay"
	MoodLow   Mood = "low"
	MoodBad   Mood = "bad"
)

// StressLevel is a self-reported stress level.
type StressLevel string

const (
	StressLow      StressLevel = "low"
	StressModerate StressLevel = "moderate"
	StressHigh     StressLevel = "high"
	StressSevere   StressLevel = "severe"
)

// BehaviorLog is one ritual check-in. Every signal is optional; the mere
// existence of the log completes its ritual for LogDate.
type BehaviorLog struct {
	ID          int64        `json:"id"`
	UserID      int64        `json:"userId"`
	LogDate     string       `json:"logDate"`
	RitualType  RitualType   `json:"ritualType"`
	SleepHours  *float64     `json:"sleepHours,omitempty"`
	StressLevel *StressLevel `json:"stressLevel,omitempty"`
	Mood        *Mood        `json:"mood,omitempty"`
	Steps       *int         `json:"steps,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// BPRepository defines the port for blood pressure persistence.
type BPRepository interface {
	AddBPReading(ctx context.Context, r BPReading) (int64, error)
	// LatestBPForDay returns (nil, nil) when the user has no reading that day.
	LatestBPForDay(ctx context.Context, userID int64, day string) (*BPReading, error)
	ListBPBetween(ctx context.Context, userID int64, fromDay, toDay string) ([]BPReading, error)
}

// GlucoseRepository defines the port for glucose persistence.
type GlucoseRepository interface {
	AddGlucoseReading(ctx context.Context, r GlucoseReading) (int64, error)
	LatestGlucoseForDay(ctx context.Context, userID int64, day string) (*GlucoseReading, error)
	ListGlucoseBetween(ctx context.Context, userID int64, fromDay, toDay string) ([]GlucoseReading, error)
}

// BehaviorRepository defines the port for behavior log persistence.
type BehaviorRepository interface {
	AddBehaviorLog(ctx context.Context, l BehaviorLog) (int64, error)
	// ListBehaviorForDay returns the day's logs oldest first.
	ListBehaviorForDay(ctx context.Context, userID int64, day string) ([]BehaviorLog, error)
}

// ReadingStore groups the raw input repositories.
type ReadingStore interface {
	BPRepository
	GlucoseRepository
	BehaviorRepository
}
