// Package scoring turns raw health readings into 0-100 sub-scores and
// combines them into the daily heart score.
package scoring

import (
	"math"

	"heartscore/internal/domain"
)

// Physiological bounds accepted at intake.
const (
	MinSystolic  = 60
	MaxSystolic  = 300
	MinDiastolic = 30
	MaxDiastolic = 200
	MinGlucose   = 20
	MaxGlucose   = 800
	MaxSleep     = 24.0
	MaxSteps     = 100000
	MaxAQI       = 500
)

// StepsGoal is the daily step count that earns a full score.
const StepsGoal = 8000

// BPBand is the blood pressure classification.
type BPBand int

const (
	BPNormal BPBand = iota
	BPElevated
	BPStage1
	BPStage2
	BPCrisis
)

var bpBandNames = [...]string{"normal", "elevated", "stage_1", "stage_2", "crisis"}

var bpBandScores = [...]int{100, 80, 60, 30, 0}

func (b BPBand) String() string { return bpBandNames[b] }

// Score is the sub-score assigned to the band.
func (b BPBand) Score() int { return bpBandScores[b] }

// ValidateBP rejects readings outside the physiological range.
func ValidateBP(systolic, diastolic int) error {
	if systolic < MinSystolic || systolic > MaxSystolic {
		return &domain.ValidationError{Field: "systolic", Value: systolic, Reason: "must be between 60 and 300 mmHg"}
	}
	if diastolic < MinDiastolic || diastolic > MaxDiastolic {
		return &domain.ValidationError{Field: "diastolic", Value: diastolic, Reason: "must be between 30 and 200 mmHg"}
	}
	return nil
}

// ClassifyBP returns the worse of the systolic and diastolic bands.
func ClassifyBP(systolic, diastolic int) BPBand {
	var sys BPBand
	switch {
	case systolic >= 180:
		sys = BPCrisis
	case systolic >= 140:
		sys = BPStage2
	case systolic >= 130:
		sys = BPStage1
	case systolic >= 120:
		sys = BPElevated
	default:
		sys = BPNormal
	}

	var dia BPBand
	switch {
	case diastolic >= 120:
		dia = BPCrisis
	case diastolic >= 90:
		dia = BPStage2
	case diastolic >= 80:
		dia = BPStage1
	default:
		dia = BPNormal
	}

	return max(sys, dia)
}

// BloodPressure scores a reading by its band.
func BloodPressure(systolic, diastolic int) (int, error) {
	if err := ValidateBP(systolic, diastolic); err != nil {
		return 0, err
	}
	return ClassifyBP(systolic, diastolic).Score(), nil
}

// ValidateGlucose rejects out-of-range values and unknown measurement types.
func ValidateGlucose(mgdl int, mt domain.MeasurementType) error {
	if mgdl < MinGlucose || mgdl > MaxGlucose {
		return &domain.ValidationError{Field: "glucoseMgDl", Value: mgdl, Reason: "must be between 20 and 800 mg/dL"}
	}
	if !mt.Valid() {
		return &domain.ValidationError{Field: "measurementType", Value: mt, Reason: "must be fasting, post_meal or random"}
	}
	return nil
}

// Glucose scores a reading against fasting or post-meal thresholds.
func Glucose(mgdl int, mt domain.MeasurementType) (int, error) {
	if err := ValidateGlucose(mgdl, mt); err != nil {
		return 0, err
	}
	normal, prediabetic := 140, 200
	if mt == domain.MeasurementFasting {
		normal, prediabetic = 100, 126
	}
	switch {
	case mgdl < normal:
		return 100, nil
	case mgdl < prediabetic:
		return 60, nil
	default:
		return 20, nil
	}
}

// GlucoseInRange reports whether a reading counts as controlled.
func GlucoseInRange(mgdl int, mt domain.MeasurementType) bool {
	if mt == domain.MeasurementFasting {
		return mgdl < 100
	}
	return mgdl < 140
}

// ValidateSleep rejects negative durations and anything over a day.
func ValidateSleep(hours float64) error {
	if math.IsNaN(hours) || hours < 0 || hours > MaxSleep {
		return &domain.ValidationError{Field: "sleepHours", Value: hours, Reason: "must be between 0 and 24"}
	}
	return nil
}

// Sleep peaks at 7-8 hours and falls off linearly in both directions.
func Sleep(hours float64) (int, error) {
	if err := ValidateSleep(hours); err != nil {
		return 0, err
	}
	var v float64
	switch {
	case hours >= 7 && hours <= 8:
		v = 100
	case hours >= 4 && hours < 7:
		v = 40 + (hours-4)/3*60
	case hours < 4:
		v = hours / 4 * 40
	case hours <= 10:
		v = 100 - (hours-8)/2*60
	case hours < 12:
		v = 40 - (hours-10)/2*40
	default:
		v = 0
	}
	return int(math.Round(v)), nil
}

// ValidateSteps rejects negative or implausible step counts.
func ValidateSteps(steps int) error {
	if steps < 0 || steps > MaxSteps {
		return &domain.ValidationError{Field: "steps", Value: steps, Reason: "must be between 0 and 100000"}
	}
	return nil
}

// Steps scores linearly up to StepsGoal.
func Steps(steps int) (int, error) {
	if err := ValidateSteps(steps); err != nil {
		return 0, err
	}
	ratio := math.Min(float64(steps)/StepsGoal, 1)
	return int(math.Round(ratio * 100)), nil
}

var aqiLevels = []struct {
	max   int
	label string
	score int
}{
	{50, "good", 100},
	{100, "moderate", 80},
	{150, "unhealthy_sensitive", 60},
	{200, "unhealthy", 40},
	{300, "very_unhealthy", 20},
	{MaxAQI, "hazardous", 0},
}

// ValidateAQI rejects values outside the 0-500 index.
func ValidateAQI(aqi int) error {
	if aqi < 0 || aqi > MaxAQI {
		return &domain.ValidationError{Field: "aqi", Value: aqi, Reason: "must be between 0 and 500"}
	}
	return nil
}

// AQILevel returns the named air quality level for aqi.
func AQILevel(aqi int) string {
	for _, l := range aqiLevels {
		if aqi <= l.max {
			return l.label
		}
	}
	return "hazardous"
}

// AQI scores air quality by level.
func AQI(aqi int) (int, error) {
	if err := ValidateAQI(aqi); err != nil {
		return 0, err
	}
	for _, l := range aqiLevels {
		if aqi <= l.max {
			return l.score, nil
		}
	}
	return 0, nil
}

var moodScores = map[domain.Mood]int{
	domain.MoodGreat: 100,
	domain.MoodGood:  80,
	domain.MoodOkay:  60,
	domain.MoodLow:   40,
	domain.MoodBad:   20,
}

// MoodScore maps a mood to its sub-score.
func MoodScore(m domain.Mood) (int, error) {
	v, ok := moodScores[m]
	if !ok {
		return 0, &domain.ValidationError{Field: "mood", Value: m, Reason: "must be great, good, okay, low or bad"}
	}
	return v, nil
}

var stressScores = map[domain.StressLevel]int{
	domain.StressLow:      100,
	domain.StressModerate: 70,
	domain.StressHigh:     40,
	domain.StressSevere:   10,
}

// StressScore maps a stress level to its sub-score. Less stress scores higher.
func StressScore(s domain.StressLevel) (int, error) {
	v, ok := stressScores[s]
	if !ok {
		return 0, &domain.ValidationError{Field: "stressLevel", Value: s, Reason: "must be low, moderate, high or severe"}
	}
	return v, nil
}

// ValidateBehavior checks the optional signals of a behavior log.
func ValidateBehavior(l domain.BehaviorLog) error {
	if !l.RitualType.Valid() {
		return &domain.ValidationError{Field: "ritualType", Value: l.RitualType, Reason: "must be morning or evening"}
	}
	if l.SleepHours != nil {
		if err := ValidateSleep(*l.SleepHours); err != nil {
			return err
		}
	}
	if l.Steps != nil {
		if err := ValidateSteps(*l.Steps); err != nil {
			return err
		}
	}
	if l.Mood != nil {
		if _, err := MoodScore(*l.Mood); err != nil {
			return err
		}
	}
	if l.StressLevel != nil {
		if _, err := StressScore(*l.StressLevel); err != nil {
			return err
		}
	}
	return nil
}

// Metric names a numeric input accepted by Normalize.
type Metric string

const (
	MetricBP      Metric = "bp"
	MetricGlucose Metric = "glucose"
	MetricSleep   Metric = "sleep"
	MetricSteps   Metric = "steps"
	MetricAQI     Metric = "aqi"
)

// Context carries what a metric needs besides its raw value.
type Context struct {
	// Diastolic accompanies a systolic raw value for MetricBP.
	Diastolic       int
	MeasurementType domain.MeasurementType
}

// Normalize maps a raw numeric reading to a 0-100 sub-score.
func Normalize(m Metric, raw float64, c Context) (int, error) {
	switch m {
	case MetricBP:
		return BloodPressure(int(raw), c.Diastolic)
	case MetricGlucose:
		return Glucose(int(raw), c.MeasurementType)
	case MetricSleep:
		return Sleep(raw)
	case MetricSteps:
		return Steps(int(raw))
	case MetricAQI:
		return AQI(int(raw))
	}
	return 0, &domain.ValidationError{Field: "metric", Value: m, Reason: "unknown metric"}
}
