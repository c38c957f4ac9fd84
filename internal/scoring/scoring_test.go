package scoring_test

import (
	"errors"
	"testing"

	"heartscore/internal/domain"
	"heartscore/internal/scoring"
)

func TestBloodPressureBands(t *testing.T) {
	tests := []struct {
		name     string
		sys, dia int
		band     scoring.BPBand
		want     int
	}{
		{"normal", 115, 75, scoring.BPNormal, 100},
		{"elevated", 125, 78, scoring.BPElevated, 80},
		{"stage 1 systolic", 135, 70, scoring.BPStage1, 60},
		{"stage 1 diastolic wins over elevated", 122, 85, scoring.BPStage1, 60},
		{"stage 2 systolic", 150, 70, scoring.BPStage2, 30},
		{"stage 2 diastolic", 118, 95, scoring.BPStage2, 30},
		{"crisis systolic", 185, 70, scoring.BPCrisis, 0},
		{"crisis diastolic", 130, 125, scoring.BPCrisis, 0},
		{"boundary 120/80", 120, 80, scoring.BPStage1, 60},
		{"boundary 119/79", 119, 79, scoring.BPNormal, 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if band := scoring.ClassifyBP(tc.sys, tc.dia); band != tc.band {
				t.Errorf("ClassifyBP(%d, %d) = %s; want %s", tc.sys, tc.dia, band, tc.band)
			}
			got, err := scoring.BloodPressure(tc.sys, tc.dia)
			if err != nil {
				t.Fatalf("BloodPressure(%d, %d): %v", tc.sys, tc.dia, err)
			}
			if got != tc.want {
				t.Errorf("BloodPressure(%d, %d) = %d; want %d", tc.sys, tc.dia, got, tc.want)
			}
		})
	}
}

func TestBloodPressureCrisisAlwaysZero(t *testing.T) {
	for sys := scoring.MinSystolic; sys <= scoring.MaxSystolic; sys++ {
		for dia := scoring.MinDiastolic; dia <= scoring.MaxDiastolic; dia++ {
			if sys < 180 && dia < 120 {
				continue
			}
			got, err := scoring.Normalize(scoring.MetricBP, float64(sys), scoring.Context{Diastolic: dia})
			if err != nil || got != 0 {
				t.Fatalf("Normalize(bp %d/%d) = %d, %v; want 0", sys, dia, got, err)
			}
		}
	}
}

func TestBloodPressureOutOfRange(t *testing.T) {
	for _, pair := range [][2]int{{400, 80}, {59, 40}, {120, 20}, {120, 201}} {
		_, err := scoring.BloodPressure(pair[0], pair[1])
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("BloodPressure(%d, %d) err = %v; want ValidationError", pair[0], pair[1], err)
		}
	}
}

func TestGlucose(t *testing.T) {
	tests := []struct {
		mgdl int
		mt   domain.MeasurementType
		want int
	}{
		{99, domain.MeasurementFasting, 100},
		{100, domain.MeasurementFasting, 60},
		{125, domain.MeasurementFasting, 60},
		{126, domain.MeasurementFasting, 20},
		{139, domain.MeasurementPostMeal, 100},
		{140, domain.MeasurementPostMeal, 60},
		{199, domain.MeasurementRandom, 60},
		{200, domain.MeasurementRandom, 20},
	}
	for _, tc := range tests {
		got, err := scoring.Glucose(tc.mgdl, tc.mt)
		if err != nil {
			t.Fatalf("Glucose(%d, %s): %v", tc.mgdl, tc.mt, err)
		}
		if got != tc.want {
			t.Errorf("Glucose(%d, %s) = %d; want %d", tc.mgdl, tc.mt, got, tc.want)
		}
	}

	if _, err := scoring.Glucose(90, "bedtime"); !domain.IsValidation(err) {
		t.Errorf("unknown measurement type err = %v", err)
	}
	if _, err := scoring.Glucose(900, domain.MeasurementFasting); !domain.IsValidation(err) {
		t.Errorf("out of range err = %v", err)
	}
}

func TestFastingGlucoseNormalIsPure(t *testing.T) {
	ctx := scoring.Context{MeasurementType: domain.MeasurementFasting}
	for mgdl := scoring.MinGlucose; mgdl < 100; mgdl++ {
		a, errA := scoring.Normalize(scoring.MetricGlucose, float64(mgdl), ctx)
		b, errB := scoring.Normalize(scoring.MetricGlucose, float64(mgdl), ctx)
		if errA != nil || errB != nil || a != 100 || b != 100 {
			t.Fatalf("Normalize(fasting %d) = %d/%d; want 100 twice", mgdl, a, b)
		}
	}
}

func TestSleep(t *testing.T) {
	tests := []struct {
		hours float64
		want  int
	}{
		{0, 0},
		{2, 20},
		{4, 40},
		{5.5, 70},
		{7, 100},
		{7.5, 100},
		{8, 100},
		{9, 70},
		{10, 40},
		{11, 20},
		{12, 0},
		{14, 0},
	}
	for _, tc := range tests {
		got, err := scoring.Sleep(tc.hours)
		if err != nil {
			t.Fatalf("Sleep(%v): %v", tc.hours, err)
		}
		if got != tc.want {
			t.Errorf("Sleep(%v) = %d; want %d", tc.hours, got, tc.want)
		}
	}
	if _, err := scoring.Sleep(-1); !domain.IsValidation(err) {
		t.Errorf("Sleep(-1) err = %v", err)
	}
	if _, err := scoring.Sleep(25); !domain.IsValidation(err) {
		t.Errorf("Sleep(25) err = %v", err)
	}
}

func TestStepsAndAQI(t *testing.T) {
	steps := map[int]int{0: 0, 4000: 50, 7999: 100, 8000: 100, 20000: 100, 100: 1}
	for in, want := range steps {
		if got, err := scoring.Steps(in); err != nil || got != want {
			t.Errorf("Steps(%d) = %d, %v; want %d", in, got, err, want)
		}
	}
	if _, err := scoring.Steps(-5); !domain.IsValidation(err) {
		t.Errorf("Steps(-5) err = %v", err)
	}

	aqi := map[int]int{0: 100, 50: 100, 51: 80, 100: 80, 150: 60, 200: 40, 300: 20, 301: 0, 500: 0}
	for in, want := range aqi {
		if got, err := scoring.AQI(in); err != nil || got != want {
			t.Errorf("AQI(%d) = %d, %v; want %d", in, got, err, want)
		}
	}
	if got := scoring.AQILevel(42); got != "good" {
		t.Errorf("AQILevel(42) = %q", got)
	}
	if _, err := scoring.AQI(501); !domain.IsValidation(err) {
		t.Errorf("AQI(501) err = %v", err)
	}
}

func TestMoodAndStress(t *testing.T) {
	if v, _ := scoring.MoodScore(domain.MoodGreat); v != 100 {
		t.Errorf("MoodScore(great) = %d", v)
	}
	if v, _ := scoring.StressScore(domain.StressSevere); v != 10 {
		t.Errorf("StressScore(severe) = %d", v)
	}
	if _, err := scoring.MoodScore("ecstatic"); !domain.IsValidation(err) {
		t.Errorf("unknown mood err = %v", err)
	}
}

func TestRitualScore(t *testing.T) {
	logs := []domain.BehaviorLog{
		{UserID: 1, LogDate: "2026-04-01", RitualType: domain.RitualMorning},
		{UserID: 1, LogDate: "2026-04-02", RitualType: domain.RitualMorning},
		{UserID: 1, LogDate: "2026-04-02", RitualType: domain.RitualEvening},
		{UserID: 2, LogDate: "2026-04-03", RitualType: domain.RitualEvening},
	}

	if !scoring.RitualComplete(logs, 1, "2026-04-01", domain.RitualMorning) {
		t.Error("morning ritual on 04-01 should be complete")
	}
	if scoring.RitualComplete(logs, 1, "2026-04-01", domain.RitualEvening) {
		t.Error("evening ritual on 04-01 should not be complete")
	}
	if scoring.RitualComplete(logs, 1, "2026-04-03", domain.RitualEvening) {
		t.Error("another user's log must not count")
	}

	if v, ok := scoring.RitualScore(logs, 1, "2026-04-01"); !ok || v != 50 {
		t.Errorf("RitualScore(04-01) = %d, %v; want 50", v, ok)
	}
	if v, ok := scoring.RitualScore(logs, 1, "2026-04-02"); !ok || v != 100 {
		t.Errorf("RitualScore(04-02) = %d, %v; want 100", v, ok)
	}
	if _, ok := scoring.RitualScore(logs, 1, "2026-04-05"); ok {
		t.Error("RitualScore with no logs should be absent")
	}
}

func TestCombine(t *testing.T) {
	if _, err := scoring.Combine(nil); !errors.Is(err, domain.ErrInsufficientData) {
		t.Errorf("Combine(nil) err = %v; want ErrInsufficientData", err)
	}

	// A single category is not diluted by missing ones.
	got, err := scoring.Combine(map[domain.Category]int{domain.CategoryGlucose: 100})
	if err != nil || got != 100 {
		t.Errorf("glucose only = %d, %v; want 100", got, err)
	}

	// (60*.25 + 50*.20) / .45 = 55.56
	got, _ = scoring.Combine(map[domain.Category]int{
		domain.CategoryGlucose: 60,
		domain.CategoryRituals: 50,
	})
	if got != 56 {
		t.Errorf("glucose+rituals = %d; want 56", got)
	}

	all := map[domain.Category]int{}
	for _, c := range domain.Categories {
		all[c] = 100
	}
	if got, _ := scoring.Combine(all); got != 100 {
		t.Errorf("all 100 = %d", got)
	}
}

func TestMean(t *testing.T) {
	a, b := 80, 71
	if v, ok := scoring.Mean(&a, &b); !ok || v != 76 {
		t.Errorf("Mean(80, 71) = %d, %v; want 76", v, ok)
	}
	if _, ok := scoring.Mean(nil, nil); ok {
		t.Error("Mean of nothing should be absent")
	}
}
