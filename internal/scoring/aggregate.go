package scoring

import (
	"math"

	"heartscore/internal/domain"
)

// Weights are the nominal category weights. They are renormalized over the
// categories that have data.
var Weights = map[domain.Category]float64{
	domain.CategoryBP:          0.25,
	domain.CategoryGlucose:     0.25,
	domain.CategoryRituals:     0.20,
	domain.CategoryWellness:    0.15,
	domain.CategoryEnvironment: 0.10,
	domain.CategoryCognitive:   0.05,
}

// Combine computes the weighted heart score from category sub-scores.
// It returns domain.ErrInsufficientData when sub is empty.
func Combine(sub map[domain.Category]int) (int, error) {
	var weighted, total float64
	for _, c := range domain.Categories {
		v, ok := sub[c]
		if !ok {
			continue
		}
		w := Weights[c]
		weighted += float64(v) * w
		total += w
	}
	if total == 0 {
		return 0, domain.ErrInsufficientData
	}
	score := int(math.Round(weighted / total))
	return min(max(score, 0), 100), nil
}

// Mean averages present sub-scores, rounding to the nearest integer.
// The bool is false when none are present.
func Mean(values ...*int) (int, bool) {
	sum, n := 0, 0
	for _, v := range values {
		if v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return int(math.Round(float64(sum) / float64(n))), true
}
