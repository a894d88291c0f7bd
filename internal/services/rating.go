package services

import "math"

// AverageRating returns the mean of the non-nil ratings rounded to one decimal
// place, half away from zero. It returns nil when no rating is present, which
// callers must keep distinct from a zero rating.
func AverageRating(ratings []*int) *float64 {
	var summary RatingSummary
	for _, r := range ratings {
		if r == nil {
			continue
		}
		summary.Sum += int64(*r)
		summary.Count++
	}
	return summary.Average()
}

// RatingSummary is the SUM/COUNT pair of rated comments for one recipe, as
// produced by the bulk aggregate query.
type RatingSummary struct {
	Sum   int64
	Count int64
}

// Average applies the same rounding rule as AverageRating
func (s RatingSummary) Average() *float64 {
	if s.Count == 0 {
		return nil
	}
	avg := roundRating(float64(s.Sum) / float64(s.Count))
	return &avg
}

func roundRating(v float64) float64 {
	return math.Round(v*10) / 10
}
