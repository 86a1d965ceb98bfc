package aggregate

import (
	"math"
	"sort"
)

// Stats summarizes a batch of 0-100 scores.
type Stats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize computes batch statistics. An empty batch reads as neutral.
func Summarize(scores []float64) Stats {
	if len(scores) == 0 {
		return Stats{Mean: 50, Median: 50}
	}

	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, s := range sorted {
		sum += s
	}
	mean := sum / float64(len(sorted))

	variance := 0.0
	if len(sorted) > 1 {
		for _, s := range sorted {
			variance += (s - mean) * (s - mean)
		}
		variance /= float64(len(sorted) - 1)
	}

	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return Stats{
		Mean:   mean,
		Median: median,
		StdDev: math.Sqrt(variance),
		Min:    sorted[0],
		Max:    sorted[n-1],
	}
}

// Outliers flags score indices outside the 1.5*IQR fences. Quartiles
// are taken at indices n/4 and 3n/4 of the sorted batch; fewer than
// four scores yield no outliers.
func Outliers(scores []float64) []int {
	if len(scores) < 4 {
		return nil
	}

	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)

	q1 := sorted[len(scores)/4]
	q3 := sorted[3*len(scores)/4]
	iqr := q3 - q1

	low := q1 - 1.5*iqr
	high := q3 + 1.5*iqr

	var outliers []int
	for i, s := range scores {
		if s < low || s > high {
			outliers = append(outliers, i)
		}
	}
	return outliers
}

// Trend compares the mean of the first half of a score sequence to the
// second half (odd-length middle element goes to the second half). A
// 10% relative move either way classifies as bullish or bearish.
func Trend(scores []float64) string {
	if len(scores) < 2 {
		return "neutral"
	}

	half := len(scores) / 2
	firstSum, secondSum := 0.0, 0.0
	for _, s := range scores[:half] {
		firstSum += s
	}
	for _, s := range scores[half:] {
		secondSum += s
	}
	firstAvg := firstSum / float64(half)
	secondAvg := secondSum / float64(len(scores)-half)

	switch {
	case secondAvg > firstAvg*1.1:
		return "bullish"
	case secondAvg < firstAvg*0.9:
		return "bearish"
	default:
		return "neutral"
	}
}
