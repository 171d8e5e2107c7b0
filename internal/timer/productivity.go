package timer

import "math"

// focusQualityForPauses approximates spec.md §4.D's implementer-defined
// focusQuality adjustment in [0.8, 1.2] based on pause count: zero pauses
// is the best case (1.2), and each pause degrades quality down to the
// 0.8 floor at four or more pauses. Decision recorded in DESIGN.md's
// Open Question section.
func focusQualityForPauses(pauseCount int) float64 {
	const (
		ceiling = 1.2
		floor   = 0.8
		step    = 0.1
	)
	q := ceiling - float64(pauseCount)*step
	if q < floor {
		return floor
	}
	return q
}

// computeProductivityScore implements spec.md §4.D's formula:
//
//	score = clamp(0, 100, round(baseCompletion * (1 - distractionPenalty) * focusQuality))
func computeProductivityScore(elapsedFocusSec, plannedDurationSec, distractionCount, pauseCount int) int {
	if plannedDurationSec <= 0 {
		return 0
	}
	baseCompletion := float64(elapsedFocusSec) / float64(plannedDurationSec)
	distractionPenalty := math.Min(0.5, float64(distractionCount)*0.05)
	focusQuality := focusQualityForPauses(pauseCount)

	raw := baseCompletion * (1 - distractionPenalty) * focusQuality * 100
	score := int(math.Round(raw))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
