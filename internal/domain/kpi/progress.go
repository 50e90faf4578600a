package kpi

import "math"

// ProgressPercent returns actual/target as a percentage rounded to two
// decimals. It is clamped at zero but deliberately not capped at 100 so
// overachievement stays visible. A non-positive target reports 100 to keep
// unmeasurable records from dragging averages down.
func ProgressPercent(actual, target float64) float64 {
	if target <= 0 {
		return 100
	}
	pct := actual / target * 100
	if pct < 0 {
		pct = 0
	}
	return math.Round(pct*100) / 100
}

// StatusForActual maps a progress update onto the lifecycle: any reported
// work moves a fresh record into in_progress.
func StatusForActual(current string, actual float64) string {
	if current == StatusNotStarted && actual > 0 {
		return StatusInProgress
	}
	return current
}
