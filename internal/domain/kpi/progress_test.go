package kpi

import "testing"

func TestProgressPercent(t *testing.T) {
	cases := []struct {
		name   string
		actual float64
		target float64
		want   float64
	}{
		{"zero actual", 0, 10, 0},
		{"half", 5, 10, 50},
		{"exact", 10, 10, 100},
		{"overachievement not capped", 15, 10, 150},
		{"rounds to two decimals", 1, 3, 33.33},
		{"rounds up", 2, 3, 66.67},
		{"negative actual clamps to zero", -4, 10, 0},
		{"zero target reports full", 7, 0, 100},
		{"negative target reports full", 7, -1, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ProgressPercent(tc.actual, tc.target); got != tc.want {
				t.Fatalf("ProgressPercent(%v, %v) = %v, want %v", tc.actual, tc.target, got, tc.want)
			}
		})
	}
}

func TestStatusForActual(t *testing.T) {
	if got := StatusForActual(StatusNotStarted, 3); got != StatusInProgress {
		t.Fatalf("expected in_progress, got %s", got)
	}
	if got := StatusForActual(StatusNotStarted, 0); got != StatusNotStarted {
		t.Fatalf("expected not_started, got %s", got)
	}
	if got := StatusForActual(StatusRejected, 5); got != StatusRejected {
		t.Fatalf("rejected must stay rejected until resubmission, got %s", got)
	}
}
