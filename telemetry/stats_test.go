package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeStats(t *testing.T) {
	values := []float64{10, 2, 8, 4, 6}
	mean, std, p10, p50, p90 := ComputeStats(values)

	if math.Abs(mean-6) > 0.001 {
		t.Errorf("mean = %v, want 6", mean)
	}
	// population variance of {2,4,6,8,10} is 8
	if math.Abs(std-math.Sqrt(8)) > 0.001 {
		t.Errorf("std = %v, want %v", std, math.Sqrt(8))
	}
	if math.Abs(p10-2.8) > 0.001 {
		t.Errorf("p10 = %v, want 2.8", p10)
	}
	if math.Abs(p50-6) > 0.001 {
		t.Errorf("p50 = %v, want 6", p50)
	}
	if math.Abs(p90-9.2) > 0.001 {
		t.Errorf("p90 = %v, want 9.2", p90)
	}
	if values[0] != 10 {
		t.Error("input slice was reordered")
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeStats(nil)
	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestWindowStatsHelpers(t *testing.T) {
	s := WindowStats{
		DeathsOldAge:  1,
		DeathsDisease: 2,
		DeathsEaten:   3,
		Species: []PopulationRecord{
			{Species: "fox", Count: 4},
			{Species: "rabbit", Count: 40},
		},
	}
	if s.Deaths() != 6 {
		t.Errorf("Deaths() = %d, want 6", s.Deaths())
	}
	if s.Count("rabbit") != 40 || s.Count("wolf") != 0 {
		t.Errorf("Count lookup wrong: rabbit=%d wolf=%d", s.Count("rabbit"), s.Count("wolf"))
	}
}
