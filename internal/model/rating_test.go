package model

import (
	"math"
	"testing"
)

func TestSummaryFromStars(t *testing.T) {
	cases := []struct {
		name      string
		stars     []int
		wantAvg   float64
		wantCount int
	}{
		{"empty", nil, 0, 0},
		{"single", []int{5}, 5, 1},
		{"mixed", []int{5, 4, 3}, 4, 3},
		{"non-integer mean", []int{5, 4}, 4.5, 2},
		{"all ones", []int{1, 1, 1, 1}, 1, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			avg, count := SummaryFromStars(tc.stars)
			if count != tc.wantCount {
				t.Fatalf("count = %d, want %d", count, tc.wantCount)
			}
			if math.Abs(avg-tc.wantAvg) > 1e-9 {
				t.Fatalf("avg = %v, want %v", avg, tc.wantAvg)
			}
		})
	}
}
