package oddsmath

import (
	"errors"
	"math"
	"testing"
)

func TestProjectedValueFairOdds(t *testing.T) {
	for _, odds := range []int{-110, -115, 100, 120} {
		for _, point := range []float64{0.5, 5.5, 62.5, 249.5, 7} {
			got, err := ProjectedValue(odds, odds, point)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != point {
				t.Errorf("ProjectedValue(%d, %d, %v) = %v, want exactly %v", odds, odds, point, got, point)
			}
		}
	}
}

func TestProjectedValueSwapMirrorsAroundPoint(t *testing.T) {
	point := 45.5
	a, err := ProjectedValue(-140, 120, point)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := ProjectedValue(120, -140, point)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs((a-point)+(b-point)) > 1e-12 {
		t.Errorf("swapped sides should mirror around %v: got %v and %v", point, a, b)
	}
	if a <= point {
		t.Errorf("over favourite should project above the line, got %v", a)
	}
}

func TestProjectedValueMatchesWeightedForm(t *testing.T) {
	over, _ := ImpliedProbability(-130)
	under, _ := ImpliedProbability(110)
	normOver, normUnder := RemoveVig(over, under)
	want := normOver*(5.5+0.5) + normUnder*(5.5-0.5)

	got, err := ProjectedValue(-130, 110, 5.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("ProjectedValue = %v, want %v", got, want)
	}
}

func TestProjectedValueInvalidOdds(t *testing.T) {
	if _, err := ProjectedValue(0, -110, 1.5); !errors.Is(err, ErrInvalidOdds) {
		t.Errorf("expected ErrInvalidOdds for over side, got %v", err)
	}
	if _, err := ProjectedValue(-110, 0, 1.5); !errors.Is(err, ErrInvalidOdds) {
		t.Errorf("expected ErrInvalidOdds for under side, got %v", err)
	}
}

func TestRemoveVig(t *testing.T) {
	a, b := RemoveVig(0.5455, 0.5238)
	if math.Abs(a+b-1) > 1e-12 {
		t.Errorf("fair probabilities should sum to 1, got %v", a+b)
	}
	if math.Abs(a-0.5101) > 0.001 {
		t.Errorf("fair -120 side = %v, want ~0.5101", a)
	}
	if x, y := RemoveVig(0, 0); x != 0 || y != 0 {
		t.Errorf("RemoveVig(0, 0) = %v, %v, want zeros", x, y)
	}
}
