package fuzzy

import (
	"math"
	"testing"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		score float64
		want  Category
	}{
		{100, CategoryHigh},
		{70, CategoryHigh},
		{69.999, CategoryMedium},
		{50, CategoryMedium},
		{40, CategoryMedium},
		{39.999, CategoryLow},
		{0, CategoryLow},
		{-5, CategoryLow},
		{math.NaN(), CategoryLow},
	}

	for _, tt := range tests {
		if got := Categorize(tt.score); got != tt.want {
			t.Errorf("Categorize(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestCategorize_Monotonic(t *testing.T) {
	prev := Categorize(-1)
	for s := 0.0; s <= 100; s += 0.25 {
		c := Categorize(s)
		if c.Rank() < prev.Rank() {
			t.Fatalf("Categorize(%v) = %v ranks below previous %v", s, c, prev)
		}
		prev = c
	}
}

func TestCategory_Label(t *testing.T) {
	if CategoryHigh.Label() != "High Performance" {
		t.Errorf("High label = %q", CategoryHigh.Label())
	}
	if Category("bogus").Valid() {
		t.Error("unknown category reported valid")
	}
}
