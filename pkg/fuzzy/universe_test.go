package fuzzy

import (
	"errors"
	"math"
	"testing"
)

func TestNewUniverse(t *testing.T) {
	tests := []struct {
		name    string
		min     float64
		max     float64
		step    float64
		wantLen int
		wantErr bool
	}{
		{"integer steps", 0, 20, 1, 21, false},
		{"percent steps", 0, 1, 0.01, 101, false},
		{"score range", 0, 100, 1, 101, false},
		{"single step", 0, 1, 1, 2, false},
		{"inverted", 10, 0, 1, 0, true},
		{"empty", 5, 5, 1, 0, true},
		{"zero step", 0, 10, 0, 0, true},
		{"negative step", 0, 10, -1, 0, true},
		{"step wider than range", 0, 1, 2, 0, true},
		{"NaN bound", math.NaN(), 1, 0.1, 0, true},
		{"at sample cap", 0, MaxSamples - 1, 1, MaxSamples, false},
		{"one past sample cap", 0, MaxSamples, 1, 0, true},
		{"huge range tiny step", 0, 1e12, 1e-9, 0, true},
		{"fine step over score range", 0, 100, 1e-6, 0, true},
		{"range overflows", -math.MaxFloat64, math.MaxFloat64, 1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := NewUniverse(tt.min, tt.max, tt.step)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewUniverse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidUniverse) {
					t.Errorf("error = %v, want ErrInvalidUniverse", err)
				}
				return
			}

			samples := u.Samples()
			if len(samples) != tt.wantLen {
				t.Errorf("len(Samples()) = %d, want %d", len(samples), tt.wantLen)
			}
			if samples[0] != tt.min {
				t.Errorf("first sample = %v, want %v", samples[0], tt.min)
			}
			if samples[len(samples)-1] != tt.max {
				t.Errorf("last sample = %v, want %v", samples[len(samples)-1], tt.max)
			}
		})
	}
}

func TestUniverse_SamplesAreIndependent(t *testing.T) {
	u := MustUniverse(0, 10, 1)
	a := u.Samples()
	a[0] = 42
	if b := u.Samples(); b[0] != 0 {
		t.Errorf("Samples() shares storage between calls")
	}
}
