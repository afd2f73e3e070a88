package fuzzy

import (
	"errors"
	"strings"
	"testing"
)

func TestNewVariable_Validation(t *testing.T) {
	u := MustUniverse(0, 10, 1)

	tests := []struct {
		name    string
		varName string
		sets    []Set
		wantErr error
	}{
		{
			name:    "valid",
			varName: "x",
			sets:    []Set{NewSet("low", MustTriangular(0, 0, 5)), NewSet("high", MustTriangular(5, 10, 10))},
		},
		{
			name:    "duplicate label",
			varName: "x",
			sets:    []Set{NewSet("low", MustTriangular(0, 0, 5)), NewSet("low", MustTriangular(5, 10, 10))},
			wantErr: ErrDuplicateTerm,
		},
		{
			name:    "malformed literal",
			varName: "x",
			sets:    []Set{NewSet("bad", Triangular{A: 5, B: 1, C: 2})},
			wantErr: ErrMalformedMembershipFunction,
		},
		{
			name:    "nil function",
			varName: "x",
			sets:    []Set{{Label: "none"}},
			wantErr: ErrMalformedMembershipFunction,
		},
		{
			name:    "no terms",
			varName: "x",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "missing name",
			sets:    []Set{NewSet("low", MustTriangular(0, 0, 5))},
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewVariable(tt.varName, u, tt.sets...)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("NewVariable() unexpected error = %v", err)
				}
				if v == nil {
					t.Fatal("NewVariable() returned nil variable")
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewVariable() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewVariable_InvalidUniverse(t *testing.T) {
	_, err := NewVariable("x", Universe{Min: 1, Max: 0, Step: 1}, NewSet("a", MustTriangular(0, 0, 1)))
	if !errors.Is(err, ErrInvalidUniverse) {
		t.Errorf("error = %v, want ErrInvalidUniverse", err)
	}
}

func TestVariable_OutOfUniverseWarning(t *testing.T) {
	v, err := NewVariable("x", MustUniverse(0, 10, 1),
		NewSet("inside", MustTriangular(0, 5, 10)),
		NewSet("outside", MustTriangular(8, 12, 15)),
	)
	if err != nil {
		t.Fatalf("NewVariable() error = %v", err)
	}

	warnings := v.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("Warnings() = %v, want exactly one", warnings)
	}
	if !strings.Contains(warnings[0], "x.outside") {
		t.Errorf("warning %q does not name the term", warnings[0])
	}
}

func TestVariable_Membership(t *testing.T) {
	ops, _, _ := performanceVariables(t)

	got, err := ops.Membership("medium", 7.5)
	if err != nil {
		t.Fatalf("Membership() error = %v", err)
	}
	if !approxEqual(got, 0.5) {
		t.Errorf("Membership(medium, 7.5) = %v, want 0.5", got)
	}

	_, err = ops.Membership("extreme", 7.5)
	if !errors.Is(err, ErrUnknownTerm) {
		t.Errorf("Membership(extreme) error = %v, want ErrUnknownTerm", err)
	}
}

func TestVariable_LabelsKeepDeclarationOrder(t *testing.T) {
	ops, _, _ := performanceVariables(t)
	got := strings.Join(ops.Labels(), ",")
	if got != "low,medium,high" {
		t.Errorf("Labels() = %s, want low,medium,high", got)
	}
}
