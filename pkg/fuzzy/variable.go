package fuzzy

import (
	"fmt"
)

// Set is a labelled membership function within a linguistic variable.
type Set struct {
	Label    string
	Function MembershipFunction
}

// NewSet pairs a label with its membership function.
func NewSet(label string, fn MembershipFunction) Set {
	return Set{Label: label, Function: fn}
}

// Variable is a linguistic variable: a name, a universe and an ordered set
// of uniquely labelled terms. Variables are immutable after construction.
type Variable struct {
	name     string
	universe Universe
	terms    []Set
	index    map[string]int
	warnings []string
}

// NewVariable validates and builds a linguistic variable. Control points
// outside the universe are allowed and reported by Warnings.
func NewVariable(name string, universe Universe, terms ...Set) (*Variable, error) {
	var errs ErrorList

	if name == "" {
		errs.Addf(ErrInvalidConfig, "", "", "", "variable name is required")
	}
	if _, err := NewUniverse(universe.Min, universe.Max, universe.Step); err != nil {
		errs.Merge(withVariable(err, name))
	}
	if len(terms) == 0 {
		errs.Addf(ErrInvalidConfig, name, "", "", "variable has no terms")
	}

	v := &Variable{
		name:     name,
		universe: universe,
		terms:    make([]Set, 0, len(terms)),
		index:    make(map[string]int, len(terms)),
	}

	for _, t := range terms {
		switch {
		case t.Label == "":
			errs.Addf(ErrInvalidConfig, name, "", "", "term label is required")
			continue
		case t.Function == nil:
			errs.Addf(ErrMalformedMembershipFunction, name, t.Label, "", "membership function is nil")
			continue
		}
		if _, dup := v.index[t.Label]; dup {
			errs.Addf(ErrDuplicateTerm, name, t.Label, "", "label declared more than once")
			continue
		}
		if err := checkPoints(t.Function.Shape(), t.Function.Points()...); err != nil {
			errs.Merge(withTerm(err, name, t.Label))
			continue
		}

		v.index[t.Label] = len(v.terms)
		v.terms = append(v.terms, t)

		for _, p := range t.Function.Points() {
			if !universe.Contains(p) {
				v.warnings = append(v.warnings, fmt.Sprintf(
					"%s.%s: control point %g lies outside universe %s", name, t.Label, p, universe))
				break
			}
		}
	}

	if err := errs.ToError(); err != nil {
		return nil, err
	}
	return v, nil
}

// Name returns the variable name.
func (v *Variable) Name() string { return v.name }

// Universe returns the variable's universe.
func (v *Variable) Universe() Universe { return v.universe }

// Sets returns the terms in declaration order. The returned slice is a copy.
func (v *Variable) Sets() []Set {
	out := make([]Set, len(v.terms))
	copy(out, v.terms)
	return out
}

// Labels returns term labels in declaration order.
func (v *Variable) Labels() []string {
	out := make([]string, len(v.terms))
	for i, t := range v.terms {
		out[i] = t.Label
	}
	return out
}

// HasTerm reports whether label is defined on the variable.
func (v *Variable) HasTerm(label string) bool {
	_, ok := v.index[label]
	return ok
}

// Set returns the term with the given label.
func (v *Variable) Set(label string) (Set, error) {
	i, ok := v.index[label]
	if !ok {
		return Set{}, &ConfigError{Kind: ErrUnknownTerm, Variable: v.name, Term: label}
	}
	return v.terms[i], nil
}

// Membership evaluates the degree of x in the named term.
func (v *Variable) Membership(label string, x float64) (float64, error) {
	t, err := v.Set(label)
	if err != nil {
		return 0, err
	}
	return t.Function.Degree(x), nil
}

// Warnings returns non-fatal findings from construction.
func (v *Variable) Warnings() []string {
	out := make([]string, len(v.warnings))
	copy(out, v.warnings)
	return out
}

func withVariable(err error, variable string) error {
	if ce, ok := err.(*ConfigError); ok && ce.Variable == "" {
		cp := *ce
		cp.Variable = variable
		return &cp
	}
	return err
}

func withTerm(err error, variable, term string) error {
	if ce, ok := err.(*ConfigError); ok {
		cp := *ce
		cp.Variable = variable
		cp.Term = term
		return &cp
	}
	return err
}
