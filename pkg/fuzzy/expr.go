package fuzzy

import (
	"math"
	"strings"
)

// Assignment supplies fuzzified input degrees to rule expressions.
type Assignment interface {
	// Degree returns the membership of the named input variable's current
	// value in the given term. Unknown references return 0.
	Degree(variable, label string) float64
}

// Expr is a rule antecedent: a tree of terms joined by AND (min) and OR (max).
type Expr interface {
	// Activation evaluates the expression against an assignment.
	Activation(a Assignment) float64

	// Terms returns every term referenced by the expression, left to right.
	Terms() []Term

	// String renders the expression, e.g. "(operations.high AND error_rate.low)".
	String() string
}

// Term is the expression leaf "Variable is Label".
type Term struct {
	Variable string
	Label    string
}

// Activation implements Expr.
func (t Term) Activation(a Assignment) float64 {
	return sanitize(a.Degree(t.Variable, t.Label))
}

// Terms implements Expr.
func (t Term) Terms() []Term { return []Term{t} }

// String implements Expr.
func (t Term) String() string { return t.Variable + "." + t.Label }

// And is the fuzzy conjunction min(Left, Right).
type And struct {
	Left, Right Expr
}

// Activation implements Expr.
func (e And) Activation(a Assignment) float64 {
	return math.Min(e.Left.Activation(a), e.Right.Activation(a))
}

// Terms implements Expr.
func (e And) Terms() []Term { return append(e.Left.Terms(), e.Right.Terms()...) }

// String implements Expr.
func (e And) String() string { return "(" + e.Left.String() + " AND " + e.Right.String() + ")" }

// Or is the fuzzy disjunction max(Left, Right).
type Or struct {
	Left, Right Expr
}

// Activation implements Expr.
func (e Or) Activation(a Assignment) float64 {
	return math.Max(e.Left.Activation(a), e.Right.Activation(a))
}

// Terms implements Expr.
func (e Or) Terms() []Term { return append(e.Left.Terms(), e.Right.Terms()...) }

// String implements Expr.
func (e Or) String() string { return "(" + e.Left.String() + " OR " + e.Right.String() + ")" }

// All folds expressions into a left-leaning chain of And nodes.
// It returns nil for an empty list.
func All(exprs ...Expr) Expr {
	return fold(exprs, func(l, r Expr) Expr { return And{Left: l, Right: r} })
}

// Any folds expressions into a left-leaning chain of Or nodes.
// It returns nil for an empty list.
func Any(exprs ...Expr) Expr {
	return fold(exprs, func(l, r Expr) Expr { return Or{Left: l, Right: r} })
}

func fold(exprs []Expr, join func(l, r Expr) Expr) Expr {
	if len(exprs) == 0 {
		return nil
	}
	out := exprs[0]
	for _, e := range exprs[1:] {
		out = join(out, e)
	}
	return out
}

// ParseTerm splits "variable.label" into a Term leaf.
func ParseTerm(ref string) (Term, bool) {
	i := strings.LastIndexByte(ref, '.')
	if i <= 0 || i == len(ref)-1 {
		return Term{}, false
	}
	return Term{Variable: ref[:i], Label: ref[i+1:]}, true
}

// sanitize keeps NaN out of rule strengths.
func sanitize(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return clamp01(v)
}
