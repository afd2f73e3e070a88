package fuzzy

import (
	"fmt"
	"log/slog"
	"math"
)

// Engine is an immutable Mamdani inference system: input variables, one
// output variable and an ordered rule list.
type Engine struct {
	inputs []*Variable
	byName map[string]*Variable
	output *Variable
	rules  []Rule

	// samples is the discretized output universe; curves holds each output
	// term evaluated over samples. Both are read-only after New.
	samples []float64
	curves  map[string][]float64

	termCount int
	warnings  []string
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for construction warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New validates the configuration and builds an engine. All violations are
// reported together as an *ErrorList.
func New(inputs []*Variable, output *Variable, rules []Rule, opts ...Option) (*Engine, error) {
	e := &Engine{
		byName: make(map[string]*Variable, len(inputs)),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	var errs ErrorList

	if len(inputs) == 0 {
		errs.Addf(ErrInvalidConfig, "", "", "", "at least one input variable is required")
	}
	for _, v := range inputs {
		if v == nil {
			errs.Addf(ErrInvalidConfig, "", "", "", "input variable is nil")
			continue
		}
		if _, dup := e.byName[v.name]; dup {
			errs.Addf(ErrInvalidConfig, v.name, "", "", "input variable declared more than once")
			continue
		}
		e.byName[v.name] = v
		e.inputs = append(e.inputs, v)
		e.termCount += len(v.terms)
		e.warnings = append(e.warnings, v.warnings...)
	}

	if output == nil {
		errs.Addf(ErrInvalidConfig, "", "", "", "output variable is required")
	} else {
		if _, clash := e.byName[output.name]; clash {
			errs.Addf(ErrInvalidConfig, output.name, "", "", "output variable shares a name with an input")
		}
		e.output = output
		e.warnings = append(e.warnings, output.warnings...)
	}

	if len(rules) == 0 {
		errs.Addf(ErrInvalidConfig, "", "", "", "at least one rule is required")
	}
	names := make(map[string]bool, len(rules))
	for i, r := range rules {
		if r.Name == "" {
			r.Name = fmt.Sprintf("rule-%d", i+1)
		}
		if r.Weight == 0 {
			r.Weight = 1.0
		}
		if names[r.Name] {
			errs.Addf(ErrInvalidConfig, "", "", r.Name, "rule name declared more than once")
		}
		names[r.Name] = true
		e.validateRule(r, &errs)
		e.rules = append(e.rules, r)
	}

	if err := errs.ToError(); err != nil {
		return nil, err
	}

	e.samples = output.universe.Samples()
	e.curves = make(map[string][]float64, len(output.terms))
	for _, s := range output.terms {
		curve := make([]float64, len(e.samples))
		for i, y := range e.samples {
			curve[i] = s.Function.Degree(y)
		}
		e.curves[s.Label] = curve
	}

	for _, w := range e.warnings {
		e.logger.Warn("fuzzy configuration warning", "warning", w)
	}

	return e, nil
}

// validateRule checks every term reference and the consequent label.
func (e *Engine) validateRule(r Rule, errs *ErrorList) {
	if r.Weight != 1.0 {
		errs.Addf(ErrInvalidConfig, "", "", r.Name, "rule weight must be 1.0, got %g", r.Weight)
	}
	if r.Antecedent == nil {
		errs.Addf(ErrInvalidConfig, "", "", r.Name, "rule has no antecedent")
	} else {
		for _, t := range r.Antecedent.Terms() {
			v, ok := e.byName[t.Variable]
			if !ok {
				errs.Addf(ErrUnknownTerm, t.Variable, t.Label, r.Name, "no input variable %q", t.Variable)
				continue
			}
			if !v.HasTerm(t.Label) {
				errs.Addf(ErrUnknownTerm, t.Variable, t.Label, r.Name, "variable %q has no term %q", t.Variable, t.Label)
			}
		}
	}
	if e.output != nil && !e.output.HasTerm(r.Consequent) {
		errs.Addf(ErrUnknownTerm, e.output.name, r.Consequent, r.Name, "output has no term %q", r.Consequent)
	}
}

// Evaluate runs fuzzification, rule activation, aggregation and centroid
// defuzzification. It is total: missing inputs count as NaN, and NaN or
// out-of-universe values have zero membership. When no rule fires the
// score is 0.
func (e *Engine) Evaluate(inputs Inputs) *Result {
	fz := make(fuzzified, len(e.inputs))
	memberships := make([]TermMembership, 0, e.termCount)

	for _, v := range e.inputs {
		x, ok := inputs[v.name]
		if !ok {
			x = math.NaN()
		}
		degrees := make(map[string]float64, len(v.terms))
		for _, s := range v.terms {
			d := sanitize(s.Function.Degree(x))
			degrees[s.Label] = d
			memberships = append(memberships, TermMembership{Variable: v.name, Term: s.Label, Degree: d})
		}
		fz[v.name] = degrees
	}

	activations := make([]RuleActivation, len(e.rules))
	aggregate := make([]float64, len(e.samples))

	for i, r := range e.rules {
		strength := sanitize(r.Antecedent.Activation(fz) * r.Weight)
		activations[i] = RuleActivation{
			Index:      i,
			Name:       r.Name,
			Consequent: r.Consequent,
			Strength:   strength,
		}
		if strength <= 0 {
			continue
		}
		for j, mu := range e.curves[r.Consequent] {
			if clipped := math.Min(strength, mu); clipped > aggregate[j] {
				aggregate[j] = clipped
			}
		}
	}

	score := centroid(e.samples, aggregate)
	return &Result{
		Score:       score,
		Category:    Categorize(score),
		Memberships: memberships,
		Activations: activations,
	}
}

// centroid returns sum(y*mu)/sum(mu), or 0 when the set is empty.
func centroid(samples, mu []float64) float64 {
	var num, den float64
	for i, y := range samples {
		num += y * mu[i]
		den += mu[i]
	}
	if den == 0 {
		return 0
	}
	score := num / den
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	return score
}

// Inputs returns the input variables in declaration order.
func (e *Engine) Inputs() []*Variable {
	out := make([]*Variable, len(e.inputs))
	copy(out, e.inputs)
	return out
}

// Input returns the named input variable.
func (e *Engine) Input(name string) (*Variable, bool) {
	v, ok := e.byName[name]
	return v, ok
}

// Output returns the output variable.
func (e *Engine) Output() *Variable { return e.output }

// Rules returns the rules in declaration order, with defaulted names.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Warnings returns non-fatal configuration findings.
func (e *Engine) Warnings() []string {
	out := make([]string, len(e.warnings))
	copy(out, e.warnings)
	return out
}

// fuzzified is the per-call Assignment: variable -> term -> degree.
type fuzzified map[string]map[string]float64

// Degree implements Assignment.
func (f fuzzified) Degree(variable, label string) float64 {
	return f[variable][label]
}
