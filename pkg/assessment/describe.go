package assessment

import "mercator-hq/perfscore/pkg/fuzzy"

// RuleSetDescription is the active rule set in full: its identity plus every
// variable and rule, in declaration order.
type RuleSetDescription struct {
	RuleSet     RuleSetInfo           `json:"ruleset"`
	Description string                `json:"description,omitempty"`
	Inputs      []VariableDescription `json:"inputs"`
	Output      VariableDescription   `json:"output"`
	Rules       []RuleDescription     `json:"rules"`
}

type VariableDescription struct {
	Name     string            `json:"name"`
	Universe UniverseBounds    `json:"universe"`
	Terms    []TermDescription `json:"terms"`
}

type UniverseBounds struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

type TermDescription struct {
	Name   string      `json:"name"`
	Shape  fuzzy.Shape `json:"shape"`
	Points []float64   `json:"points"`
}

// RuleDescription renders a rule's antecedent as text, e.g.
// "(operations.high AND error_rate.low)".
type RuleDescription struct {
	Name string `json:"name"`
	When string `json:"when"`
	Then string `json:"then"`
}

// Describe returns the active rule set. Info and engine come from the same
// load, so a concurrent reload never mixes two rule sets.
func (s *Service) Describe() (*RuleSetDescription, bool) {
	if s == nil {
		return nil, false
	}
	cur := s.current.Load()
	if cur == nil {
		return nil, false
	}

	eng := cur.ruleSet.Engine
	d := &RuleSetDescription{
		RuleSet:     cur.info,
		Description: cur.ruleSet.Description,
		Output:      describeVariable(eng.Output()),
	}
	for _, v := range eng.Inputs() {
		d.Inputs = append(d.Inputs, describeVariable(v))
	}
	for _, r := range eng.Rules() {
		when := ""
		if r.Antecedent != nil {
			when = r.Antecedent.String()
		}
		d.Rules = append(d.Rules, RuleDescription{Name: r.Name, When: when, Then: r.Consequent})
	}
	return d, true
}

func describeVariable(v *fuzzy.Variable) VariableDescription {
	u := v.Universe()
	out := VariableDescription{
		Name:     v.Name(),
		Universe: UniverseBounds{Min: u.Min, Max: u.Max, Step: u.Step},
	}
	for _, set := range v.Sets() {
		out.Terms = append(out.Terms, TermDescription{
			Name:   set.Label,
			Shape:  set.Function.Shape(),
			Points: set.Function.Points(),
		})
	}
	return out
}
