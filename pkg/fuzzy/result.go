package fuzzy

// Inputs maps input variable names to crisp values.
type Inputs map[string]float64

// TermMembership is the degree of one input value in one term.
type TermMembership struct {
	Variable string  `json:"variable"`
	Term     string  `json:"term"`
	Degree   float64 `json:"degree"`
}

// RuleActivation is the firing strength of one rule.
type RuleActivation struct {
	Index      int     `json:"index"`
	Name       string  `json:"name"`
	Consequent string  `json:"consequent"`
	Strength   float64 `json:"strength"`
}

// Result is the outcome of one evaluation. Memberships are ordered by input
// variable then term declaration order; Activations follow rule order.
type Result struct {
	Score       float64          `json:"score"`
	Category    Category         `json:"category"`
	Memberships []TermMembership `json:"memberships"`
	Activations []RuleActivation `json:"activations"`
}

// Membership returns the recorded degree for variable.term.
func (r *Result) Membership(variable, term string) (float64, bool) {
	for _, m := range r.Memberships {
		if m.Variable == variable && m.Term == term {
			return m.Degree, true
		}
	}
	return 0, false
}

// Activation returns the strength of the named rule.
func (r *Result) Activation(rule string) (float64, bool) {
	for _, a := range r.Activations {
		if a.Name == rule {
			return a.Strength, true
		}
	}
	return 0, false
}

// Fired returns the activations with a strength above zero, in rule order.
func (r *Result) Fired() []RuleActivation {
	var out []RuleActivation
	for _, a := range r.Activations {
		if a.Strength > 0 {
			out = append(out, a)
		}
	}
	return out
}
