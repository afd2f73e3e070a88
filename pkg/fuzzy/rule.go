package fuzzy

// Rule maps an antecedent expression to a term of the output variable.
// The rule's firing strength is the antecedent activation times Weight.
type Rule struct {
	Name       string
	Antecedent Expr
	Consequent string

	// Weight is reserved and fixed at 1.0.
	Weight float64
}

// NewRule creates a rule with weight 1.0.
func NewRule(name string, antecedent Expr, consequent string) Rule {
	return Rule{
		Name:       name,
		Antecedent: antecedent,
		Consequent: consequent,
		Weight:     1.0,
	}
}

// String renders the rule as "IF <antecedent> THEN <consequent>".
func (r Rule) String() string {
	ante := "<nil>"
	if r.Antecedent != nil {
		ante = r.Antecedent.String()
	}
	return "IF " + ante + " THEN " + r.Consequent
}
