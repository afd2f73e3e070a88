package ruleset

import (
	"fmt"
	"sort"

	"mercator-hq/perfscore/pkg/fuzzy"
)

// builder turns the intermediate YAML structure into fuzzy variables and
// rules, collecting structural errors with line numbers.
type builder struct {
	source string
	errors ParseErrors
}

func newBuilder(source string) *builder {
	return &builder{source: source}
}

func (b *builder) addError(line int, err error, format string, args ...any) {
	b.errors = append(b.errors, &ParseError{
		Type:    ErrorTypeStructural,
		Message: fmt.Sprintf(format, args...),
		File:    b.source,
		Line:    line,
		Err:     err,
	})
}

// buildVariable creates a linguistic variable. Fuzzy configuration errors
// are returned unchanged so their kinds survive.
func (b *builder) buildVariable(yv *yamlVariable, role string) (*fuzzy.Variable, error) {
	if yv.Universe == nil || yv.Universe.Min == nil || yv.Universe.Max == nil || yv.Universe.Step == nil {
		b.addError(yv.line, nil, "%s variable %q needs universe min, max and step", role, yv.Name)
		return nil, nil
	}

	universe, err := fuzzy.NewUniverse(*yv.Universe.Min, *yv.Universe.Max, *yv.Universe.Step)
	if err != nil {
		return nil, err
	}

	sets := make([]fuzzy.Set, 0, len(yv.Terms))
	var termErrs fuzzy.ErrorList
	for _, yt := range yv.Terms {
		if yt.Shape == "" {
			b.addError(yt.line, nil, "term %s.%s has no shape", yv.Name, yt.Name)
			continue
		}
		fn, err := fuzzy.NewMembershipFunction(fuzzy.Shape(yt.Shape), yt.Points)
		if err != nil {
			termErrs.Add(&fuzzy.ConfigError{
				Kind:     fuzzy.ErrMalformedMembershipFunction,
				Variable: yv.Name,
				Term:     yt.Name,
				Message:  fmt.Sprintf("line %d: %v", yt.line, err),
			})
			continue
		}
		sets = append(sets, fuzzy.NewSet(yt.Name, fn))
	}
	if err := termErrs.ToError(); err != nil {
		return nil, err
	}

	return fuzzy.NewVariable(yv.Name, universe, sets...)
}

// buildRule creates a rule from its YAML form.
func (b *builder) buildRule(yr *yamlRule, index int) (fuzzy.Rule, bool) {
	name := yr.Name
	if name == "" {
		name = fmt.Sprintf("rule-%d", index+1)
	}
	if yr.When == nil {
		b.addError(yr.line, nil, "rule %q has no when clause", name)
		return fuzzy.Rule{}, false
	}
	if yr.Then == "" {
		b.addError(yr.line, nil, "rule %q has no then clause", name)
		return fuzzy.Rule{}, false
	}

	expr, err := b.buildExpr(yr.When)
	if err != nil {
		b.addError(yr.line, err, "rule %q has an invalid condition", name)
		return fuzzy.Rule{}, false
	}
	return fuzzy.NewRule(name, expr, yr.Then), true
}

// buildExpr transforms a condition into an expression tree:
//   - "variable.term" string
//   - {term: "variable.term"}
//   - {all: [...]} or {any: [...]}
//   - [...] (implicit all)
func (b *builder) buildExpr(cond interface{}) (fuzzy.Expr, error) {
	switch v := cond.(type) {
	case string:
		t, ok := fuzzy.ParseTerm(v)
		if !ok {
			return nil, fmt.Errorf("term reference %q must look like variable.term", v)
		}
		return t, nil

	case []interface{}:
		return b.buildList(v, fuzzy.All)

	case map[string]interface{}:
		if len(v) != 1 {
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return nil, fmt.Errorf("condition must have exactly one of all, any or term; got %v", keys)
		}
		for key, child := range v {
			switch key {
			case "all", "any":
				list, ok := child.([]interface{})
				if !ok {
					return nil, fmt.Errorf("%s expects a list, got %T", key, child)
				}
				if key == "all" {
					return b.buildList(list, fuzzy.All)
				}
				return b.buildList(list, fuzzy.Any)
			case "term":
				s, ok := child.(string)
				if !ok {
					return nil, fmt.Errorf("term expects a string, got %T", child)
				}
				return b.buildExpr(s)
			default:
				return nil, fmt.Errorf("unknown condition operator %q", key)
			}
		}
	}
	return nil, fmt.Errorf("invalid condition type %T", cond)
}

func (b *builder) buildList(items []interface{}, join func(...fuzzy.Expr) fuzzy.Expr) (fuzzy.Expr, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("condition list is empty")
	}
	children := make([]fuzzy.Expr, 0, len(items))
	for i, item := range items {
		child, err := b.buildExpr(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		children = append(children, child)
	}
	return join(children...), nil
}
